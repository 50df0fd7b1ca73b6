package completion

import (
	"math"
	"time"
)

// ContentType identifies which progress table is the source of truth for a content
// item. The values match the content_type column stored on membership rows.
type ContentType string

const (
	ContentVideo        ContentType = "video"
	ContentAudio        ContentType = "audio"
	ContentDocument     ContentType = "document"
	ContentImage        ContentType = "image"
	ContentScorm        ContentType = "scorm"
	ContentAssessment   ContentType = "assessment"
	ContentAssignment   ContentType = "assignment"
	ContentExternalLink ContentType = "external_link"
	ContentInteractive  ContentType = "interactive"
	ContentSurvey       ContentType = "survey"
	ContentFeedback     ContentType = "feedback"
	ContentCourse       ContentType = "course" // nested course
)

// Entity kinds accepted by Engine.StartTracking.
const (
	EntityPrerequisite  = "prerequisite"
	EntityModule        = "module"
	EntityPostRequisite = "post_requisite"
)

// Progress is what an adapter reports for one (user, course, content) tuple.
// CompletedAt carries the adapter's own finish time when it has one, so completion
// records can keep the real timestamp instead of the propagation time.
type Progress struct {
	Complete    bool
	CompletedAt *time.Time
}

// Result is returned by every tracker update.
type Result struct {
	Percentage  float64 `json:"percentage"`
	IsCompleted bool    `json:"is_completed"`
}

// CourseResult extends Result with the per-component rollup flags.
type CourseResult struct {
	Result
	PrerequisitesDone  bool `json:"prerequisites_done"`
	ModulesDone        bool `json:"modules_done"`
	PostRequisitesDone bool `json:"post_requisites_done"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// completedAtOrNow prefers the adapter's own finish time.
func completedAtOrNow(at *time.Time) *time.Time {
	if at != nil {
		return at
	}
	now := time.Now()
	return &now
}
