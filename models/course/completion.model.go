package course

import (
	"time"

	"gorm.io/gorm"
)

// Completion records are created only once their entity actually completes; a row's
// existence already means "finished" (the percentage is kept for reporting). Each
// natural key carries a composite unique index so a concurrent duplicate create
// resolves as an upsert instead of a second row.

// PrerequisiteCompletion records a learner finishing one course prerequisite.
type PrerequisiteCompletion struct {
	gorm.Model
	UserID               uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_prereq_completion"`
	CourseID             uint       `json:"course_id" gorm:"index;not null;uniqueIndex:idx_prereq_completion"`
	ClientID             uint       `json:"client_id" gorm:"index;not null;uniqueIndex:idx_prereq_completion"`
	PrerequisiteID       uint       `json:"prerequisite_id" gorm:"not null;uniqueIndex:idx_prereq_completion"`
	PrerequisiteType     string     `json:"prerequisite_type" gorm:"uniqueIndex:idx_prereq_completion"`
	CompletionPercentage float64    `json:"completion_percentage" gorm:"default:0"`
	IsCompleted          bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt          *time.Time `json:"completed_at"`
	LastAccessedAt       *time.Time `json:"last_accessed_at"`
}

// ModuleCompletion records a learner finishing every required item of a module.
type ModuleCompletion struct {
	gorm.Model
	UserID               uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_module_completion"`
	CourseID             uint       `json:"course_id" gorm:"index;not null;uniqueIndex:idx_module_completion"`
	ClientID             uint       `json:"client_id" gorm:"index;not null;uniqueIndex:idx_module_completion"`
	ModuleID             uint       `json:"module_id" gorm:"not null;uniqueIndex:idx_module_completion"`
	ContentID            *uint      `json:"content_id"` // last item touched when the module closed
	CompletionPercentage float64    `json:"completion_percentage" gorm:"default:0"`
	IsCompleted          bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt          *time.Time `json:"completed_at"`
	LastAccessedAt       *time.Time `json:"last_accessed_at"`
}

// PostRequisiteCompletion records a learner finishing one course post-requisite.
type PostRequisiteCompletion struct {
	gorm.Model
	UserID               uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_postreq_completion"`
	CourseID             uint       `json:"course_id" gorm:"index;not null;uniqueIndex:idx_postreq_completion"`
	ClientID             uint       `json:"client_id" gorm:"index;not null;uniqueIndex:idx_postreq_completion"`
	PostRequisiteID      uint       `json:"post_requisite_id" gorm:"not null;uniqueIndex:idx_postreq_completion"`
	ContentType          string     `json:"content_type" gorm:"uniqueIndex:idx_postreq_completion"`
	CompletionPercentage float64    `json:"completion_percentage" gorm:"default:0"`
	IsCompleted          bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt          *time.Time `json:"completed_at"`
	LastAccessedAt       *time.Time `json:"last_accessed_at"`
}

// CourseCompletion is a materialized rollup over the three component kinds; the
// aggregator refreshes it, it is never the source of truth.
type CourseCompletion struct {
	gorm.Model
	UserID                  uint       `json:"user_id" gorm:"index;not null;uniqueIndex:idx_course_completion"`
	CourseID                uint       `json:"course_id" gorm:"index;not null;uniqueIndex:idx_course_completion"`
	ClientID                uint       `json:"client_id" gorm:"index;not null;uniqueIndex:idx_course_completion"`
	CompletionPercentage    float64    `json:"completion_percentage" gorm:"default:0"`
	IsCompleted             bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt             *time.Time `json:"completed_at"`
	PrerequisitesCompleted  bool       `json:"prerequisites_completed" gorm:"default:false"`
	ModulesCompleted        bool       `json:"modules_completed" gorm:"default:false"`
	PostRequisitesCompleted bool       `json:"post_requisites_completed" gorm:"default:false"`
}
