package course

import (
	"time"

	"gorm.io/gorm"
)

// Raw per-content-type progress rows. These tables are written by the content players
// and readers; the completion engine only reads them through its adapters. All of them
// share the (user_id, course_id, content_id, client_id) key.

// VideoProgress tracks how much of a video a learner has watched.
type VideoProgress struct {
	gorm.Model
	UserID         uint       `json:"user_id" gorm:"index;not null"`
	CourseID       uint       `json:"course_id" gorm:"index;not null"`
	ContentID      uint       `json:"content_id" gorm:"index;not null"`
	ClientID       uint       `json:"client_id" gorm:"index;not null"`
	WatchedPercent float64    `json:"watched_percent" gorm:"default:0"`
	IsCompleted    bool       `json:"is_completed" gorm:"default:false"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// AudioProgress tracks how much of an audio lesson a learner has heard.
type AudioProgress struct {
	gorm.Model
	UserID          uint       `json:"user_id" gorm:"index;not null"`
	CourseID        uint       `json:"course_id" gorm:"index;not null"`
	ContentID       uint       `json:"content_id" gorm:"index;not null"`
	ClientID        uint       `json:"client_id" gorm:"index;not null"`
	ListenedPercent float64    `json:"listened_percent" gorm:"default:0"`
	IsCompleted     bool       `json:"is_completed" gorm:"default:false"`
	StartedAt       *time.Time `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// DocumentProgress tracks document reading progress.
type DocumentProgress struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"`
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	ReadPercent float64    `json:"read_percent" gorm:"default:0"`
	IsCompleted bool       `json:"is_completed" gorm:"default:false"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ImageProgress tracks whether an image slide was viewed.
type ImageProgress struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"`
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	IsViewed    bool       `json:"is_viewed" gorm:"default:false"`
	ViewedAt    *time.Time `json:"viewed_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ScormProgress mirrors the SCORM runtime's lesson status for a package.
type ScormProgress struct {
	gorm.Model
	UserID       uint       `json:"user_id" gorm:"index;not null"`
	CourseID     uint       `json:"course_id" gorm:"index;not null"`
	ContentID    uint       `json:"content_id" gorm:"index;not null"` // scorm package id
	ClientID     uint       `json:"client_id" gorm:"index;not null"`
	LessonStatus string     `json:"lesson_status" gorm:"default:'not attempted'"` // completed, passed, failed, incomplete
	Score        float64    `json:"score" gorm:"default:0"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// AssessmentProgress records assessment attempts; IsPassed is the completion signal.
type AssessmentProgress struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"`
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	Score       float64    `json:"score" gorm:"default:0"`
	IsPassed    bool       `json:"is_passed" gorm:"default:false"`
	Attempts    int        `json:"attempts" gorm:"default:0"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// AssignmentProgress records assignment submission and grading state.
type AssignmentProgress struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"`
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	IsSubmitted bool       `json:"is_submitted" gorm:"default:false"`
	IsCompleted bool       `json:"is_completed" gorm:"default:false"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// ExternalLinkProgress records a learner opening an external resource.
type ExternalLinkProgress struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"`
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	IsCompleted bool       `json:"is_completed" gorm:"default:false"`
	OpenedAt    *time.Time `json:"opened_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// InteractiveProgress records completion of interactive (H5P-style) content.
type InteractiveProgress struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"`
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	Score       float64    `json:"score" gorm:"default:0"`
	IsCompleted bool       `json:"is_completed" gorm:"default:false"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// SurveyResponse is complete once CompletedAt is set.
type SurveyResponse struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"` // survey id
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// FeedbackResponse is complete once CompletedAt is set.
type FeedbackResponse struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"index;not null"`
	CourseID    uint       `json:"course_id" gorm:"index;not null"`
	ContentID   uint       `json:"content_id" gorm:"index;not null"` // feedback form id
	ClientID    uint       `json:"client_id" gorm:"index;not null"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}
