package completion

import (
	"errors"
	"fmt"
	"log"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// postRequisiteFamilies are the only content types that can appear after course
// modules.
var postRequisiteFamilies = map[ContentType]bool{
	ContentAssessment: true,
	ContentAssignment: true,
	ContentSurvey:     true,
	ContentFeedback:   true,
}

// PostRequisiteTracker derives completion for post-course content.
type PostRequisiteTracker struct {
	db       *gorm.DB
	adapters Registry
}

func NewPostRequisiteTracker(db *gorm.DB, adapters Registry) *PostRequisiteTracker {
	return &PostRequisiteTracker{db: db, adapters: adapters}
}

// UpdateFromProgress re-derives completion for one post-requisite.
func (t *PostRequisiteTracker) UpdateFromProgress(userID, courseID, postRequisiteID uint, contentType ContentType, clientID uint) (Result, error) {
	if !postRequisiteFamilies[contentType] {
		return Result{}, fmt.Errorf("content type %q is not a post-requisite family", contentType)
	}
	adapter, ok := t.adapters[contentType]
	if !ok {
		return Result{}, fmt.Errorf("no progress adapter registered for content type %q", contentType)
	}

	prog, err := adapter.Check(userID, courseID, postRequisiteID, clientID)
	if err != nil {
		log.Printf("[COMPLETION] post-requisite %d (%s): progress read failed, treating as incomplete: %v",
			postRequisiteID, contentType, err)
		return Result{}, err
	}
	if !prog.Complete {
		return Result{}, nil
	}

	res := Result{Percentage: 100, IsCompleted: true}
	if err := t.persist(userID, courseID, postRequisiteID, contentType, clientID, prog.CompletedAt); err != nil {
		return res, err
	}
	return res, nil
}

func (t *PostRequisiteTracker) persist(userID, courseID, postRequisiteID uint, contentType ContentType, clientID uint, completedAt *time.Time) error {
	var rec courseModels.PostRequisiteCompletion
	err := t.db.Where("user_id = ? AND course_id = ? AND client_id = ? AND post_requisite_id = ? AND content_type = ?",
		userID, courseID, clientID, postRequisiteID, contentType).First(&rec).Error
	if err == nil {
		if rec.IsCompleted {
			return nil
		}
		rec.CompletionPercentage = 100
		rec.IsCompleted = true
		rec.CompletedAt = completedAtOrNow(completedAt)
		return t.db.Save(&rec).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	rec = courseModels.PostRequisiteCompletion{
		UserID:               userID,
		CourseID:             courseID,
		ClientID:             clientID,
		PostRequisiteID:      postRequisiteID,
		ContentType:          string(contentType),
		CompletionPercentage: 100,
		IsCompleted:          true,
		CompletedAt:          completedAtOrNow(completedAt),
		LastAccessedAt:       &now,
	}
	return t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// Touch updates last_accessed_at on an existing record. Records are never created
// here; tracking rows only come into existence at completion.
func (t *PostRequisiteTracker) Touch(userID, courseID, postRequisiteID, clientID uint) error {
	now := time.Now()
	return t.db.Model(&courseModels.PostRequisiteCompletion{}).
		Where("user_id = ? AND course_id = ? AND client_id = ? AND post_requisite_id = ?",
			userID, courseID, clientID, postRequisiteID).
		Update("last_accessed_at", &now).Error
}

// IsCompleted reports whether a completed record already exists for the
// post-requisite.
func (t *PostRequisiteTracker) IsCompleted(userID, courseID, postRequisiteID uint, contentType ContentType, clientID uint) (bool, error) {
	var count int64
	err := t.db.Model(&courseModels.PostRequisiteCompletion{}).
		Where("user_id = ? AND course_id = ? AND client_id = ? AND post_requisite_id = ? AND content_type = ? AND is_completed = ?",
			userID, courseID, clientID, postRequisiteID, contentType, true).
		Count(&count).Error
	return count > 0, err
}
