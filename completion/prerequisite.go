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

// PrerequisiteTracker derives and persists prerequisite-level completion from the
// matching progress adapter.
type PrerequisiteTracker struct {
	db       *gorm.DB
	adapters Registry
}

func NewPrerequisiteTracker(db *gorm.DB, adapters Registry) *PrerequisiteTracker {
	return &PrerequisiteTracker{db: db, adapters: adapters}
}

// UpdateFromProgress re-derives completion for one prerequisite. A record is written
// only when the adapter proves completion; an adapter read failure is reported to the
// caller but the derived state stays "not completed".
func (t *PrerequisiteTracker) UpdateFromProgress(userID, courseID, prerequisiteID uint, prerequisiteType ContentType, clientID uint) (Result, error) {
	adapter, ok := t.adapters[prerequisiteType]
	if !ok {
		return Result{}, fmt.Errorf("no progress adapter registered for content type %q", prerequisiteType)
	}

	prog, err := adapter.Check(userID, courseID, prerequisiteID, clientID)
	if err != nil {
		log.Printf("[COMPLETION] prerequisite %d (%s): progress read failed, treating as incomplete: %v",
			prerequisiteID, prerequisiteType, err)
		return Result{}, err
	}
	if !prog.Complete {
		return Result{}, nil
	}

	res := Result{Percentage: 100, IsCompleted: true}
	if err := t.persist(userID, courseID, prerequisiteID, prerequisiteType, clientID, prog.CompletedAt); err != nil {
		return res, err
	}
	return res, nil
}

// persist applies the create-on-completion policy: get-or-create the record and mark
// it completed. An already-completed record is left untouched so repeat events are
// no-ops and completed_at never drifts.
func (t *PrerequisiteTracker) persist(userID, courseID, prerequisiteID uint, prerequisiteType ContentType, clientID uint, completedAt *time.Time) error {
	var rec courseModels.PrerequisiteCompletion
	err := t.db.Where("user_id = ? AND course_id = ? AND client_id = ? AND prerequisite_id = ? AND prerequisite_type = ?",
		userID, courseID, clientID, prerequisiteID, prerequisiteType).First(&rec).Error
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
	rec = courseModels.PrerequisiteCompletion{
		UserID:               userID,
		CourseID:             courseID,
		ClientID:             clientID,
		PrerequisiteID:       prerequisiteID,
		PrerequisiteType:     string(prerequisiteType),
		CompletionPercentage: 100,
		IsCompleted:          true,
		CompletedAt:          completedAtOrNow(completedAt),
		LastAccessedAt:       &now,
	}
	// concurrent duplicate creates resolve through the natural-key unique index
	return t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// IsCompleted reports whether a completed record already exists for the prerequisite.
func (t *PrerequisiteTracker) IsCompleted(userID, courseID, prerequisiteID uint, prerequisiteType ContentType, clientID uint) (bool, error) {
	var count int64
	err := t.db.Model(&courseModels.PrerequisiteCompletion{}).
		Where("user_id = ? AND course_id = ? AND client_id = ? AND prerequisite_id = ? AND prerequisite_type = ? AND is_completed = ?",
			userID, courseID, clientID, prerequisiteID, prerequisiteType, true).
		Count(&count).Error
	return count > 0, err
}

// Touch updates last_accessed_at on an existing record. Records are never created
// here; tracking rows only come into existence at completion.
func (t *PrerequisiteTracker) Touch(userID, courseID, prerequisiteID, clientID uint) error {
	now := time.Now()
	return t.db.Model(&courseModels.PrerequisiteCompletion{}).
		Where("user_id = ? AND course_id = ? AND client_id = ? AND prerequisite_id = ?",
			userID, courseID, clientID, prerequisiteID).
		Update("last_accessed_at", &now).Error
}
