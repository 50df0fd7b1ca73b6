package completion

import (
	"errors"
	"log"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModuleTracker derives module completion from the items belonging to the module,
// weighting required items over optional ones.
type ModuleTracker struct {
	db       *gorm.DB
	adapters Registry
}

func NewModuleTracker(db *gorm.DB, adapters Registry) *ModuleTracker {
	return &ModuleTracker{db: db, adapters: adapters}
}

// UpdateFromContent recomputes module completion across all non-deleted items.
//
// Rules: when the module has required items and every one of them is complete, the
// module is complete regardless of optional items. Otherwise the percentage is the
// completed share over all items. A module with no items is never complete.
// lastContentID, when non-nil, is stored on the completion record for traceability
// only.
func (t *ModuleTracker) UpdateFromContent(userID, courseID, moduleID, clientID uint, lastContentID *uint) (Result, error) {
	var items []courseModels.CourseContent
	if err := t.db.Where("module_id = ? AND course_id = ? AND client_id = ? AND is_deleted = ?",
		moduleID, courseID, clientID, false).Find(&items).Error; err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, nil
	}

	var (
		completedCount  int
		requiredCount   int
		requiredDone    int
		latestCompleted *time.Time
	)
	for _, item := range items {
		if item.IsRequired {
			requiredCount++
		}

		adapter, ok := t.adapters[ContentType(item.ContentType)]
		if !ok {
			log.Printf("[COMPLETION] module %d: no adapter for content type %q, counting item %d as incomplete",
				moduleID, item.ContentType, item.ID)
			continue
		}
		prog, err := adapter.Check(userID, courseID, item.ContentID, clientID)
		if err != nil {
			log.Printf("[COMPLETION] module %d: progress read failed for item %d (%s), counting as incomplete: %v",
				moduleID, item.ID, item.ContentType, err)
			continue
		}
		if !prog.Complete {
			continue
		}

		completedCount++
		if item.IsRequired {
			requiredDone++
		}
		if prog.CompletedAt != nil && (latestCompleted == nil || prog.CompletedAt.After(*latestCompleted)) {
			latestCompleted = prog.CompletedAt
		}
	}

	var res Result
	if requiredCount > 0 && requiredDone == requiredCount {
		res = Result{Percentage: 100, IsCompleted: true}
	} else {
		res.Percentage = round2(float64(completedCount) / float64(len(items)) * 100)
		res.IsCompleted = res.Percentage >= 100
	}

	if !res.IsCompleted {
		return res, nil
	}
	if err := t.persist(userID, courseID, moduleID, clientID, lastContentID, latestCompleted); err != nil {
		return res, err
	}
	return res, nil
}

func (t *ModuleTracker) persist(userID, courseID, moduleID, clientID uint, lastContentID *uint, completedAt *time.Time) error {
	var rec courseModels.ModuleCompletion
	err := t.db.Where("user_id = ? AND course_id = ? AND client_id = ? AND module_id = ?",
		userID, courseID, clientID, moduleID).First(&rec).Error
	if err == nil {
		if rec.IsCompleted {
			return nil
		}
		rec.CompletionPercentage = 100
		rec.IsCompleted = true
		rec.CompletedAt = completedAtOrNow(completedAt)
		if lastContentID != nil {
			rec.ContentID = lastContentID
		}
		return t.db.Save(&rec).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	rec = courseModels.ModuleCompletion{
		UserID:               userID,
		CourseID:             courseID,
		ClientID:             clientID,
		ModuleID:             moduleID,
		ContentID:            lastContentID,
		CompletionPercentage: 100,
		IsCompleted:          true,
		CompletedAt:          completedAtOrNow(completedAt),
		LastAccessedAt:       &now,
	}
	return t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}

// IsCompleted reports whether a completed record already exists for the module.
func (t *ModuleTracker) IsCompleted(userID, courseID, moduleID, clientID uint) (bool, error) {
	var count int64
	err := t.db.Model(&courseModels.ModuleCompletion{}).
		Where("user_id = ? AND course_id = ? AND client_id = ? AND module_id = ? AND is_completed = ?",
			userID, courseID, clientID, moduleID, true).
		Count(&count).Error
	return count > 0, err
}

// Touch updates last_accessed_at on an existing record, if any.
func (t *ModuleTracker) Touch(userID, courseID, moduleID, clientID uint) error {
	now := time.Now()
	return t.db.Model(&courseModels.ModuleCompletion{}).
		Where("user_id = ? AND course_id = ? AND client_id = ? AND module_id = ?",
			userID, courseID, clientID, moduleID).
		Update("last_accessed_at", &now).Error
}
