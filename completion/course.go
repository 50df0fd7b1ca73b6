package completion

import (
	"errors"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CourseAggregator rolls the three component kinds up into the CourseCompletion
// cache. It only reads what the leaf trackers persisted; it never re-queries the raw
// progress tables.
type CourseAggregator struct {
	db *gorm.DB
}

func NewCourseAggregator(db *gorm.DB) *CourseAggregator {
	return &CourseAggregator{db: db}
}

// Recompute derives course completion and, when the course just reached 100%,
// persists the rollup. It is idempotent and safe to call after every propagation.
func (a *CourseAggregator) Recompute(userID, courseID, clientID uint) (CourseResult, error) {
	res, err := a.Compute(userID, courseID, clientID)
	if err != nil {
		return res, err
	}
	if !res.IsCompleted {
		return res, nil
	}
	if err := a.persist(userID, courseID, clientID, res); err != nil {
		return res, err
	}
	return res, nil
}

// Compute derives course completion without touching the CourseCompletion table.
//
// Only component kinds that exist for the course are weighted; a kind counts as done
// when every one of its instances has a completed record. A course with no
// prerequisites, modules, or post-requisites at all is never complete.
func (a *CourseAggregator) Compute(userID, courseID, clientID uint) (CourseResult, error) {
	var res CourseResult

	var prereqs []courseModels.CoursePrerequisite
	if err := a.db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&prereqs).Error; err != nil {
		return res, err
	}
	var modules []courseModels.Module
	if err := a.db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&modules).Error; err != nil {
		return res, err
	}
	var postReqs []courseModels.CoursePostRequisite
	if err := a.db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&postReqs).Error; err != nil {
		return res, err
	}

	totalComponents := 0
	doneComponents := 0

	if len(prereqs) > 0 {
		totalComponents++
		done, err := a.allPrerequisitesDone(userID, courseID, clientID, prereqs)
		if err != nil {
			return res, err
		}
		res.PrerequisitesDone = done
		if done {
			doneComponents++
		}
	}
	if len(modules) > 0 {
		totalComponents++
		done, err := a.allModulesDone(userID, courseID, clientID, modules)
		if err != nil {
			return res, err
		}
		res.ModulesDone = done
		if done {
			doneComponents++
		}
	}
	if len(postReqs) > 0 {
		totalComponents++
		done, err := a.allPostRequisitesDone(userID, courseID, clientID, postReqs)
		if err != nil {
			return res, err
		}
		res.PostRequisitesDone = done
		if done {
			doneComponents++
		}
	}

	if totalComponents > 0 {
		res.Percentage = round2(float64(doneComponents) / float64(totalComponents) * 100)
	}
	res.IsCompleted = res.Percentage >= 100
	return res, nil
}

func (a *CourseAggregator) allPrerequisitesDone(userID, courseID, clientID uint, rows []courseModels.CoursePrerequisite) (bool, error) {
	for _, row := range rows {
		var count int64
		err := a.db.Model(&courseModels.PrerequisiteCompletion{}).
			Where("user_id = ? AND course_id = ? AND client_id = ? AND prerequisite_id = ? AND prerequisite_type = ? AND is_completed = ?",
				userID, courseID, clientID, row.PrerequisiteID, row.PrerequisiteType, true).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (a *CourseAggregator) allModulesDone(userID, courseID, clientID uint, rows []courseModels.Module) (bool, error) {
	for _, row := range rows {
		var count int64
		err := a.db.Model(&courseModels.ModuleCompletion{}).
			Where("user_id = ? AND course_id = ? AND client_id = ? AND module_id = ? AND is_completed = ?",
				userID, courseID, clientID, row.ID, true).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (a *CourseAggregator) allPostRequisitesDone(userID, courseID, clientID uint, rows []courseModels.CoursePostRequisite) (bool, error) {
	for _, row := range rows {
		var count int64
		err := a.db.Model(&courseModels.PostRequisiteCompletion{}).
			Where("user_id = ? AND course_id = ? AND client_id = ? AND post_requisite_id = ? AND content_type = ? AND is_completed = ?",
				userID, courseID, clientID, row.ContentID, row.ContentType, true).
			Count(&count).Error
		if err != nil {
			return false, err
		}
		if count == 0 {
			return false, nil
		}
	}
	return true, nil
}

func (a *CourseAggregator) persist(userID, courseID, clientID uint, res CourseResult) error {
	var rec courseModels.CourseCompletion
	err := a.db.Where("user_id = ? AND course_id = ? AND client_id = ?",
		userID, courseID, clientID).First(&rec).Error
	if err == nil {
		if rec.IsCompleted {
			return nil
		}
		rec.CompletionPercentage = res.Percentage
		rec.IsCompleted = true
		rec.CompletedAt = completedAtOrNow(nil)
		rec.PrerequisitesCompleted = res.PrerequisitesDone
		rec.ModulesCompleted = res.ModulesDone
		rec.PostRequisitesCompleted = res.PostRequisitesDone
		return a.db.Save(&rec).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now()
	rec = courseModels.CourseCompletion{
		UserID:                  userID,
		CourseID:                courseID,
		ClientID:                clientID,
		CompletionPercentage:    res.Percentage,
		IsCompleted:             true,
		CompletedAt:             &now,
		PrerequisitesCompleted:  res.PrerequisitesDone,
		ModulesCompleted:        res.ModulesDone,
		PostRequisitesCompleted: res.PostRequisitesDone,
	}
	return a.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error
}
