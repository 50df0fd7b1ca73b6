package completion

import (
	"errors"
	"fmt"
	"log"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Engine is the propagation orchestrator. Given one content-completion event it
// decides which trackers are affected, runs them in a fixed order, and refreshes the
// course rollup. Each step is fault-tolerant: a failure is logged and the remaining
// steps still run.
type Engine struct {
	db             *gorm.DB
	adapters       Registry
	prerequisites  *PrerequisiteTracker
	modules        *ModuleTracker
	postRequisites *PostRequisiteTracker
	aggregator     *CourseAggregator
}

func NewEngine(db *gorm.DB) *Engine {
	adapters := NewRegistry(db)
	return &Engine{
		db:             db,
		adapters:       adapters,
		prerequisites:  NewPrerequisiteTracker(db, adapters),
		modules:        NewModuleTracker(db, adapters),
		postRequisites: NewPostRequisiteTracker(db, adapters),
		aggregator:     NewCourseAggregator(db),
	}
}

// Aggregator exposes the course rollup for read paths.
func (e *Engine) Aggregator() *CourseAggregator {
	return e.aggregator
}

// HandleContentCompletion propagates one finished content item through the
// completion chain:
//
//  1. if the item is a course prerequisite, update prerequisite completion
//  2. if the item is a post-requisite, update post-requisite completion
//  3. if the item is NOT a prerequisite, update its owning module; a prerequisite
//     must never also drive a module completion from the same event
//  4. refresh the course rollup
//
// The returned error joins whatever step errors occurred; a non-nil error still
// means every step was attempted.
func (e *Engine) HandleContentCompletion(userID, courseID, contentID uint, contentType ContentType, clientID uint) error {
	var stepErrs []error

	// 1. prerequisite
	isPrerequisite := false
	prereq, err := e.findPrerequisite(courseID, contentID, contentType, clientID)
	if err != nil {
		log.Printf("[COMPLETION] prerequisite lookup failed for content %d: %v", contentID, err)
		stepErrs = append(stepErrs, err)
	} else if prereq != nil {
		isPrerequisite = true
		done, err := e.prerequisites.IsCompleted(userID, courseID, prereq.PrerequisiteID, ContentType(prereq.PrerequisiteType), clientID)
		if err != nil {
			log.Printf("[COMPLETION] prerequisite completion check failed for content %d: %v", contentID, err)
			stepErrs = append(stepErrs, err)
		} else if !done {
			if _, err := e.prerequisites.UpdateFromProgress(userID, courseID, prereq.PrerequisiteID, ContentType(prereq.PrerequisiteType), clientID); err != nil {
				log.Printf("[COMPLETION] prerequisite update failed for content %d: %v", contentID, err)
				stepErrs = append(stepErrs, err)
			}
		}
	}

	// 2. post-requisite
	postReq, err := e.findPostRequisite(courseID, contentID, contentType, clientID)
	if err != nil {
		log.Printf("[COMPLETION] post-requisite lookup failed for content %d: %v", contentID, err)
		stepErrs = append(stepErrs, err)
	} else if postReq != nil {
		done, err := e.postRequisites.IsCompleted(userID, courseID, postReq.ContentID, ContentType(postReq.ContentType), clientID)
		if err != nil {
			log.Printf("[COMPLETION] post-requisite completion check failed for content %d: %v", contentID, err)
			stepErrs = append(stepErrs, err)
		} else if !done {
			if _, err := e.postRequisites.UpdateFromProgress(userID, courseID, postReq.ContentID, ContentType(postReq.ContentType), clientID); err != nil {
				log.Printf("[COMPLETION] post-requisite update failed for content %d: %v", contentID, err)
				stepErrs = append(stepErrs, err)
			}
		}
	}

	// 3. module, unless the item already counted as a prerequisite
	if !isPrerequisite {
		content, err := e.findModuleContent(courseID, contentID, clientID)
		if err != nil {
			log.Printf("[COMPLETION] module membership lookup failed for content %d: %v", contentID, err)
			stepErrs = append(stepErrs, err)
		} else if content != nil {
			lastContentID := content.ContentID
			if _, err := e.modules.UpdateFromContent(userID, courseID, content.ModuleID, clientID, &lastContentID); err != nil {
				log.Printf("[COMPLETION] module update failed for module %d: %v", content.ModuleID, err)
				stepErrs = append(stepErrs, err)
			}
		}
	}

	// 4. course rollup, always
	if _, err := e.aggregator.Recompute(userID, courseID, clientID); err != nil {
		log.Printf("[COMPLETION] course aggregation failed for course %d: %v", courseID, err)
		stepErrs = append(stepErrs, err)
	}

	return errors.Join(stepErrs...)
}

// RecalculateCourseCompletions re-derives every prerequisite, module, and
// post-requisite completion for the course from the raw progress data, then
// re-aggregates. For a fixed progress snapshot it lands on the same state as the
// event-driven path.
func (e *Engine) RecalculateCourseCompletions(userID, courseID, clientID uint) error {
	var stepErrs []error

	var prereqs []courseModels.CoursePrerequisite
	if err := e.db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&prereqs).Error; err != nil {
		stepErrs = append(stepErrs, err)
	} else {
		for _, row := range prereqs {
			if _, err := e.prerequisites.UpdateFromProgress(userID, courseID, row.PrerequisiteID, ContentType(row.PrerequisiteType), clientID); err != nil {
				log.Printf("[COMPLETION] recalculate: prerequisite %d failed: %v", row.PrerequisiteID, err)
				stepErrs = append(stepErrs, err)
			}
		}
	}

	var modules []courseModels.Module
	if err := e.db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&modules).Error; err != nil {
		stepErrs = append(stepErrs, err)
	} else {
		for _, m := range modules {
			if _, err := e.modules.UpdateFromContent(userID, courseID, m.ID, clientID, nil); err != nil {
				log.Printf("[COMPLETION] recalculate: module %d failed: %v", m.ID, err)
				stepErrs = append(stepErrs, err)
			}
		}
	}

	var postReqs []courseModels.CoursePostRequisite
	if err := e.db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&postReqs).Error; err != nil {
		stepErrs = append(stepErrs, err)
	} else {
		for _, row := range postReqs {
			if _, err := e.postRequisites.UpdateFromProgress(userID, courseID, row.ContentID, ContentType(row.ContentType), clientID); err != nil {
				log.Printf("[COMPLETION] recalculate: post-requisite %d failed: %v", row.ContentID, err)
				stepErrs = append(stepErrs, err)
			}
		}
	}

	if _, err := e.aggregator.Recompute(userID, courseID, clientID); err != nil {
		log.Printf("[COMPLETION] recalculate: course aggregation failed for course %d: %v", courseID, err)
		stepErrs = append(stepErrs, err)
	}

	return errors.Join(stepErrs...)
}

// CourseCompletionStatus is the full completion picture for one learner and course.
type CourseCompletionStatus struct {
	Course         CourseResult                           `json:"course"`
	Prerequisites  []courseModels.PrerequisiteCompletion  `json:"prerequisites"`
	Modules        []courseModels.ModuleCompletion        `json:"modules"`
	PostRequisites []courseModels.PostRequisiteCompletion `json:"post_requisites"`
}

// GetCourseCompletionStatus returns the derived course state plus every persisted
// completion record. It never writes.
func (e *Engine) GetCourseCompletionStatus(userID, courseID, clientID uint) (*CourseCompletionStatus, error) {
	course, err := e.aggregator.Compute(userID, courseID, clientID)
	if err != nil {
		return nil, err
	}

	status := &CourseCompletionStatus{Course: course}
	if err := e.db.Where("user_id = ? AND course_id = ? AND client_id = ?", userID, courseID, clientID).
		Find(&status.Prerequisites).Error; err != nil {
		return nil, err
	}
	if err := e.db.Where("user_id = ? AND course_id = ? AND client_id = ?", userID, courseID, clientID).
		Find(&status.Modules).Error; err != nil {
		return nil, err
	}
	if err := e.db.Where("user_id = ? AND course_id = ? AND client_id = ?", userID, courseID, clientID).
		Find(&status.PostRequisites).Error; err != nil {
		return nil, err
	}
	return status, nil
}

// StartTracking refreshes last_accessed_at when a learner opens a prerequisite,
// module, or post-requisite. Completion records are only created at completion, so
// this is a no-op until the entity's record exists.
func (e *Engine) StartTracking(userID, courseID, entityID uint, entityType string, clientID uint) error {
	switch entityType {
	case EntityPrerequisite:
		return e.prerequisites.Touch(userID, courseID, entityID, clientID)
	case EntityModule:
		return e.modules.Touch(userID, courseID, entityID, clientID)
	case EntityPostRequisite:
		return e.postRequisites.Touch(userID, courseID, entityID, clientID)
	default:
		return fmt.Errorf("unknown tracking entity type %q", entityType)
	}
}

// findPrerequisite resolves a content item against course_prerequisites. Two keying
// conventions exist historically: the row's own primary key and the underlying
// prerequisite_id. The primary-key form wins when both match.
func (e *Engine) findPrerequisite(courseID, contentID uint, contentType ContentType, clientID uint) (*courseModels.CoursePrerequisite, error) {
	var row courseModels.CoursePrerequisite
	err := e.db.Where("course_id = ? AND id = ? AND prerequisite_type = ? AND client_id = ? AND is_deleted = ?",
		courseID, contentID, contentType, clientID, false).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = e.db.Where("course_id = ? AND prerequisite_id = ? AND prerequisite_type = ? AND client_id = ? AND is_deleted = ?",
		courseID, contentID, contentType, clientID, false).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// findPostRequisite resolves a content item against course_post_requisites by
// (content_id, content_type).
func (e *Engine) findPostRequisite(courseID, contentID uint, contentType ContentType, clientID uint) (*courseModels.CoursePostRequisite, error) {
	var row courseModels.CoursePostRequisite
	err := e.db.Where("course_id = ? AND content_id = ? AND content_type = ? AND client_id = ? AND is_deleted = ?",
		courseID, contentID, contentType, clientID, false).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// findModuleContent resolves the owning module for a content item, accepting both
// the membership row's primary key and the underlying content_id (legacy form),
// primary key first.
func (e *Engine) findModuleContent(courseID, contentID, clientID uint) (*courseModels.CourseContent, error) {
	var row courseModels.CourseContent
	err := e.db.Where("course_id = ? AND id = ? AND client_id = ? AND is_deleted = ?",
		courseID, contentID, clientID, false).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = e.db.Where("course_id = ? AND content_id = ? AND client_id = ? AND is_deleted = ?",
		courseID, contentID, clientID, false).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}
