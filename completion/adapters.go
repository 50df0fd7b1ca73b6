package completion

import (
	"errors"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Watched/read thresholds applied when the player has not set the completed flag
// itself.
const (
	videoWatchedThreshold  = 90.0
	audioListenedThreshold = 90.0
	documentReadThreshold  = 90.0
)

// ProgressAdapter answers "is this unit of content finished for this learner?" for
// one content type. A missing progress row is not an error; it just means not
// started. Callers treat adapter errors as fail-closed (not complete).
type ProgressAdapter interface {
	Check(userID, courseID, contentID, clientID uint) (Progress, error)
}

// Registry maps each content type to its adapter.
type Registry map[ContentType]ProgressAdapter

// NewRegistry builds one adapter per supported content type on top of db.
func NewRegistry(db *gorm.DB) Registry {
	return Registry{
		ContentVideo:        videoAdapter{db},
		ContentAudio:        audioAdapter{db},
		ContentDocument:     documentAdapter{db},
		ContentImage:        imageAdapter{db},
		ContentScorm:        scormAdapter{db},
		ContentAssessment:   assessmentAdapter{db},
		ContentAssignment:   assignmentAdapter{db},
		ContentExternalLink: externalLinkAdapter{db},
		ContentInteractive:  interactiveAdapter{db},
		ContentSurvey:       surveyAdapter{db},
		ContentFeedback:     feedbackAdapter{db},
		ContentCourse:       nestedCourseAdapter{db},
	}
}

type videoAdapter struct{ db *gorm.DB }

func (a videoAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.VideoProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	done := p.IsCompleted || p.WatchedPercent >= videoWatchedThreshold
	return Progress{Complete: done, CompletedAt: p.CompletedAt}, nil
}

type audioAdapter struct{ db *gorm.DB }

func (a audioAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.AudioProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	done := p.IsCompleted || p.ListenedPercent >= audioListenedThreshold
	return Progress{Complete: done, CompletedAt: p.CompletedAt}, nil
}

type documentAdapter struct{ db *gorm.DB }

func (a documentAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.DocumentProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	done := p.IsCompleted || p.ReadPercent >= documentReadThreshold
	return Progress{Complete: done, CompletedAt: p.CompletedAt}, nil
}

type imageAdapter struct{ db *gorm.DB }

func (a imageAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.ImageProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	at := p.CompletedAt
	if at == nil {
		at = p.ViewedAt
	}
	return Progress{Complete: p.IsViewed, CompletedAt: at}, nil
}

type scormAdapter struct{ db *gorm.DB }

func (a scormAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.ScormProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	done := p.LessonStatus == "completed" || p.LessonStatus == "passed"
	return Progress{Complete: done, CompletedAt: p.CompletedAt}, nil
}

type assessmentAdapter struct{ db *gorm.DB }

func (a assessmentAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.AssessmentProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{Complete: p.IsPassed, CompletedAt: p.CompletedAt}, nil
}

type assignmentAdapter struct{ db *gorm.DB }

func (a assignmentAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.AssignmentProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{Complete: p.IsCompleted, CompletedAt: p.CompletedAt}, nil
}

type externalLinkAdapter struct{ db *gorm.DB }

func (a externalLinkAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.ExternalLinkProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{Complete: p.IsCompleted, CompletedAt: p.CompletedAt}, nil
}

type interactiveAdapter struct{ db *gorm.DB }

func (a interactiveAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.InteractiveProgress
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{Complete: p.IsCompleted, CompletedAt: p.CompletedAt}, nil
}

// surveyAdapter treats a non-null completed_at as the completion signal.
type surveyAdapter struct{ db *gorm.DB }

func (a surveyAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.SurveyResponse
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{Complete: p.CompletedAt != nil, CompletedAt: p.CompletedAt}, nil
}

// feedbackAdapter treats a non-null completed_at as the completion signal.
type feedbackAdapter struct{ db *gorm.DB }

func (a feedbackAdapter) Check(userID, courseID, contentID, clientID uint) (Progress, error) {
	var p courseModels.FeedbackResponse
	err := a.db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, contentID, clientID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{Complete: p.CompletedAt != nil, CompletedAt: p.CompletedAt}, nil
}

// nestedCourseAdapter resolves completion of a course embedded as content: the
// content id is the child course id and the check reads its course completion rollup.
type nestedCourseAdapter struct{ db *gorm.DB }

func (a nestedCourseAdapter) Check(userID, _, contentID, clientID uint) (Progress, error) {
	var cc courseModels.CourseCompletion
	err := a.db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_completed = ?",
		userID, contentID, clientID, true).First(&cc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	return Progress{Complete: true, CompletedAt: cc.CompletedAt}, nil
}
