package controllers

import (
	"errors"
	"log"
	"time"

	"lms/completion"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Progress reporting endpoints. Each handler upserts the raw progress row for its
// content family and, when the unit is finished, hands the event to the completion
// engine which propagates it to prerequisite/module/post-requisite/course state.

// propagateCompletion runs the engine for one finished content item and applies the
// controller-level side effects when the course just flipped to completed.
func propagateCompletion(userID, courseID, contentID uint, contentType completion.ContentType, clientID uint) {
	db := database.Database.Db

	var before courseModels.CourseCompletion
	wasCompleted := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_completed = ?",
		userID, courseID, clientID, true).First(&before).Error == nil

	engine := completion.NewEngine(db)
	if err := engine.HandleContentCompletion(userID, courseID, contentID, contentType, clientID); err != nil {
		log.Printf("Completion propagation finished with errors for user %d content %d: %v", userID, contentID, err)
	}

	markEnrollmentInProgress(userID, courseID, clientID)

	if wasCompleted {
		return
	}
	var after courseModels.CourseCompletion
	if err := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_completed = ?",
		userID, courseID, clientID, true).First(&after).Error; err != nil {
		return
	}

	// the course just completed
	markEnrollmentCompleted(userID, courseID, clientID)

	var user models.User
	var course courseModels.Course
	if db.Where("id = ?", userID).First(&user).Error == nil &&
		db.Where("id = ?", courseID).First(&course).Error == nil && user.Email != "" {
		if err := utils.SendCourseCompletionEmail(user.Email, user.Name, course.Title); err != nil {
			log.Printf("Error sending completion email to user %d: %v", userID, err)
		}
	}

	go utils.NotifyCourseCompletion(clientID, userID, courseID, after.CompletionPercentage)
}

func markEnrollmentInProgress(userID, courseID, clientID uint) {
	db := database.Database.Db
	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_deleted = ?",
		userID, courseID, clientID, false).First(&enrollment).Error; err != nil {
		return
	}
	if enrollment.Status == "ENROLLED" {
		enrollment.Status = "IN_PROGRESS"
		db.Save(&enrollment)
	}
}

func markEnrollmentCompleted(userID, courseID, clientID uint) {
	db := database.Database.Db
	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_deleted = ?",
		userID, courseID, clientID, false).First(&enrollment).Error; err != nil {
		return
	}
	if enrollment.Status != "COMPLETED" {
		now := time.Now()
		enrollment.Status = "COMPLETED"
		enrollment.CompletedAt = &now
		db.Save(&enrollment)
	}
}

// requireEnrollment loads the caller's identifiers and checks enrollment. When it
// returns ok=false the error response is already written and the handler must stop;
// JsonResponse returns nil on a successful write, so its error cannot signal failure.
func requireEnrollment(c *fiber.Ctx) (userID, clientID uint, courseID int, ok bool) {
	userID, valid := c.Locals("userId").(uint)
	if !valid {
		_ = middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
		return 0, 0, 0, false
	}
	clientID, _ = c.Locals("clientId").(uint)
	courseID = c.Locals("courseID").(int)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_deleted = ?",
		userID, courseID, clientID, false).First(&enrollment).Error; err != nil {
		_ = middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
		return 0, 0, 0, false
	}
	return userID, clientID, courseID, true
}

// ReportVideoProgress upserts the learner's video progress and propagates completion
// once the watched threshold is crossed
func ReportVideoProgress(c *fiber.Ctx) error {
	userID, clientID, courseID, ok := requireEnrollment(c)
	if !ok {
		return nil
	}

	reqData := new(struct {
		ContentID      uint    `json:"content_id"`
		WatchedPercent float64 `json:"watched_percent"`
		Completed      bool    `json:"completed"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.ContentID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db
	var progress courseModels.VideoProgress
	dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, reqData.ContentID, clientID).First(&progress).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		now := time.Now()
		progress = courseModels.VideoProgress{
			UserID:    userID,
			CourseID:  uint(courseID),
			ContentID: reqData.ContentID,
			ClientID:  clientID,
			StartedAt: &now,
		}
	} else if dbErr != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
	}

	// watched percent never regresses
	if reqData.WatchedPercent > progress.WatchedPercent {
		progress.WatchedPercent = reqData.WatchedPercent
	}
	wasCompleted := progress.IsCompleted
	if reqData.Completed || progress.WatchedPercent >= 100 {
		progress.IsCompleted = true
	}
	if progress.IsCompleted && progress.CompletedAt == nil {
		now := time.Now()
		progress.CompletedAt = &now
	}

	if err := db.Save(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
	}

	if progress.IsCompleted && !wasCompleted {
		propagateCompletion(userID, uint(courseID), reqData.ContentID, completion.ContentVideo, clientID)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress saved successfully!", progress)
}

// ReportScormStatus records the SCORM runtime's lesson status for a package
func ReportScormStatus(c *fiber.Ctx) error {
	userID, clientID, courseID, ok := requireEnrollment(c)
	if !ok {
		return nil
	}

	reqData := new(struct {
		ContentID    uint    `json:"content_id"`
		LessonStatus string  `json:"lesson_status"`
		Score        float64 `json:"score"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.ContentID == 0 || reqData.LessonStatus == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db
	var progress courseModels.ScormProgress
	dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, reqData.ContentID, clientID).First(&progress).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		now := time.Now()
		progress = courseModels.ScormProgress{
			UserID:    userID,
			CourseID:  uint(courseID),
			ContentID: reqData.ContentID,
			ClientID:  clientID,
			StartedAt: &now,
		}
	} else if dbErr != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
	}

	wasDone := progress.LessonStatus == "completed" || progress.LessonStatus == "passed"
	progress.LessonStatus = reqData.LessonStatus
	if reqData.Score > progress.Score {
		progress.Score = reqData.Score
	}
	isDone := progress.LessonStatus == "completed" || progress.LessonStatus == "passed"
	if isDone && progress.CompletedAt == nil {
		now := time.Now()
		progress.CompletedAt = &now
	}

	if err := db.Save(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
	}

	if isDone && !wasDone {
		propagateCompletion(userID, uint(courseID), reqData.ContentID, completion.ContentScorm, clientID)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "SCORM status saved successfully!", progress)
}

// SubmitAssessmentResult records an assessment attempt
func SubmitAssessmentResult(c *fiber.Ctx) error {
	userID, clientID, courseID, ok := requireEnrollment(c)
	if !ok {
		return nil
	}

	reqData := new(struct {
		ContentID uint    `json:"content_id"`
		Score     float64 `json:"score"`
		Passed    bool    `json:"passed"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.ContentID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db
	var progress courseModels.AssessmentProgress
	dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, reqData.ContentID, clientID).First(&progress).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		now := time.Now()
		progress = courseModels.AssessmentProgress{
			UserID:    userID,
			CourseID:  uint(courseID),
			ContentID: reqData.ContentID,
			ClientID:  clientID,
			StartedAt: &now,
		}
	} else if dbErr != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
	}

	progress.Attempts++
	if reqData.Score > progress.Score {
		progress.Score = reqData.Score
	}
	wasPassed := progress.IsPassed
	if reqData.Passed {
		progress.IsPassed = true
		if progress.CompletedAt == nil {
			now := time.Now()
			progress.CompletedAt = &now
		}
	}

	if err := db.Save(&progress).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save assessment result!", nil)
	}

	if progress.IsPassed && !wasPassed {
		propagateCompletion(userID, uint(courseID), reqData.ContentID, completion.ContentAssessment, clientID)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Assessment result saved successfully!", progress)
}

// SubmitSurvey marks a survey response as completed
func SubmitSurvey(c *fiber.Ctx) error {
	return submitResponse(c, completion.ContentSurvey)
}

// SubmitFeedback marks a feedback response as completed
func SubmitFeedback(c *fiber.Ctx) error {
	return submitResponse(c, completion.ContentFeedback)
}

// submitResponse handles the shared survey/feedback flow: both are complete the
// moment completed_at is set on the response row
func submitResponse(c *fiber.Ctx, contentType completion.ContentType) error {
	userID, clientID, courseID, ok := requireEnrollment(c)
	if !ok {
		return nil
	}

	reqData := new(struct {
		ContentID uint `json:"content_id"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.ContentID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db
	now := time.Now()

	if contentType == completion.ContentSurvey {
		var resp courseModels.SurveyResponse
		dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
			userID, courseID, reqData.ContentID, clientID).First(&resp).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			resp = courseModels.SurveyResponse{
				UserID:    userID,
				CourseID:  uint(courseID),
				ContentID: reqData.ContentID,
				ClientID:  clientID,
				StartedAt: &now,
			}
		} else if dbErr != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read response!", nil)
		}
		alreadyDone := resp.CompletedAt != nil
		if !alreadyDone {
			resp.CompletedAt = &now
		}
		if err := db.Save(&resp).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save response!", nil)
		}
		if !alreadyDone {
			propagateCompletion(userID, uint(courseID), reqData.ContentID, contentType, clientID)
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Survey submitted successfully!", resp)
	}

	var resp courseModels.FeedbackResponse
	dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
		userID, courseID, reqData.ContentID, clientID).First(&resp).Error
	if errors.Is(dbErr, gorm.ErrRecordNotFound) {
		resp = courseModels.FeedbackResponse{
			UserID:    userID,
			CourseID:  uint(courseID),
			ContentID: reqData.ContentID,
			ClientID:  clientID,
			StartedAt: &now,
		}
	} else if dbErr != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read response!", nil)
	}
	alreadyDone := resp.CompletedAt != nil
	if !alreadyDone {
		resp.CompletedAt = &now
	}
	if err := db.Save(&resp).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save response!", nil)
	}
	if !alreadyDone {
		propagateCompletion(userID, uint(courseID), reqData.ContentID, contentType, clientID)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Feedback submitted successfully!", resp)
}

// MarkContentComplete is the generic completion entry for content families without
// richer progress signals (document, image, external link, interactive, audio,
// assignment). It sets the family's completion flag and propagates.
func MarkContentComplete(c *fiber.Ctx) error {
	userID, clientID, courseID, ok := requireEnrollment(c)
	if !ok {
		return nil
	}

	reqData := new(struct {
		ContentID   uint   `json:"content_id"`
		ContentType string `json:"content_type"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.ContentID == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db
	now := time.Now()
	contentType := completion.ContentType(reqData.ContentType)
	var alreadyDone bool

	switch contentType {
	case completion.ContentAudio:
		var p courseModels.AudioProgress
		dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
			userID, courseID, reqData.ContentID, clientID).First(&p).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			p = courseModels.AudioProgress{UserID: userID, CourseID: uint(courseID), ContentID: reqData.ContentID, ClientID: clientID, StartedAt: &now}
		} else if dbErr != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
		}
		alreadyDone = p.IsCompleted
		p.IsCompleted = true
		p.ListenedPercent = 100
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		if err := db.Save(&p).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	case completion.ContentDocument:
		var p courseModels.DocumentProgress
		dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
			userID, courseID, reqData.ContentID, clientID).First(&p).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			p = courseModels.DocumentProgress{UserID: userID, CourseID: uint(courseID), ContentID: reqData.ContentID, ClientID: clientID, StartedAt: &now}
		} else if dbErr != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
		}
		alreadyDone = p.IsCompleted
		p.IsCompleted = true
		p.ReadPercent = 100
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		if err := db.Save(&p).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	case completion.ContentImage:
		var p courseModels.ImageProgress
		dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
			userID, courseID, reqData.ContentID, clientID).First(&p).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			p = courseModels.ImageProgress{UserID: userID, CourseID: uint(courseID), ContentID: reqData.ContentID, ClientID: clientID}
		} else if dbErr != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
		}
		alreadyDone = p.IsViewed
		p.IsViewed = true
		if p.ViewedAt == nil {
			p.ViewedAt = &now
		}
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		if err := db.Save(&p).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	case completion.ContentExternalLink:
		var p courseModels.ExternalLinkProgress
		dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
			userID, courseID, reqData.ContentID, clientID).First(&p).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			p = courseModels.ExternalLinkProgress{UserID: userID, CourseID: uint(courseID), ContentID: reqData.ContentID, ClientID: clientID, OpenedAt: &now}
		} else if dbErr != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
		}
		alreadyDone = p.IsCompleted
		p.IsCompleted = true
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		if err := db.Save(&p).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	case completion.ContentInteractive:
		var p courseModels.InteractiveProgress
		dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
			userID, courseID, reqData.ContentID, clientID).First(&p).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			p = courseModels.InteractiveProgress{UserID: userID, CourseID: uint(courseID), ContentID: reqData.ContentID, ClientID: clientID, StartedAt: &now}
		} else if dbErr != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
		}
		alreadyDone = p.IsCompleted
		p.IsCompleted = true
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		if err := db.Save(&p).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	case completion.ContentAssignment:
		var p courseModels.AssignmentProgress
		dbErr := db.Where("user_id = ? AND course_id = ? AND content_id = ? AND client_id = ?",
			userID, courseID, reqData.ContentID, clientID).First(&p).Error
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			p = courseModels.AssignmentProgress{UserID: userID, CourseID: uint(courseID), ContentID: reqData.ContentID, ClientID: clientID}
		} else if dbErr != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read progress!", nil)
		}
		alreadyDone = p.IsCompleted
		p.IsSubmitted = true
		p.IsCompleted = true
		if p.SubmittedAt == nil {
			p.SubmittedAt = &now
		}
		if p.CompletedAt == nil {
			p.CompletedAt = &now
		}
		if err := db.Save(&p).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
		}
	default:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unsupported content type!", nil)
	}

	if !alreadyDone {
		propagateCompletion(userID, uint(courseID), reqData.ContentID, contentType, clientID)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content marked as completed successfully!", nil)
}
