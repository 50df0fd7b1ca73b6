package controllers

import (
	"lms/completion"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreatePrerequisite registers content a learner must finish before the course
// modules count toward completion
func AdminCreatePrerequisite(c *fiber.Ctx) error {
	clientID, ok := c.Locals("clientId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedPrerequisite").(*struct {
		PrerequisiteID   uint   `json:"prerequisite_id"`
		PrerequisiteType string `json:"prerequisite_type"`
		Title            string `json:"title"`
		OrderIndex       int    `json:"order_index"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	// Reject duplicates for the same content
	var existing courseModels.CoursePrerequisite
	if err := database.Database.Db.Where("course_id = ? AND prerequisite_id = ? AND prerequisite_type = ? AND client_id = ? AND is_deleted = ?",
		courseID, reqData.PrerequisiteID, reqData.PrerequisiteType, clientID, false).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Prerequisite already registered!", nil)
	}

	prereq := courseModels.CoursePrerequisite{
		ClientID:         clientID,
		CourseID:         uint(courseID),
		PrerequisiteID:   reqData.PrerequisiteID,
		PrerequisiteType: reqData.PrerequisiteType,
		Title:            reqData.Title,
		OrderIndex:       reqData.OrderIndex,
	}

	if err := database.Database.Db.Create(&prereq).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create prerequisite!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Prerequisite created successfully!", prereq)
}

// AdminCreatePostRequisite registers an assessment, assignment, survey, or feedback
// form required after the course modules
func AdminCreatePostRequisite(c *fiber.Ctx) error {
	clientID, ok := c.Locals("clientId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)

	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	reqData, ok := c.Locals("validatedPostRequisite").(*struct {
		ContentID   uint   `json:"content_id"`
		ContentType string `json:"content_type"`
		Title       string `json:"title"`
		OrderIndex  int    `json:"order_index"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	postReq := courseModels.CoursePostRequisite{
		ClientID:    clientID,
		CourseID:    uint(courseID),
		ContentID:   reqData.ContentID,
		ContentType: reqData.ContentType,
		Title:       reqData.Title,
		OrderIndex:  reqData.OrderIndex,
	}

	if err := database.Database.Db.Create(&postReq).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create post-requisite!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Post-requisite created successfully!", postReq)
}

// AdminRecalculateCompletions re-derives completion state for one learner on one
// course. Maintenance entry point after content edits or data fixes.
func AdminRecalculateCompletions(c *fiber.Ctx) error {
	clientID, ok := c.Locals("clientId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	targetUserID := c.Locals("targetUserID").(int)

	engine := completion.NewEngine(database.Database.Db)
	if err := engine.RecalculateCourseCompletions(uint(targetUserID), uint(courseID), clientID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Recalculation finished with errors!", fiber.Map{
			"error": err.Error(),
		})
	}

	status, err := engine.GetCourseCompletionStatus(uint(targetUserID), uint(courseID), clientID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch completion status!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Completions recalculated successfully!", status)
}
