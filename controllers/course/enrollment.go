package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// EnrollInCourse enrolls the caller in a published course of their client.
func EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)
	courseID := c.Locals("courseID").(int)

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND client_id = ? AND is_published = ? AND is_deleted = ?",
		courseID, clientID, true, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var existing courseModels.Enrollment
	err := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_deleted = ?",
		userID, courseID, clientID, false).First(&existing).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Already enrolled in this course!", existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check enrollment!", nil)
	}

	enrollment := courseModels.Enrollment{
		UserID:   userID,
		CourseID: uint(courseID),
		ClientID: clientID,
		Status:   "ENROLLED",
	}
	if err := db.Create(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", enrollment)
}

// MyEnrollments lists the caller's enrollments with their course records.
func MyEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)

	db := database.Database.Db

	var enrollments []courseModels.Enrollment
	query := db.Where("user_id = ? AND client_id = ? AND is_deleted = ?", userID, clientID, false)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	type enrollmentWithCourse struct {
		Enrollment courseModels.Enrollment `json:"enrollment"`
		Course     courseModels.Course     `json:"course"`
	}
	list := make([]enrollmentWithCourse, 0, len(enrollments))
	for _, e := range enrollments {
		var course courseModels.Course
		if err := db.Where("id = ?", e.CourseID).First(&course).Error; err != nil {
			continue
		}
		list = append(list, enrollmentWithCourse{Enrollment: e, Course: course})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", list)
}
