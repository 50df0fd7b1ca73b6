package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequestCertificate lets a learner request a certificate once their course
// completion record says the course is done.
func RequestCertificate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)
	courseID := c.Locals("courseID").(int)

	db := database.Database.Db

	var enrollment courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_deleted = ?",
		userID, courseID, clientID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Please enroll in this course first!", nil)
	}

	var courseCompletion courseModels.CourseCompletion
	err := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_completed = ?",
		userID, courseID, clientID, true).First(&courseCompletion).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course is not completed yet!", nil)
	}

	var existing courseModels.CertificateRequest
	err = db.Where("user_id = ? AND course_id = ? AND client_id = ? AND status IN ? AND is_deleted = ?",
		userID, courseID, clientID, []string{"PENDING", "APPROVED"}, false).First(&existing).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate request already exists!", existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check certificate requests!", nil)
	}

	request := courseModels.CertificateRequest{
		UserID:       userID,
		CourseID:     uint(courseID),
		ClientID:     clientID,
		EnrollmentID: enrollment.ID,
		Status:       "PENDING",
		RequestedAt:  time.Now(),
	}
	if err := db.Create(&request).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create certificate request!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate request submitted successfully!", request)
}

// MyCertificates lists the caller's issued certificates.
func MyCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)

	var certificates []courseModels.Certificate
	if err := database.Database.Db.
		Where("user_id = ? AND client_id = ? AND is_deleted = ?", userID, clientID, false).
		Order("issued_at DESC").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certificates)
}

// AdminListCertificateRequests lists certificate requests for the admin's client,
// optionally filtered by status.
func AdminListCertificateRequests(c *fiber.Ctx) error {
	clientID, _ := c.Locals("clientId").(uint)

	var requests []courseModels.CertificateRequest
	query := database.Database.Db.Where("client_id = ? AND is_deleted = ?", clientID, false)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("requested_at DESC").Find(&requests).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate requests!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate requests fetched successfully!", requests)
}

// AdminApproveCertificateRequest approves a pending request and issues the certificate.
func AdminApproveCertificateRequest(c *fiber.Ctx) error {
	adminID, _ := c.Locals("userId").(uint)
	clientID, _ := c.Locals("clientId").(uint)
	requestID := c.Locals("requestID").(int)

	db := database.Database.Db

	var request courseModels.CertificateRequest
	if err := db.Where("id = ? AND client_id = ? AND is_deleted = ?", requestID, clientID, false).
		First(&request).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate request not found!", nil)
	}
	if request.Status != "PENDING" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate request is not pending!", nil)
	}

	now := time.Now()
	certificate := courseModels.Certificate{
		UserID:            request.UserID,
		CourseID:          request.CourseID,
		ClientID:          clientID,
		CertificateNumber: utils.GenerateCertificateNumber(),
		IssuedAt:          now,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&certificate).Error; err != nil {
			return err
		}
		request.Status = "APPROVED"
		request.ApprovedAt = &now
		request.ApprovedBy = &adminID
		return tx.Save(&request).Error
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to approve certificate request!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate issued successfully!", certificate)
}

// AdminRejectCertificateRequest rejects a pending request with a reason.
func AdminRejectCertificateRequest(c *fiber.Ctx) error {
	clientID, _ := c.Locals("clientId").(uint)
	requestID := c.Locals("requestID").(int)

	reqData := new(struct {
		Reason string `json:"reason"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var request courseModels.CertificateRequest
	if err := db.Where("id = ? AND client_id = ? AND is_deleted = ?", requestID, clientID, false).
		First(&request).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate request not found!", nil)
	}
	if request.Status != "PENDING" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Certificate request is not pending!", nil)
	}

	request.Status = "REJECTED"
	request.RejectionReason = reqData.Reason
	if err := db.Save(&request).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reject certificate request!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate request rejected successfully!", request)
}
