package controllers

import (
	"log"

	"lms/completion"
	"lms/database"
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetCourseCompletionStatus returns the caller's full completion picture for a
// course: overall percentage plus per-prerequisite, per-module and
// per-post-requisite state. Read-only, nothing is persisted.
func GetCourseCompletionStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)
	courseID := c.Locals("courseID").(int)

	engine := completion.NewEngine(database.Database.Db)
	status, err := engine.GetCourseCompletionStatus(userID, uint(courseID), clientID)
	if err != nil {
		log.Printf("Error computing completion status for user %d course %d: %v", userID, courseID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to compute completion status!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Completion status fetched successfully!", status)
}

// StartTracking records that the learner opened a prerequisite, module or
// post-requisite. Only refreshes last-accessed on records that already exist.
func StartTracking(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)
	courseID := c.Locals("courseID").(int)

	reqData := new(struct {
		EntityID   uint   `json:"entity_id"`
		EntityType string `json:"entity_type"` // prerequisite, module, post_requisite
	})
	if err := c.BodyParser(reqData); err != nil || reqData.EntityID == 0 || reqData.EntityType == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	engine := completion.NewEngine(database.Database.Db)
	if err := engine.StartTracking(userID, uint(courseID), reqData.EntityID, reqData.EntityType, clientID); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to start tracking!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Tracking updated successfully!", nil)
}
