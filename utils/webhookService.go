package utils

import (
	"log"
	"time"

	"lms/database"
	"lms/models"

	"github.com/go-resty/resty/v2"
)

// CourseCompletionEvent is the payload sent to a client's webhook when one of its
// learners completes a course.
type CourseCompletionEvent struct {
	Event       string    `json:"event"`
	UserID      uint      `json:"user_id"`
	CourseID    uint      `json:"course_id"`
	ClientID    uint      `json:"client_id"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completed_at"`
}

// NotifyCourseCompletion posts a course-completion event to the client's configured
// webhook URL. Clients without a webhook are skipped silently.
func NotifyCourseCompletion(clientID, userID, courseID uint, percentage float64) {
	var client models.Client
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", clientID, false).First(&client).Error; err != nil {
		log.Printf("[WEBHOOK] client %d not found: %v", clientID, err)
		return
	}
	if client.WebhookURL == "" || !client.IsActive {
		return
	}

	payload := CourseCompletionEvent{
		Event:       "course.completed",
		UserID:      userID,
		CourseID:    courseID,
		ClientID:    clientID,
		Percentage:  percentage,
		CompletedAt: time.Now(),
	}

	resp, err := resty.New().
		SetTimeout(10 * time.Second).
		R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(client.WebhookURL)
	if err != nil {
		log.Printf("[WEBHOOK] delivery to client %d failed: %v", clientID, err)
		return
	}
	if resp.IsError() {
		log.Printf("[WEBHOOK] client %d responded %d", clientID, resp.StatusCode())
	}
}
