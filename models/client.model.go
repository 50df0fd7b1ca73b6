package models

import "gorm.io/gorm"

// Client represents a tenant organization; every course and completion row is scoped
// to one client.
type Client struct {
	gorm.Model
	Name         string `json:"name" gorm:"not null"`
	ContactEmail string `json:"contact_email"`
	WebhookURL   string `json:"webhook_url"` // receives course-completion notifications when set
	IsActive     bool   `json:"is_active"`
	IsDeleted    bool   `gorm:"default:false"`
}
