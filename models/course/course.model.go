package course

import "gorm.io/gorm"

// Category groups courses for browsing
type Category struct {
	gorm.Model
	ClientID    uint   `json:"client_id" gorm:"index;not null"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsDeleted   bool   `gorm:"default:false"`
}

// Course represents a course owned by a client
type Course struct {
	gorm.Model
	ClientID    uint   `json:"client_id" gorm:"index;not null"`
	CategoryID  *uint  `json:"category_id" gorm:"index"`
	Title       string `json:"title"`
	Description string `json:"description" gorm:"type:text"`
	ImageURL    string `json:"image_url"`
	IsPublished bool   `json:"is_published" gorm:"default:false"`
	IsDeleted   bool   `gorm:"default:false"`
}
