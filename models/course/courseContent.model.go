package course

import "gorm.io/gorm"

// CourseContent represents one content item inside a module. The row carries its own
// primary key and a ContentID pointing at the underlying content entity (video, scorm
// package, assessment, ...). Older integrations address the item by either key, so
// membership lookups must accept both.
type CourseContent struct {
	gorm.Model
	ClientID    uint   `json:"client_id" gorm:"index;not null"`
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	ModuleID    uint   `json:"module_id" gorm:"index;not null"`
	ContentID   uint   `json:"content_id" gorm:"index;not null"`
	ContentType string `json:"content_type" gorm:"default:'video'"` // see completion.ContentType
	Title       string `json:"title"`
	Description string `json:"description"`
	// no column defaults on the flags: gorm drops zero values for defaulted
	// columns on insert, which would turn is_required=false into true
	IsRequired  bool   `json:"is_required"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsPublished bool   `json:"is_published"`
	IsDeleted   bool   `gorm:"default:false"`
}

// CoursePrerequisite is content a learner must finish before course modules count.
// PrerequisiteID points at the underlying content entity; legacy callers sometimes
// address the row by its own primary key instead.
type CoursePrerequisite struct {
	gorm.Model
	ClientID         uint   `json:"client_id" gorm:"index;not null"`
	CourseID         uint   `json:"course_id" gorm:"index;not null"`
	PrerequisiteID   uint   `json:"prerequisite_id" gorm:"index;not null"`
	PrerequisiteType string `json:"prerequisite_type" gorm:"not null"`
	Title            string `json:"title"`
	OrderIndex       int    `json:"order_index" gorm:"default:0"`
	IsDeleted        bool   `gorm:"default:false"`
}

// CoursePostRequisite is content (assessment, assignment, survey, feedback) required
// after the course modules.
type CoursePostRequisite struct {
	gorm.Model
	ClientID    uint   `json:"client_id" gorm:"index;not null"`
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	ContentID   uint   `json:"content_id" gorm:"index;not null"`
	ContentType string `json:"content_type" gorm:"not null"`
	Title       string `json:"title"`
	OrderIndex  int    `json:"order_index" gorm:"default:0"`
	IsDeleted   bool   `gorm:"default:false"`
}
