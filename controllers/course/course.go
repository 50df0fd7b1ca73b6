package controllers

import (
	"log"

	"lms/completion"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
)

// CourseList returns the published courses for the caller's client with pagination.
func CourseList(c *fiber.Ctx) error {
	_, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	db := database.Database.Db
	query := db.Model(&courseModels.Course{}).
		Where("client_id = ? AND is_published = ? AND is_deleted = ?", clientID, true, false)

	if categoryID := c.QueryInt("category_id", 0); categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	var courses []courseModels.Course
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// CourseDetail returns one course with its modules, content items, prerequisites
// and post-requisites, plus the caller's enrollment if any.
func CourseDetail(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)
	courseID := c.Locals("courseID").(int)

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var modules []courseModels.Module
	db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Order("order_index ASC").Find(&modules)

	type moduleWithContent struct {
		Module   courseModels.Module          `json:"module"`
		Contents []courseModels.CourseContent `json:"contents"`
	}
	moduleList := make([]moduleWithContent, 0, len(modules))
	for _, m := range modules {
		var contents []courseModels.CourseContent
		db.Where("module_id = ? AND client_id = ? AND is_deleted = ?", m.ID, clientID, false).
			Find(&contents)
		moduleList = append(moduleList, moduleWithContent{Module: m, Contents: contents})
	}

	var prerequisites []courseModels.CoursePrerequisite
	db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&prerequisites)

	var postRequisites []courseModels.CoursePostRequisite
	db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Find(&postRequisites)

	var enrollment *courseModels.Enrollment
	var found courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND client_id = ? AND is_deleted = ?",
		userID, courseID, clientID, false).First(&found).Error; err == nil {
		enrollment = &found
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", fiber.Map{
		"course":          course,
		"modules":         moduleList,
		"prerequisites":   prerequisites,
		"post_requisites": postRequisites,
		"enrollment":      enrollment,
	})
}

// CourseContentList lists the modules and content items of a course with the
// caller's per-item completion flag, read straight from the raw progress tables.
func CourseContentList(c *fiber.Ctx) error {
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

	var modules []courseModels.Module
	db.Where("course_id = ? AND client_id = ? AND is_deleted = ?", courseID, clientID, false).
		Order("order_index ASC").Find(&modules)

	adapters := completion.NewRegistry(db)

	type contentWithState struct {
		Content     courseModels.CourseContent `json:"content"`
		IsCompleted bool                       `json:"is_completed"`
	}
	type moduleWithState struct {
		Module   courseModels.Module `json:"module"`
		Contents []contentWithState  `json:"contents"`
	}

	moduleList := make([]moduleWithState, 0, len(modules))
	for _, m := range modules {
		var contents []courseModels.CourseContent
		db.Where("module_id = ? AND client_id = ? AND is_deleted = ?", m.ID, clientID, false).
			Order("order_index ASC").Find(&contents)

		items := make([]contentWithState, 0, len(contents))
		for _, item := range contents {
			done := false
			if adapter, ok := adapters[completion.ContentType(item.ContentType)]; ok {
				progress, err := adapter.Check(userID, uint(courseID), item.ContentID, clientID)
				if err != nil {
					log.Printf("Error checking progress for content %d: %v", item.ContentID, err)
				} else {
					done = progress.Complete
				}
			}
			items = append(items, contentWithState{Content: item, IsCompleted: done})
		}
		moduleList = append(moduleList, moduleWithState{Module: m, Contents: items})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", moduleList)
}

// CategoryList returns the client's course categories.
func CategoryList(c *fiber.Ctx) error {
	_, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	clientID, _ := c.Locals("clientId").(uint)

	var categories []courseModels.Category
	if err := database.Database.Db.
		Where("client_id = ? AND is_deleted = ?", clientID, false).
		Order("name ASC").Find(&categories).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch categories!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Categories fetched successfully!", categories)
}
