package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.CourseContent{},
		&courseModels.CoursePrerequisite{},
		&courseModels.CoursePostRequisite{},
		&courseModels.Enrollment{},
		&courseModels.VideoProgress{},
		&courseModels.PrerequisiteCompletion{},
		&courseModels.ModuleCompletion{},
		&courseModels.PostRequisiteCompletion{},
		&courseModels.CourseCompletion{},
	))

	database.Database = database.DbInstance{Db: db}
	config.AppConfig = &config.Config{JWTKey: "test-secret", SaltRound: 4}

	app := fiber.New()
	app.Post("/course/:id/progress/video",
		middleware.JWTMiddleware, courseValidator.CourseParam(), ReportVideoProgress)
	app.Get("/course/:id/completion",
		middleware.JWTMiddleware, courseValidator.CourseParam(), GetCourseCompletionStatus)

	return app, db
}

func TestReportVideoProgressPropagatesToCourse(t *testing.T) {
	app, db := setupTestApp(t)

	user := models.User{Model: gorm.Model{ID: 1}, Name: "Test Learner", ClientID: 1}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&courseModels.Course{
		Model: gorm.Model{ID: 10}, ClientID: 1, Title: "Onboarding", IsPublished: true,
	}).Error)
	require.NoError(t, db.Create(&courseModels.Module{
		Model: gorm.Model{ID: 20}, ClientID: 1, CourseID: 10, Title: "Basics",
	}).Error)
	require.NoError(t, db.Create(&courseModels.CourseContent{
		Model: gorm.Model{ID: 30}, ClientID: 1, CourseID: 10, ModuleID: 20,
		ContentID: 100, ContentType: "video", IsRequired: true,
	}).Error)
	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID: 1, CourseID: 10, ClientID: 1, Status: "ENROLLED",
	}).Error)

	token, err := middleware.GenerateJWT(1, 1, user.Name, "LEARNER", user.Email)
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]interface{}{
		"content_id":      100,
		"watched_percent": 96.0,
		"completed":       true,
	})
	req := httptest.NewRequest(http.MethodPost, "/course/10/progress/video", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var progress courseModels.VideoProgress
	require.NoError(t, db.Where("user_id = ? AND content_id = ?", 1, 100).First(&progress).Error)
	assert.True(t, progress.IsCompleted)
	assert.NotNil(t, progress.CompletedAt)

	var moduleCompletion courseModels.ModuleCompletion
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 1, 20).First(&moduleCompletion).Error)
	assert.True(t, moduleCompletion.IsCompleted)

	var courseCompletion courseModels.CourseCompletion
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", 1, 10).First(&courseCompletion).Error)
	assert.True(t, courseCompletion.IsCompleted)
	assert.InDelta(t, 100.0, courseCompletion.CompletionPercentage, 0.001)

	var enrollment courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", 1, 10).First(&enrollment).Error)
	assert.Equal(t, "COMPLETED", enrollment.Status)
	assert.NotNil(t, enrollment.CompletedAt)
}

func TestReportVideoProgressRequiresEnrollment(t *testing.T) {
	app, db := setupTestApp(t)

	require.NoError(t, db.Create(&courseModels.Course{
		Model: gorm.Model{ID: 10}, ClientID: 1, Title: "Onboarding", IsPublished: true,
	}).Error)

	token, err := middleware.GenerateJWT(1, 1, "Test Learner", "LEARNER", "")
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]interface{}{
		"content_id":      100,
		"watched_percent": 50.0,
	})
	req := httptest.NewRequest(http.MethodPost, "/course/10/progress/video", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// the rejected request must not leave a progress row behind
	var count int64
	db.Model(&courseModels.VideoProgress{}).Count(&count)
	assert.Zero(t, count)
}

func TestGetCourseCompletionStatusIsReadOnly(t *testing.T) {
	app, db := setupTestApp(t)

	require.NoError(t, db.Create(&courseModels.Course{
		Model: gorm.Model{ID: 10}, ClientID: 1, Title: "Onboarding", IsPublished: true,
	}).Error)
	require.NoError(t, db.Create(&courseModels.Module{
		Model: gorm.Model{ID: 20}, ClientID: 1, CourseID: 10, Title: "Basics",
	}).Error)
	require.NoError(t, db.Create(&courseModels.CourseContent{
		Model: gorm.Model{ID: 30}, ClientID: 1, CourseID: 10, ModuleID: 20,
		ContentID: 100, ContentType: "video", IsRequired: true,
	}).Error)

	token, err := middleware.GenerateJWT(1, 1, "Test Learner", "LEARNER", "")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/course/10/completion", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var count int64
	db.Model(&courseModels.CourseCompletion{}).Count(&count)
	assert.Zero(t, count)
}
