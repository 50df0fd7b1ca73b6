package completion

import (
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&courseModels.Course{},
		&courseModels.Module{},
		&courseModels.CourseContent{},
		&courseModels.CoursePrerequisite{},
		&courseModels.CoursePostRequisite{},
		&courseModels.PrerequisiteCompletion{},
		&courseModels.ModuleCompletion{},
		&courseModels.PostRequisiteCompletion{},
		&courseModels.CourseCompletion{},
		&courseModels.VideoProgress{},
		&courseModels.AudioProgress{},
		&courseModels.DocumentProgress{},
		&courseModels.ImageProgress{},
		&courseModels.ScormProgress{},
		&courseModels.AssessmentProgress{},
		&courseModels.AssignmentProgress{},
		&courseModels.ExternalLinkProgress{},
		&courseModels.InteractiveProgress{},
		&courseModels.SurveyResponse{},
		&courseModels.FeedbackResponse{},
	))
	return db
}

const (
	testUser   = uint(1)
	testCourse = uint(1)
	testClient = uint(1)
)

func seedModule(t *testing.T, db *gorm.DB, moduleID uint) {
	t.Helper()
	m := courseModels.Module{
		Model:    gorm.Model{ID: moduleID},
		ClientID: testClient,
		CourseID: testCourse,
		Title:    "module",
	}
	require.NoError(t, db.Create(&m).Error)
}

// seedContent creates a module membership row with an explicit primary key so tests
// control both keying conventions.
func seedContent(t *testing.T, db *gorm.DB, rowID, moduleID, contentID uint, contentType ContentType, required bool) {
	t.Helper()
	c := courseModels.CourseContent{
		Model:       gorm.Model{ID: rowID},
		ClientID:    testClient,
		CourseID:    testCourse,
		ModuleID:    moduleID,
		ContentID:   contentID,
		ContentType: string(contentType),
		IsRequired:  required,
	}
	require.NoError(t, db.Create(&c).Error)
}

func seedPrerequisite(t *testing.T, db *gorm.DB, rowID, prerequisiteID uint, contentType ContentType) {
	t.Helper()
	p := courseModels.CoursePrerequisite{
		Model:            gorm.Model{ID: rowID},
		ClientID:         testClient,
		CourseID:         testCourse,
		PrerequisiteID:   prerequisiteID,
		PrerequisiteType: string(contentType),
	}
	require.NoError(t, db.Create(&p).Error)
}

func seedPostRequisite(t *testing.T, db *gorm.DB, rowID, contentID uint, contentType ContentType) {
	t.Helper()
	p := courseModels.CoursePostRequisite{
		Model:       gorm.Model{ID: rowID},
		ClientID:    testClient,
		CourseID:    testCourse,
		ContentID:   contentID,
		ContentType: string(contentType),
	}
	require.NoError(t, db.Create(&p).Error)
}

func seedVideoProgress(t *testing.T, db *gorm.DB, contentID uint, watched float64, completed bool) {
	t.Helper()
	var completedAt *time.Time
	if completed {
		at := time.Now().Add(-time.Hour)
		completedAt = &at
	}
	p := courseModels.VideoProgress{
		UserID:         testUser,
		CourseID:       testCourse,
		ContentID:      contentID,
		ClientID:       testClient,
		WatchedPercent: watched,
		IsCompleted:    completed,
		CompletedAt:    completedAt,
	}
	require.NoError(t, db.Create(&p).Error)
}

func seedAssessmentPassed(t *testing.T, db *gorm.DB, contentID uint) {
	t.Helper()
	at := time.Now().Add(-time.Minute)
	p := courseModels.AssessmentProgress{
		UserID:      testUser,
		CourseID:    testCourse,
		ContentID:   contentID,
		ClientID:    testClient,
		Score:       80,
		IsPassed:    true,
		CompletedAt: &at,
	}
	require.NoError(t, db.Create(&p).Error)
}

func seedSurveyResponse(t *testing.T, db *gorm.DB, contentID uint, completed bool) {
	t.Helper()
	p := courseModels.SurveyResponse{
		UserID:    testUser,
		CourseID:  testCourse,
		ContentID: contentID,
		ClientID:  testClient,
	}
	if completed {
		at := time.Now().Add(-time.Minute)
		p.CompletedAt = &at
	}
	require.NoError(t, db.Create(&p).Error)
}

// failingAdapter simulates an unreadable progress table.
type failingAdapter struct{ err error }

func (a failingAdapter) Check(_, _, _, _ uint) (Progress, error) {
	return Progress{}, a.err
}
