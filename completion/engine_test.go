package completion

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestHandleContentCompletionPropagatesToCourse(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, true)
	seedContent(t, db, 502, 10, 102, ContentVideo, true)

	// first item finished: module still open, no rollup
	seedVideoProgress(t, db, 101, 100, true)
	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 101, ContentVideo, testClient))

	var count int64
	db.Model(&courseModels.ModuleCompletion{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&courseModels.CourseCompletion{}).Count(&count)
	assert.Zero(t, count)

	// second item closes the module and with it the course
	seedVideoProgress(t, db, 102, 100, true)
	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 102, ContentVideo, testClient))

	var module courseModels.ModuleCompletion
	require.NoError(t, db.Where("module_id = ?", 10).First(&module).Error)
	assert.True(t, module.IsCompleted)

	var course courseModels.CourseCompletion
	require.NoError(t, db.Where("user_id = ?", testUser).First(&course).Error)
	assert.True(t, course.IsCompleted)
	assert.True(t, course.ModulesCompleted)
}

func TestHandleContentCompletionIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, true)
	seedVideoProgress(t, db, 101, 100, true)

	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 101, ContentVideo, testClient))

	var module courseModels.ModuleCompletion
	require.NoError(t, db.Where("module_id = ?", 10).First(&module).Error)
	firstCompletedAt := *module.CompletedAt

	var firstCourse courseModels.CourseCompletion
	require.NoError(t, db.Where("user_id = ?", testUser).First(&firstCourse).Error)

	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 101, ContentVideo, testClient))

	var moduleCount, courseCount int64
	db.Model(&courseModels.ModuleCompletion{}).Count(&moduleCount)
	db.Model(&courseModels.CourseCompletion{}).Count(&courseCount)
	assert.EqualValues(t, 1, moduleCount)
	assert.EqualValues(t, 1, courseCount)

	require.NoError(t, db.Where("module_id = ?", 10).First(&module).Error)
	assert.Equal(t, firstCompletedAt.Unix(), module.CompletedAt.Unix())

	var secondCourse courseModels.CourseCompletion
	require.NoError(t, db.Where("user_id = ?", testUser).First(&secondCourse).Error)
	assert.Equal(t, firstCourse.CompletedAt.Unix(), secondCourse.CompletedAt.Unix())
}

func TestPrerequisiteEventNeverDrivesModule(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	// content 101 is a prerequisite AND registered inside module 10; module 10 also
	// holds an unrelated incomplete item so any module write would be visible
	seedPrerequisite(t, db, 701, 101, ContentVideo)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, true)
	seedContent(t, db, 502, 10, 102, ContentVideo, false)
	seedVideoProgress(t, db, 101, 100, true)

	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 101, ContentVideo, testClient))

	var prereq courseModels.PrerequisiteCompletion
	require.NoError(t, db.Where("prerequisite_id = ?", 101).First(&prereq).Error)
	assert.True(t, prereq.IsCompleted)

	// module untouched: prerequisite wins the attribution
	var count int64
	db.Model(&courseModels.ModuleCompletion{}).Count(&count)
	assert.Zero(t, count)
}

func TestModuleResolutionAcceptsBothKeyConventions(t *testing.T) {
	for name, eventID := range map[string]uint{
		"primary key":       501,
		"legacy content id": 901,
	} {
		t.Run(name, func(t *testing.T) {
			db := newTestDB(t)
			engine := NewEngine(db)

			seedModule(t, db, 10)
			seedContent(t, db, 501, 10, 901, ContentVideo, true)
			seedVideoProgress(t, db, 901, 100, true)

			require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, eventID, ContentVideo, testClient))

			var rec courseModels.ModuleCompletion
			require.NoError(t, db.Where("module_id = ?", 10).First(&rec).Error)
			assert.True(t, rec.IsCompleted)
		})
	}
}

func TestPrerequisiteResolutionAcceptsBothKeyConventions(t *testing.T) {
	for name, eventID := range map[string]uint{
		"primary key":            701,
		"legacy prerequisite id": 901,
	} {
		t.Run(name, func(t *testing.T) {
			db := newTestDB(t)
			engine := NewEngine(db)

			seedPrerequisite(t, db, 701, 901, ContentVideo)
			seedVideoProgress(t, db, 901, 100, true)

			require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, eventID, ContentVideo, testClient))

			var rec courseModels.PrerequisiteCompletion
			require.NoError(t, db.Where("prerequisite_id = ?", 901).First(&rec).Error)
			assert.True(t, rec.IsCompleted)
		})
	}
}

func TestRecalculateMatchesEventDrivenPropagation(t *testing.T) {
	seed := func(t *testing.T, db *gorm.DB) {
		seedPrerequisite(t, db, 701, 100, ContentVideo)
		seedModule(t, db, 10)
		seedContent(t, db, 501, 10, 201, ContentVideo, true)
		seedContent(t, db, 502, 10, 202, ContentVideo, true)
		seedPostRequisite(t, db, 801, 300, ContentAssessment)
		seedVideoProgress(t, db, 100, 100, true)
		seedVideoProgress(t, db, 201, 100, true)
		seedVideoProgress(t, db, 202, 100, true)
		seedAssessmentPassed(t, db, 300)
	}

	// event-driven path
	eventDB := newTestDB(t)
	seed(t, eventDB)
	eventEngine := NewEngine(eventDB)
	require.NoError(t, eventEngine.HandleContentCompletion(testUser, testCourse, 100, ContentVideo, testClient))
	require.NoError(t, eventEngine.HandleContentCompletion(testUser, testCourse, 201, ContentVideo, testClient))
	require.NoError(t, eventEngine.HandleContentCompletion(testUser, testCourse, 202, ContentVideo, testClient))
	require.NoError(t, eventEngine.HandleContentCompletion(testUser, testCourse, 300, ContentAssessment, testClient))

	// bulk path over the same snapshot
	bulkDB := newTestDB(t)
	seed(t, bulkDB)
	bulkEngine := NewEngine(bulkDB)
	require.NoError(t, bulkEngine.RecalculateCourseCompletions(testUser, testCourse, testClient))

	var eventRow, bulkRow courseModels.CourseCompletion
	require.NoError(t, eventDB.Where("user_id = ?", testUser).First(&eventRow).Error)
	require.NoError(t, bulkDB.Where("user_id = ?", testUser).First(&bulkRow).Error)

	assert.Equal(t, eventRow.IsCompleted, bulkRow.IsCompleted)
	assert.Equal(t, eventRow.CompletionPercentage, bulkRow.CompletionPercentage)
	assert.Equal(t, eventRow.PrerequisitesCompleted, bulkRow.PrerequisitesCompleted)
	assert.Equal(t, eventRow.ModulesCompleted, bulkRow.ModulesCompleted)
	assert.Equal(t, eventRow.PostRequisitesCompleted, bulkRow.PostRequisitesCompleted)
}

func TestStartTrackingOnlyTouchesExistingRecords(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	// nothing tracked yet: no record may appear
	require.NoError(t, engine.StartTracking(testUser, testCourse, 101, EntityPrerequisite, testClient))
	var count int64
	db.Model(&courseModels.PrerequisiteCompletion{}).Count(&count)
	assert.Zero(t, count)

	// once completed, opening the prerequisite refreshes last_accessed_at
	seedPrerequisite(t, db, 701, 101, ContentVideo)
	seedVideoProgress(t, db, 101, 100, true)
	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 101, ContentVideo, testClient))

	var before courseModels.PrerequisiteCompletion
	require.NoError(t, db.Where("prerequisite_id = ?", 101).First(&before).Error)

	require.NoError(t, engine.StartTracking(testUser, testCourse, 101, EntityPrerequisite, testClient))

	var after courseModels.PrerequisiteCompletion
	require.NoError(t, db.Where("prerequisite_id = ?", 101).First(&after).Error)
	require.NotNil(t, after.LastAccessedAt)
	assert.True(t, !after.LastAccessedAt.Before(*before.LastAccessedAt))
	assert.Equal(t, before.CompletedAt.Unix(), after.CompletedAt.Unix())
}

func TestStartTrackingTouchesPostRequisite(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	// no record yet: the touch must not create one
	require.NoError(t, engine.StartTracking(testUser, testCourse, 300, EntityPostRequisite, testClient))
	var count int64
	db.Model(&courseModels.PostRequisiteCompletion{}).Count(&count)
	assert.Zero(t, count)

	seedPostRequisite(t, db, 801, 300, ContentAssessment)
	seedAssessmentPassed(t, db, 300)
	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 300, ContentAssessment, testClient))

	var before courseModels.PostRequisiteCompletion
	require.NoError(t, db.Where("post_requisite_id = ?", 300).First(&before).Error)

	require.NoError(t, engine.StartTracking(testUser, testCourse, 300, EntityPostRequisite, testClient))

	var after courseModels.PostRequisiteCompletion
	require.NoError(t, db.Where("post_requisite_id = ?", 300).First(&after).Error)
	require.NotNil(t, after.LastAccessedAt)
	assert.True(t, !after.LastAccessedAt.Before(*before.LastAccessedAt))
	assert.Equal(t, before.CompletedAt.Unix(), after.CompletedAt.Unix())
}

func TestStartTrackingRejectsUnknownEntity(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	assert.Error(t, engine.StartTracking(testUser, testCourse, 1, "course", testClient))
}

func TestGetCourseCompletionStatus(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	seedPrerequisite(t, db, 701, 100, ContentVideo)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 201, ContentVideo, true)
	seedVideoProgress(t, db, 100, 100, true)
	require.NoError(t, engine.HandleContentCompletion(testUser, testCourse, 100, ContentVideo, testClient))

	status, err := engine.GetCourseCompletionStatus(testUser, testCourse, testClient)
	require.NoError(t, err)
	assert.False(t, status.Course.IsCompleted)
	assert.Equal(t, 50.0, status.Course.Percentage)
	assert.True(t, status.Course.PrerequisitesDone)
	require.Len(t, status.Prerequisites, 1)
	assert.Empty(t, status.Modules)
}
