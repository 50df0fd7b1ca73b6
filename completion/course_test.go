package completion

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyCourseIsNeverComplete(t *testing.T) {
	db := newTestDB(t)
	agg := NewCourseAggregator(db)

	res, err := agg.Recompute(testUser, testCourse, testClient)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	assert.Zero(t, res.Percentage)

	var count int64
	db.Model(&courseModels.CourseCompletion{}).Count(&count)
	assert.Zero(t, count)
}

func TestCourseWeightsOnlyExistingComponents(t *testing.T) {
	db := newTestDB(t)
	// prerequisites only: no modules, no post-requisites
	seedPrerequisite(t, db, 701, 101, ContentVideo)
	seedPrerequisite(t, db, 702, 102, ContentVideo)
	seedVideoProgress(t, db, 101, 100, true)
	seedVideoProgress(t, db, 102, 100, true)

	engine := NewEngine(db)
	require.NoError(t, engine.RecalculateCourseCompletions(testUser, testCourse, testClient))

	var rec courseModels.CourseCompletion
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", testUser, testCourse).First(&rec).Error)
	assert.True(t, rec.IsCompleted)
	assert.Equal(t, 100.0, rec.CompletionPercentage)
	assert.True(t, rec.PrerequisitesCompleted)
	assert.False(t, rec.ModulesCompleted)
	assert.False(t, rec.PostRequisitesCompleted)
}

func TestCoursePartialComponentsNotPersisted(t *testing.T) {
	db := newTestDB(t)
	seedPrerequisite(t, db, 701, 101, ContentVideo)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 201, ContentVideo, true)
	seedVideoProgress(t, db, 101, 100, true) // prereq done, module not

	engine := NewEngine(db)
	require.NoError(t, engine.RecalculateCourseCompletions(testUser, testCourse, testClient))

	res, err := engine.Aggregator().Compute(testUser, testCourse, testClient)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	assert.Equal(t, 50.0, res.Percentage)
	assert.True(t, res.PrerequisitesDone)
	assert.False(t, res.ModulesDone)

	var count int64
	db.Model(&courseModels.CourseCompletion{}).Count(&count)
	assert.Zero(t, count)
}

func TestCompletionIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 201, ContentVideo, true)
	seedVideoProgress(t, db, 201, 100, true)

	engine := NewEngine(db)
	require.NoError(t, engine.RecalculateCourseCompletions(testUser, testCourse, testClient))

	var course courseModels.CourseCompletion
	require.NoError(t, db.Where("user_id = ?", testUser).First(&course).Error)
	require.True(t, course.IsCompleted)

	// progress data regresses (player row deleted); completions must not flip back
	require.NoError(t, db.Unscoped().Where("content_id = ?", 201).
		Delete(&courseModels.VideoProgress{}).Error)
	require.NoError(t, engine.RecalculateCourseCompletions(testUser, testCourse, testClient))

	var module courseModels.ModuleCompletion
	require.NoError(t, db.Where("module_id = ?", 10).First(&module).Error)
	assert.True(t, module.IsCompleted)

	require.NoError(t, db.Where("user_id = ?", testUser).First(&course).Error)
	assert.True(t, course.IsCompleted)
	assert.Equal(t, 100.0, course.CompletionPercentage)
}
