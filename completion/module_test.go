package completion

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleAllRequiredCompleteIgnoresOptional(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)
	// 3 required, all watched; 2 optional, untouched
	seedContent(t, db, 501, 10, 101, ContentVideo, true)
	seedContent(t, db, 502, 10, 102, ContentVideo, true)
	seedContent(t, db, 503, 10, 103, ContentVideo, true)
	seedContent(t, db, 504, 10, 104, ContentVideo, false)
	seedContent(t, db, 505, 10, 105, ContentVideo, false)
	seedVideoProgress(t, db, 101, 100, true)
	seedVideoProgress(t, db, 102, 100, true)
	seedVideoProgress(t, db, 103, 100, true)

	tracker := NewModuleTracker(db, NewRegistry(db))
	res, err := tracker.UpdateFromContent(testUser, testCourse, 10, testClient, nil)
	require.NoError(t, err)
	assert.True(t, res.IsCompleted)
	assert.Equal(t, 100.0, res.Percentage)

	var rec courseModels.ModuleCompletion
	require.NoError(t, db.Where("module_id = ?", 10).First(&rec).Error)
	assert.True(t, rec.IsCompleted)
	require.NotNil(t, rec.CompletedAt)
}

func TestOptionalContentFlagSurvivesPersistence(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, false)

	// a zero-valued flag must not be replaced by a column default on insert
	var row courseModels.CourseContent
	require.NoError(t, db.Where("id = ?", 501).First(&row).Error)
	assert.False(t, row.IsRequired)
}

func TestModulePartialProgressIsNotPersisted(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, true)
	seedContent(t, db, 502, 10, 102, ContentVideo, true)
	seedContent(t, db, 503, 10, 103, ContentVideo, true)
	seedVideoProgress(t, db, 101, 100, true)

	tracker := NewModuleTracker(db, NewRegistry(db))
	res, err := tracker.UpdateFromContent(testUser, testCourse, 10, testClient, nil)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	assert.Equal(t, 33.33, res.Percentage)

	// create-on-completion: no record while in progress
	var count int64
	db.Model(&courseModels.ModuleCompletion{}).Count(&count)
	assert.Zero(t, count)
}

func TestModuleAllOptionalNeedsEveryItem(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, false)
	seedContent(t, db, 502, 10, 102, ContentVideo, false)
	seedVideoProgress(t, db, 101, 100, true)

	tracker := NewModuleTracker(db, NewRegistry(db))
	res, err := tracker.UpdateFromContent(testUser, testCourse, 10, testClient, nil)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	assert.Equal(t, 50.0, res.Percentage)

	seedVideoProgress(t, db, 102, 95, false) // threshold completion without explicit flag
	res, err = tracker.UpdateFromContent(testUser, testCourse, 10, testClient, nil)
	require.NoError(t, err)
	assert.True(t, res.IsCompleted)
}

func TestEmptyModuleIsNeverComplete(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)

	tracker := NewModuleTracker(db, NewRegistry(db))
	res, err := tracker.UpdateFromContent(testUser, testCourse, 10, testClient, nil)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	assert.Zero(t, res.Percentage)
}

func TestModuleAdapterFailureCountsItemIncomplete(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, true)
	seedContent(t, db, 502, 10, 102, ContentVideo, true)
	seedVideoProgress(t, db, 101, 100, true)
	seedVideoProgress(t, db, 102, 100, true)

	reg := NewRegistry(db)
	reg[ContentVideo] = failingAdapter{err: assert.AnError}

	tracker := NewModuleTracker(db, reg)
	res, err := tracker.UpdateFromContent(testUser, testCourse, 10, testClient, nil)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	assert.Zero(t, res.Percentage)
}

func TestModuleStoresLastTouchedContent(t *testing.T) {
	db := newTestDB(t)
	seedModule(t, db, 10)
	seedContent(t, db, 501, 10, 101, ContentVideo, true)
	seedVideoProgress(t, db, 101, 100, true)

	tracker := NewModuleTracker(db, NewRegistry(db))
	last := uint(101)
	res, err := tracker.UpdateFromContent(testUser, testCourse, 10, testClient, &last)
	require.NoError(t, err)
	require.True(t, res.IsCompleted)

	var rec courseModels.ModuleCompletion
	require.NoError(t, db.Where("module_id = ?", 10).First(&rec).Error)
	require.NotNil(t, rec.ContentID)
	assert.Equal(t, uint(101), *rec.ContentID)
}
