package completion

import (
	"testing"
	"time"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrerequisiteCompletionIsCreateOnCompletion(t *testing.T) {
	db := newTestDB(t)
	tracker := NewPrerequisiteTracker(db, NewRegistry(db))

	// no progress at all: derived state only, nothing persisted
	res, err := tracker.UpdateFromProgress(testUser, testCourse, 101, ContentVideo, testClient)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)

	var count int64
	db.Model(&courseModels.PrerequisiteCompletion{}).Count(&count)
	assert.Zero(t, count)

	// partial progress still persists nothing
	seedVideoProgress(t, db, 101, 40, false)
	res, err = tracker.UpdateFromProgress(testUser, testCourse, 101, ContentVideo, testClient)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)
	db.Model(&courseModels.PrerequisiteCompletion{}).Count(&count)
	assert.Zero(t, count)
}

func TestPrerequisiteCompletionKeepsAdapterTimestamp(t *testing.T) {
	db := newTestDB(t)
	seedVideoProgress(t, db, 101, 100, true) // completed an hour ago

	tracker := NewPrerequisiteTracker(db, NewRegistry(db))
	res, err := tracker.UpdateFromProgress(testUser, testCourse, 101, ContentVideo, testClient)
	require.NoError(t, err)
	assert.True(t, res.IsCompleted)
	assert.Equal(t, 100.0, res.Percentage)

	var rec courseModels.PrerequisiteCompletion
	require.NoError(t, db.Where("prerequisite_id = ?", 101).First(&rec).Error)
	require.NotNil(t, rec.CompletedAt)
	// completed_at comes from the progress row, not propagation time
	assert.WithinDuration(t, time.Now().Add(-time.Hour), *rec.CompletedAt, time.Minute)
}

func TestPrerequisiteRepeatUpdateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedVideoProgress(t, db, 101, 100, true)

	tracker := NewPrerequisiteTracker(db, NewRegistry(db))
	_, err := tracker.UpdateFromProgress(testUser, testCourse, 101, ContentVideo, testClient)
	require.NoError(t, err)

	var first courseModels.PrerequisiteCompletion
	require.NoError(t, db.Where("prerequisite_id = ?", 101).First(&first).Error)

	_, err = tracker.UpdateFromProgress(testUser, testCourse, 101, ContentVideo, testClient)
	require.NoError(t, err)

	var count int64
	db.Model(&courseModels.PrerequisiteCompletion{}).Count(&count)
	assert.EqualValues(t, 1, count)

	var second courseModels.PrerequisiteCompletion
	require.NoError(t, db.Where("prerequisite_id = ?", 101).First(&second).Error)
	assert.Equal(t, first.CompletedAt.Unix(), second.CompletedAt.Unix())
}

func TestPrerequisiteAdapterErrorFailsClosed(t *testing.T) {
	db := newTestDB(t)
	reg := NewRegistry(db)
	reg[ContentVideo] = failingAdapter{err: assert.AnError}

	tracker := NewPrerequisiteTracker(db, reg)
	res, err := tracker.UpdateFromProgress(testUser, testCourse, 101, ContentVideo, testClient)
	assert.Error(t, err)
	assert.False(t, res.IsCompleted)

	var count int64
	db.Model(&courseModels.PrerequisiteCompletion{}).Count(&count)
	assert.Zero(t, count)
}

func TestPostRequisiteSurveyNeedsCompletedAt(t *testing.T) {
	db := newTestDB(t)
	tracker := NewPostRequisiteTracker(db, NewRegistry(db))

	// started but not submitted
	seedSurveyResponse(t, db, 300, false)
	res, err := tracker.UpdateFromProgress(testUser, testCourse, 300, ContentSurvey, testClient)
	require.NoError(t, err)
	assert.False(t, res.IsCompleted)

	require.NoError(t, db.Model(&courseModels.SurveyResponse{}).
		Where("content_id = ?", 300).Update("completed_at", time.Now()).Error)

	res, err = tracker.UpdateFromProgress(testUser, testCourse, 300, ContentSurvey, testClient)
	require.NoError(t, err)
	assert.True(t, res.IsCompleted)

	var rec courseModels.PostRequisiteCompletion
	require.NoError(t, db.Where("post_requisite_id = ?", 300).First(&rec).Error)
	assert.Equal(t, string(ContentSurvey), rec.ContentType)
}

func TestPostRequisiteRejectsModuleContentFamilies(t *testing.T) {
	db := newTestDB(t)
	tracker := NewPostRequisiteTracker(db, NewRegistry(db))

	_, err := tracker.UpdateFromProgress(testUser, testCourse, 300, ContentVideo, testClient)
	assert.Error(t, err)
}
