package services

import (
	"testing"
	"time"

	"learning-progress-system/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newActivityService(db *gorm.DB) *ActivityService {
	points := newTestPoints(db)
	challenges := NewChallengeService(db, points, WeekModeCalendar)
	return NewActivityService(db, NewMetricsService(db), NewSkillService(db), challenges, points)
}

func TestRecordExerciseFansOut(t *testing.T) {
	db := newTestDB(t)
	svc := newActivityService(db)

	score := 90
	require.NoError(t, svc.Record("user-1", models.ActivityExerciseCompleted, models.ActivityData{
		Language:   "Python",
		ExerciseID: "ex-42",
		Score:      &score,
		TimeSpent:  12,
	}))

	var events int64
	require.NoError(t, db.Model(&models.UserActivity{}).Where("user_id = ?", "user-1").Count(&events).Error)
	assert.Equal(t, int64(1), events)

	m, err := svc.Metrics.Get("user-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.ExercisesCompleted)
	assert.Equal(t, int64(12), m.TotalTimeSpent)

	skills, err := svc.Skills.List("user-1")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "Python", skills[0].SkillName)
	assert.Equal(t, int64(9), skills[0].Progress)

	var instances int64
	require.NoError(t, db.Model(&models.UserChallenge{}).Where("user_id = ?", "user-1").Count(&instances).Error)
	assert.Equal(t, int64(4), instances, "recording generates the challenge window")
}

func TestRecordValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newActivityService(db)

	err := svc.Record("", models.ActivityLessonViewed, models.ActivityData{})
	assert.ErrorIs(t, err, ErrMissingUser)

	err = svc.Record("user-1", models.ActivityType("logged_in"), models.ActivityData{})
	assert.ErrorIs(t, err, ErrUnknownActivityType)

	var events int64
	require.NoError(t, db.Model(&models.UserActivity{}).Count(&events).Error)
	assert.Zero(t, events, "rejected events are never persisted")
}

func TestRecordCourseCreditsPoints(t *testing.T) {
	db := newTestDB(t)
	svc := newActivityService(db)

	require.NoError(t, svc.Record("user-1", models.ActivityCourseCompleted, models.ActivityData{
		Language: "Go",
		CourseID: "course-7",
	}))

	var p models.Profile
	require.NoError(t, db.Where("id = ?", "user-1").First(&p).Error)
	assert.Equal(t, int64(CourseCompletionPoints), p.Points)

	m, err := svc.Metrics.Get("user-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.CourseCompletions)
}

func TestGetLogsBucketsAndWindow(t *testing.T) {
	db := newTestDB(t)
	svc := newActivityService(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record("user-1", models.ActivityExerciseCompleted,
			models.ActivityData{Language: "Python"}))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Record("user-1", models.ActivityLessonViewed,
			models.ActivityData{Language: "Python", TimeSpent: 5}))
	}

	// An old event outside the window and another user's event.
	require.NoError(t, db.Create(&models.UserActivity{
		ID:           uuid.NewString(),
		UserID:       "user-1",
		ActivityType: models.ActivityExerciseCompleted,
		ActivityData: datatypes.JSON([]byte("{}")),
		CreatedAt:    time.Now().AddDate(0, 0, -40),
	}).Error)
	require.NoError(t, db.Create(&models.UserActivity{
		ID:           uuid.NewString(),
		UserID:       "user-2",
		ActivityType: models.ActivityLessonViewed,
		ActivityData: datatypes.JSON([]byte("{}")),
	}).Error)

	rows, err := svc.GetLogs("user-1", 30)
	require.NoError(t, err)

	totals := map[string]int64{}
	for _, r := range rows {
		totals[r.ActivityType] += r.Count
		assert.NotEmpty(t, r.Date)
	}
	assert.Equal(t, int64(3), totals[string(models.ActivityExerciseCompleted)])
	assert.Equal(t, int64(2), totals[string(models.ActivityLessonViewed)])
}

// Exercise volume never substitutes for the summary+quiz milestones that
// gate a language badge.
func TestExercisesAloneNeverAwardBadge(t *testing.T) {
	db := newTestDB(t)
	svc := newActivityService(db)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Record("user-1", models.ActivityExerciseCompleted,
			models.ActivityData{Language: "Python"}))
	}

	var badges int64
	require.NoError(t, db.Model(&models.UserBadge{}).Count(&badges).Error)
	assert.Zero(t, badges)

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Zero(t, profiles, "no credit path runs below any challenge target")
}

func TestRecordSurvivesDownstreamFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newActivityService(db)

	// Force the challenge step to fail by dropping its table; the event must
	// still be recorded and the metric still advanced.
	require.NoError(t, db.Migrator().DropTable(&models.UserChallenge{}))

	err := svc.Record("user-1", models.ActivityExerciseCompleted, models.ActivityData{Language: "Python"})
	require.NoError(t, err)

	var events int64
	require.NoError(t, db.Model(&models.UserActivity{}).Where("user_id = ?", "user-1").Count(&events).Error)
	assert.Equal(t, int64(1), events)

	m, err := svc.Metrics.Get("user-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(1), m.ExercisesCompleted)
}
