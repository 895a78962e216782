package services

import (
	"testing"

	"learning-progress-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillApplyCreatesAndAccumulates(t *testing.T) {
	db := newTestDB(t)
	svc := NewSkillService(db)

	score := 80
	data := models.ActivityData{Language: "JavaScript", Score: &score}

	require.NoError(t, svc.Apply("user-1", models.ActivityExerciseCompleted, data))

	skills, err := svc.List("user-1")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "JavaScript", skills[0].SkillName)
	assert.Equal(t, int64(8), skills[0].Progress) // 80/10

	require.NoError(t, svc.Apply("user-1", models.ActivityExerciseCompleted, data))
	skills, err = svc.List("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(16), skills[0].Progress)
}

func TestSkillApplyLanguageAndTopic(t *testing.T) {
	db := newTestDB(t)
	svc := NewSkillService(db)

	data := models.ActivityData{Language: "Python", Topic: "Loops"}
	require.NoError(t, svc.Apply("user-1", models.ActivityLessonViewed, data))

	skills, err := svc.List("user-1")
	require.NoError(t, err)
	require.Len(t, skills, 2)
	for _, s := range skills {
		assert.Equal(t, int64(lessonSkillStep), s.Progress)
	}
}

func TestSkillProgressClampedAt100(t *testing.T) {
	db := newTestDB(t)
	svc := NewSkillService(db)

	data := models.ActivityData{Language: "Go"}
	for i := 0; i < 6; i++ { // 6 × 25 would be 150 unclamped
		require.NoError(t, svc.Apply("user-1", models.ActivityCourseCompleted, data))
	}

	skills, err := svc.List("user-1")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, int64(100), skills[0].Progress)
}

func TestSkillLowScoreUsesMinimumStep(t *testing.T) {
	db := newTestDB(t)
	svc := NewSkillService(db)

	score := 20 // 20/10 = 2, below the floor
	require.NoError(t, svc.Apply("user-1", models.ActivityExerciseCompleted,
		models.ActivityData{Language: "Rust", Score: &score}))

	skills, err := svc.List("user-1")
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, int64(minExerciseStep), skills[0].Progress)
}
