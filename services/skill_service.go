package services

import (
	"errors"

	"learning-progress-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default progress steps per activity kind. An exercise step is derived from
// its score when one is present.
const (
	lessonSkillStep   = 5
	exerciseSkillStep = 10
	courseSkillStep   = 25
	minExerciseStep   = 5
)

type SkillService struct {
	DB *gorm.DB
}

func NewSkillService(db *gorm.DB) *SkillService {
	return &SkillService{DB: db}
}

// Apply maps one activity event to skill increments — the language and, when
// present, the topic each get a nudge. Not idempotent: replaying the same
// event re-applies the step, so the recorder calls this at most once per event.
func (s *SkillService) Apply(userID string, activityType models.ActivityType, data models.ActivityData) error {
	step := stepFor(activityType, data.Score)
	if step == 0 {
		return nil
	}

	skills := make([]string, 0, 2)
	if data.Language != "" {
		skills = append(skills, data.Language)
	}
	if data.Topic != "" && data.Topic != data.Language {
		skills = append(skills, data.Topic)
	}

	for _, name := range skills {
		if err := s.bump(userID, name, step); err != nil {
			return err
		}
	}
	return nil
}

func (s *SkillService) bump(userID, skillName string, step int64) error {
	var sp models.UserSkillProgress
	err := s.DB.Where("user_id = ? AND skill_name = ?", userID, skillName).First(&sp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sp = models.UserSkillProgress{
			ID:        uuid.NewString(),
			UserID:    userID,
			SkillName: skillName,
			Progress:  clampProgress(step),
		}
		return s.DB.Create(&sp).Error
	}
	if err != nil {
		return err
	}

	sp.Progress = clampProgress(sp.Progress + step)
	return s.DB.Save(&sp).Error
}

// List returns every skill bar for the user, strongest first.
func (s *SkillService) List(userID string) ([]models.UserSkillProgress, error) {
	var skills []models.UserSkillProgress
	err := s.DB.Where("user_id = ?", userID).
		Order("progress DESC").
		Find(&skills).Error
	return skills, err
}

func stepFor(activityType models.ActivityType, score *int) int64 {
	switch activityType {
	case models.ActivityLessonViewed:
		return lessonSkillStep
	case models.ActivityCourseCompleted:
		return courseSkillStep
	case models.ActivityExerciseCompleted:
		if score == nil {
			return exerciseSkillStep
		}
		step := int64(*score / 10)
		if step < minExerciseStep {
			step = minExerciseStep
		}
		return step
	}
	return 0
}

func clampProgress(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
