package services

import (
	"errors"
	"fmt"
	"time"

	"learning-progress-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricKind selects which UserMetrics counter an increment targets.
type MetricKind string

const (
	MetricCourse   MetricKind = "course"
	MetricExercise MetricKind = "exercise"
	MetricTime     MetricKind = "time"
)

var metricColumns = map[MetricKind]string{
	MetricCourse:   "course_completions",
	MetricExercise: "exercises_completed",
	MetricTime:     "total_time_spent",
}

type MetricsService struct {
	DB *gorm.DB
}

func NewMetricsService(db *gorm.DB) *MetricsService {
	return &MetricsService{DB: db}
}

// Increment adds amount to one counter of the user's metrics row, creating
// the row seeded with amount when it doesn't exist yet. The whole operation
// is a single upsert with an additive assignment, so concurrent increments
// for the same user never lose updates.
func (s *MetricsService) Increment(userID string, kind MetricKind, amount int64) error {
	col, ok := metricColumns[kind]
	if !ok {
		return fmt.Errorf("metrics: unknown kind %q", kind)
	}
	if amount <= 0 {
		return nil
	}

	row := models.UserMetrics{ID: uuid.NewString(), UserID: userID}
	switch kind {
	case MetricCourse:
		row.CourseCompletions = amount
	case MetricExercise:
		row.ExercisesCompleted = amount
	case MetricTime:
		row.TotalTimeSpent = amount
	}

	return s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			col:          gorm.Expr(col+" + ?", amount),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
}

// Get returns the user's metrics row, or nil when none exists yet.
func (s *MetricsService) Get(userID string) (*models.UserMetrics, error) {
	var m models.UserMetrics
	if err := s.DB.Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
