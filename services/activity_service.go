package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"learning-progress-system/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CourseCompletionPoints is the fixed profile credit for finishing a course.
const CourseCompletionPoints = 50

var (
	ErrMissingUser         = errors.New("activity: user id is required")
	ErrUnknownActivityType = errors.New("activity: unknown activity type")
)

// ActivityService owns the append-only event log and fans each recorded
// event out to the aggregation services.
type ActivityService struct {
	DB         *gorm.DB
	Metrics    *MetricsService
	Skills     *SkillService
	Challenges *ChallengeService
	Points     *PointsService
}

func NewActivityService(db *gorm.DB, metrics *MetricsService, skills *SkillService,
	challenges *ChallengeService, points *PointsService) *ActivityService {
	return &ActivityService{
		DB:         db,
		Metrics:    metrics,
		Skills:     skills,
		Challenges: challenges,
		Points:     points,
	}
}

// Record validates and appends one immutable activity event, then runs the
// downstream aggregation steps. The event insert is the only fatal path:
// each aggregation step is independently fallible, a failure is logged and
// the remaining steps still run — the recorded event is never rolled back.
func (s *ActivityService) Record(userID string, activityType models.ActivityType, data models.ActivityData) error {
	if userID == "" {
		return ErrMissingUser
	}
	if !activityType.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownActivityType, activityType)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("activity: encode payload: %w", err)
	}

	event := models.UserActivity{
		ID:           uuid.NewString(),
		UserID:       userID,
		ActivityType: activityType,
		ActivityData: datatypes.JSON(payload),
	}
	if err := s.DB.Create(&event).Error; err != nil {
		return fmt.Errorf("activity: record event: %w", err)
	}

	s.fanOut(userID, activityType, data)
	return nil
}

func (s *ActivityService) fanOut(userID string, activityType models.ActivityType, data models.ActivityData) {
	s.step(userID, "ensure challenges", s.Challenges.EnsureActiveChallenges(userID))

	switch activityType {
	case models.ActivityLessonViewed:
		s.step(userID, "time metric", s.Metrics.Increment(userID, MetricTime, data.TimeSpent))
		s.step(userID, "skill progress", s.Skills.Apply(userID, activityType, data))
		s.step(userID, "lesson challenge", s.Challenges.UpdateProgress(userID, models.TriggerLessonCompleted, 1))

	case models.ActivityExerciseCompleted:
		s.step(userID, "exercise metric", s.Metrics.Increment(userID, MetricExercise, 1))
		s.step(userID, "time metric", s.Metrics.Increment(userID, MetricTime, data.TimeSpent))
		s.step(userID, "skill progress", s.Skills.Apply(userID, activityType, data))
		s.step(userID, "exercise challenge", s.Challenges.UpdateProgress(userID, models.TriggerExerciseCompleted, 1))

	case models.ActivityCourseCompleted:
		s.step(userID, "course metric", s.Metrics.Increment(userID, MetricCourse, 1))
		s.step(userID, "skill progress", s.Skills.Apply(userID, activityType, data))
		s.step(userID, "course points", s.Points.Credit(userID, CourseCompletionPoints, "course:"+data.CourseID))
		s.step(userID, "xp challenge", s.Challenges.UpdateProgress(userID, models.TriggerXPEarned, CourseCompletionPoints))
	}
}

// step logs a failed downstream aggregation without aborting the rest. The
// user's aggregates may lag behind the event log until the next event.
func (s *ActivityService) step(userID, name string, err error) {
	if err != nil {
		log.Printf("⚠️ [ACTIVITY] %s failed for %s: %v", name, userID, err)
	}
}

// ActivityLogRow is one (calendar date, activity type) bucket.
type ActivityLogRow struct {
	Date         string `json:"date"`
	ActivityType string `json:"activity_type"`
	Count        int64  `json:"count"`
}

// GetLogs groups the user's raw events of the last N days by calendar date
// and activity type. Pure read; bucket order is unspecified.
func (s *ActivityService) GetLogs(userID string, days int) ([]ActivityLogRow, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var rows []ActivityLogRow
	err := s.DB.Model(&models.UserActivity{}).
		Select("date(created_at) AS date, activity_type, count(*) AS count").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("date(created_at)").
		Group("activity_type").
		Scan(&rows).Error
	return rows, err
}
