package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityType enumerates the tracked learner actions.
type ActivityType string

const (
	ActivityLessonViewed      ActivityType = "lesson_viewed"
	ActivityExerciseCompleted ActivityType = "exercise_completed"
	ActivityCourseCompleted   ActivityType = "course_completed"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityLessonViewed, ActivityExerciseCompleted, ActivityCourseCompleted:
		return true
	}
	return false
}

// ActivityData is the JSON payload recorded with each activity event.
type ActivityData struct {
	Language   string `json:"language,omitempty"`
	Topic      string `json:"topic,omitempty"`
	LessonID   string `json:"lesson_id,omitempty"`
	ExerciseID string `json:"exercise_id,omitempty"`
	CourseID   string `json:"course_id,omitempty"`
	Score      *int   `json:"score,omitempty"`
	TimeSpent  int64  `json:"time_spent,omitempty"` // minutes
}

// UserActivity is one immutable activity event. Rows are append-only:
// nothing in this service ever updates or deletes them.
type UserActivity struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string         `gorm:"index;not null" json:"user_id"`
	ActivityType ActivityType   `gorm:"type:varchar(32);index;not null" json:"activity_type"`
	ActivityData datatypes.JSON `json:"activity_data"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}
