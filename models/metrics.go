package models

import (
	"time"

	"gorm.io/gorm"
)

// UserMetrics is the per-user summary row derived from activity events.
// Counters only ever move upward, via atomic increments.
type UserMetrics struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	CourseCompletions  int64 `json:"course_completions" gorm:"default:0"`
	ExercisesCompleted int64 `json:"exercises_completed" gorm:"default:0"`
	TotalTimeSpent     int64 `json:"total_time_spent" gorm:"default:0"` // minutes

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
