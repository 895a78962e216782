package models

import "time"

type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
)

// ChallengeTrigger names the event kinds that advance a challenge.
type ChallengeTrigger string

const (
	TriggerLessonCompleted   ChallengeTrigger = "lesson_completed"
	TriggerExerciseCompleted ChallengeTrigger = "exercise_completed"
	TriggerXPEarned          ChallengeTrigger = "xp_earned"
)

// Challenge is a time-boxed catalog definition shared by all users.
type Challenge struct {
	ID            string           `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeType ChallengeType    `gorm:"type:varchar(16);not null" json:"challenge_type"`
	Title         string           `gorm:"not null" json:"title"`
	TriggerType   ChallengeTrigger `gorm:"type:varchar(32);index;not null" json:"trigger_type"`
	Target        int64            `gorm:"not null" json:"target"`
	RewardXP      int64            `json:"reward_xp" gorm:"default:0"`
	ExpiresAt     time.Time        `gorm:"index;not null" json:"expires_at"`
	CreatedAt     time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

// UserChallenge is one user's instance of a catalog definition.
// Completed flips true exactly once via a conditional update; expired
// incomplete rows stay in place and are superseded by regeneration.
type UserChallenge struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string `gorm:"not null;uniqueIndex:idx_user_challenge" json:"user_id"`
	ChallengeID string `gorm:"not null;uniqueIndex:idx_user_challenge" json:"challenge_id"`

	CurrentProgress int64     `json:"current_progress" gorm:"default:0"`
	Target          int64     `json:"target" gorm:"not null"`
	Completed       bool      `json:"completed" gorm:"default:false"`
	ExpiresAt       time.Time `gorm:"index;not null" json:"expires_at"`

	Timestamps

	Challenge Challenge `gorm:"foreignKey:ChallengeID" json:"challenge"`
}
