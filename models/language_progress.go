package models

import "time"

// UserLanguageProgress tracks the per-language milestones that gate the
// "<Language> Mastery" badge. Flags only ever flip false→true; BadgeEarned
// is a read cache — the user_badges unique index is the real award record.
type UserLanguageProgress struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string `gorm:"not null;uniqueIndex:idx_user_language" json:"user_id"`
	LanguageID string `gorm:"not null;uniqueIndex:idx_user_language" json:"language_id"`

	SummaryRead   bool  `json:"summary_read" gorm:"default:false"`
	QuizCompleted bool  `json:"quiz_completed" gorm:"default:false"`
	BadgeEarned   bool  `json:"badge_earned" gorm:"default:false"`
	QuizScore     int64 `json:"quiz_score" gorm:"default:0"` // best passing score

	LastUpdated time.Time `json:"last_updated" gorm:"autoUpdateTime"`
}
