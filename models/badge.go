package models

import "time"

// Badge: catalog entry, created lazily the first time a language needs it.
type Badge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"` // e.g. "Python Mastery"
	Description string    `json:"description"`
	Icon        string    `json:"icon"` // slug key resolved by the UI
	Points      int64     `json:"points" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// UserBadge: awarded instance. The (user_id, badge_id) unique index is the
// exactly-once gate for awarding — its insert either wins or is a no-op.
type UserBadge struct {
	ID       string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID   string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeID  string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_id"`
	EarnedAt time.Time `json:"earned_at" gorm:"autoCreateTime"`
}
