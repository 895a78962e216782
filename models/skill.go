package models

import "time"

// UserSkillProgress holds a named 0–100 skill bar per user, nudged upward
// by activity and read by recommendation/certificate logic.
type UserSkillProgress struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"not null;uniqueIndex:idx_user_skill" json:"user_id"`
	SkillName string `gorm:"not null;uniqueIndex:idx_user_skill" json:"skill_name"`

	Progress int64 `json:"progress" gorm:"default:0"` // clamped to [0,100]

	LastUpdated time.Time `json:"last_updated" gorm:"autoUpdateTime"`
}
