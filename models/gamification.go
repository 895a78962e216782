package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserGamification is the fast-read gamification view: running point total
// plus the list of earned badge names. Logically redundant with
// user_badges + badges.points; both ledgers move only through the points
// service so they stay in lockstep.
type UserGamification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`

	Points       int64          `json:"points" gorm:"default:0"`
	Badges       datatypes.JSON `json:"badges"` // JSON array of badge names
	LastPlayedAt *time.Time     `json:"last_played_at,omitempty"`

	Timestamps
}
