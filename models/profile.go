package models

// Profile is a local mirror of the profile service's user record, keyed by
// the upstream user id. Username/email are overwritten by the sync worker;
// Points is owned here and only ever moves through the points service.
type Profile struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"` // upstream user id
	Username string `gorm:"index" json:"username"`
	Email    string `json:"email,omitempty"`

	Points int64 `json:"points" gorm:"default:0"`

	Timestamps
}
