package models

import "time"

// RefreshToken is one row per issued refresh token. Rows are invalidated, not
// deleted: IsValid flips to false exactly once (logout, password change or
// reset, admin lock) and RevokedAt records when. Multiple valid rows may
// coexist per user (one per device/session).
type RefreshToken struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index;not null" json:"user_id"`
	TokenHash   string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	IsValid     bool       `gorm:"index;default:true" json:"is_valid"`
	RevokedAt   *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	ExpiresAt   time.Time  `gorm:"index;not null" json:"expires_at"`
	CreatedByIP string     `gorm:"size:64" json:"created_by_ip,omitempty"`
	UserAgent   string     `gorm:"size:255" json:"user_agent,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }
