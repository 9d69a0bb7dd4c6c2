package models

import (
	"time"

	"gorm.io/gorm"
)

// Restaurant is the enterprise-side storefront.
type Restaurant struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OwnerID     uint           `gorm:"uniqueIndex;not null" json:"owner_id"` // enterprise user
	Name        string         `gorm:"size:200;not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Address     string         `gorm:"size:500" json:"address"`
	Phone       string         `gorm:"size:20" json:"phone"`
	Image       string         `gorm:"size:500" json:"image"`
	OpenHours   string         `gorm:"size:100" json:"open_hours"` // e.g. "08:00-22:00"
	IsApproved  bool           `gorm:"default:false;index" json:"is_approved"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

func (Restaurant) TableName() string { return "restaurants" }
