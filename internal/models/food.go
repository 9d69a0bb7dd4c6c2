package models

import (
	"time"

	"gorm.io/gorm"
)

// Food is a single menu item.
type Food struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	RestaurantID uint           `gorm:"index;not null" json:"restaurant_id"`
	Name         string         `gorm:"size:200;not null;index" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	Price        float64        `gorm:"not null" json:"price"`
	Category     string         `gorm:"size:100;index" json:"category"`
	Image        string         `gorm:"size:500" json:"image"`
	IsAvailable  bool           `gorm:"default:true;index" json:"is_available"`
	SoldCount    int            `gorm:"default:0" json:"sold_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Restaurant *Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
}

func (Food) TableName() string { return "foods" }
