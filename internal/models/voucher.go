package models

import "time"

// Voucher is a discount code created by an enterprise and gated behind admin
// approval before customers can see it.
type Voucher struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	EnterpriseID    uint      `gorm:"index;not null" json:"enterprise_id"`
	Code            string    `gorm:"uniqueIndex;size:50;not null" json:"code"`
	DiscountPercent float64   `gorm:"not null" json:"discount_percent"`
	MaxDiscount     float64   `json:"max_discount"`
	MinOrderValue   float64   `json:"min_order_value"`
	ExpiresAt       time.Time `gorm:"index;not null" json:"expires_at"`
	UsageLimit      int       `gorm:"default:0" json:"usage_limit"` // 0 = unlimited
	UsedCount       int       `gorm:"default:0" json:"used_count"`
	IsApproved      bool      `gorm:"default:false;index" json:"is_approved"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Voucher) TableName() string { return "vouchers" }
