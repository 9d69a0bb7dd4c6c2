package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the closed set of account roles. Handlers and middleware compare
// against these constants, never against raw request strings.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleEnterprise Role = "enterprise"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleEnterprise, RoleAdmin:
		return true
	}
	return false
}

// User represents an account: customer, enterprise (restaurant owner) or admin.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // Hashed password, empty for OAuth-only accounts
	Email     string         `gorm:"uniqueIndex;size:255" json:"email"`
	Nickname  string         `gorm:"size:100" json:"nickname"`
	Avatar    string         `gorm:"size:500" json:"avatar"`
	Role      Role           `gorm:"size:50;default:customer" json:"role"`
	AuthType  string         `gorm:"size:20;default:local" json:"auth_type"` // local, oauth
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
