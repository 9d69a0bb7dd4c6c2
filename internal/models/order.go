package models

import "time"

// OrderStatus is the closed set of order states.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderDelivering OrderStatus = "delivering"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderDelivering, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Order is one checkout, always created together with its items in a single
// transaction.
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	CustomerID      uint        `gorm:"index;not null" json:"customer_id"`
	RestaurantID    uint        `gorm:"index;not null" json:"restaurant_id"`
	Status          OrderStatus `gorm:"size:20;default:pending;index" json:"status"`
	Subtotal        float64     `json:"subtotal"`
	Discount        float64     `json:"discount"`
	Total           float64     `json:"total"`
	VoucherID       *uint       `gorm:"index" json:"voucher_id,omitempty"`
	DeliveryAddress string      `gorm:"size:500;not null" json:"delivery_address"`
	DeliveryPhone   string      `gorm:"size:20;not null" json:"delivery_phone"`
	Note            string      `gorm:"size:500" json:"note"`
	PaymentMethod   string      `gorm:"size:20;default:cod" json:"payment_method"` // cod, card
	PaymentID       string      `gorm:"size:100" json:"payment_id,omitempty"`
	IsPaid          bool        `gorm:"default:false" json:"is_paid"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Items      []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Restaurant *Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	Customer   *User       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots the unit price at checkout time.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	FoodID    uint    `gorm:"index;not null" json:"food_id"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`

	Food *Food `gorm:"foreignKey:FoodID" json:"food,omitempty"`
}

func (OrderItem) TableName() string { return "order_items" }
