package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          *uint           `gorm:"index" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	CustomerName    string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	PaymentMethod   *string         `gorm:"type:varchar(50)" json:"payment_method"`
	DeliveryAddress *string         `gorm:"type:text" json:"delivery_address"`
	Notes           *string         `gorm:"type:text" json:"notes"`
	OrderTime       time.Time       `gorm:"not null;index" json:"order_time"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

// OrderSummary is one row of an order listing.
type OrderSummary struct {
	ID            uint            `json:"id"`
	OrderTime     time.Time       `json:"order_time"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	CustomerName  string          `json:"customer_name"`
	UserID        *uint           `json:"user_id"`
	Username      *string         `json:"username,omitempty"`
}

// OrderOwner holds the owner's profile as of query time.
type OrderOwner struct {
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
}

// OrderDetail is the denormalized read view of one order.
type OrderDetail struct {
	Order
	Owner     *OrderOwner       `json:"owner"`
	LineItems []OrderItemDetail `json:"items"`
}
