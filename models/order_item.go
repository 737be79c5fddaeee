package models

import "github.com/shopspring/decimal"

// OrderItem freezes the unit price at order time; rows are never updated.
type OrderItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	Order           Order           `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID      uint            `gorm:"not null;index" json:"menu_item_id"`
	MenuItem        MenuItem        `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	SpecialRequests *string         `gorm:"type:text" json:"special_requests"`
}

// OrderItemDetail carries the current item name and image next to the frozen
// price and subtotal.
type OrderItemDetail struct {
	ID              uint            `json:"id"`
	MenuItemID      uint            `json:"menu_item_id"`
	ItemName        string          `json:"item_name"`
	ItemImageURL    *string         `json:"item_image_url"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	SpecialRequests *string         `json:"special_requests"`
}
