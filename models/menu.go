package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a dish on the menu. IsAvailable doubles as the soft-delete flag:
// a deleted item is hidden from the public menu but stays referenced by
// historical order lines.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    Category        `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	ImageURL    *string         `gorm:"type:varchar(255)" json:"image_url"`
	IsAvailable bool            `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// MenuEntry is a menu item joined with its category name.
type MenuEntry struct {
	MenuItem
	CategoryName string `json:"category_name"`
}
