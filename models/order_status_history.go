package models

import "time"

// OrderStatusHistory is append-only.
type OrderStatusHistory struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	OrderID         uint        `gorm:"not null;index" json:"order_id"`
	Order           Order       `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	PreviousStatus  OrderStatus `gorm:"type:varchar(20);not null" json:"previous_status"`
	NewStatus       OrderStatus `gorm:"type:varchar(20);not null" json:"new_status"`
	ChangedByUserID *uint       `gorm:"index" json:"changed_by_user_id"`
	ChangedBy       *User       `gorm:"foreignKey:ChangedByUserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Notes           string      `gorm:"type:text" json:"notes"`
	ChangedAt       time.Time   `gorm:"not null" json:"changed_at"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
