package models

import "time"

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	FullName     *string    `gorm:"type:varchar(255)" json:"full_name"`
	Email        *string    `gorm:"type:varchar(255)" json:"email"`
	Phone        *string    `gorm:"type:varchar(50)" json:"phone"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

// DisplayName is the name captured on an order: full name when set, username otherwise.
func (u *User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}
