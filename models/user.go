package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone     string    `json:"phone"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Orders    []Order   `gorm:"foreignKey:UserID" json:"orders,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
