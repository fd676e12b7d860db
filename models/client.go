package models

import "time"

// Client is an API account allowed to manage profiles. Banned clients keep
// their credentials but every authenticated request is rejected at the gate.
type Client struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Username       string `gorm:"size:255;not null;unique"`
	HashedPassword []byte `gorm:"not null"`
	Banned         bool   `gorm:"default:false;not null"`
	RoleID         *uint  `gorm:"index"`
	Role           Role   `gorm:"foreignKey:RoleID;references:ID"`
}
