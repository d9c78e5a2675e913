package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is an entry of the owner's customer directory.
type Client struct {
	ID        string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID   string         `gorm:"type:varchar(64);not null;index" json:"ownerId"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Company   string         `gorm:"type:varchar(255)" json:"company"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	Phone     string         `gorm:"type:varchar(64)" json:"phone"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Client) TableName() string {
	return "clients"
}
