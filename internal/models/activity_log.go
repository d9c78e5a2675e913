package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityLog is one served request. Path is the route pattern, never the raw
// URL, so access tokens do not end up in the table.
type ActivityLog struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Method       string         `gorm:"type:varchar(10);not null;index" json:"method"`
	Path         string         `gorm:"type:varchar(255);not null;index" json:"path"`
	OwnerID      string         `gorm:"type:varchar(64);index" json:"ownerId,omitempty"`
	UserAgent    string         `gorm:"type:text" json:"userAgent"`
	IPAddress    string         `gorm:"type:varchar(45)" json:"ipAddress"`
	RequestBody  string         `gorm:"type:text" json:"requestBody,omitempty"`
	QueryParams  string         `gorm:"type:text" json:"queryParams,omitempty"`
	StatusCode   int            `gorm:"not null" json:"statusCode"`
	ResponseTime int64          `gorm:"not null" json:"responseTime"` // in milliseconds
	CreatedAt    time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
