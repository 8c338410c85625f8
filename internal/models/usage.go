package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIUsage tracks AI chat quota consumption for one caller identity on one day.
type AIUsage struct {
	IPHash string `gorm:"column:ip_hash;type:text;primaryKey"` // SHA-256 hash of the client IP.
	Date   string `gorm:"type:text;primaryKey"`                // UTC calendar date (YYYY-MM-DD).

	Count            int64          `gorm:"not null;default:0"`               // Messages admitted today.
	RecentTimestamps datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Unix-millisecond send times inside the sliding window.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (AIUsage) TableName() string {
	return "ai_usage"
}
