package models

import (
	"encoding/json"
	"time"
)

// Setting stores a key/value configuration entry in the database.
type Setting struct {
	Key       string          `gorm:"type:text;primaryKey"`    // Configuration key.
	Value     json.RawMessage `gorm:"type:jsonb"`              // JSON-encoded value.
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
