package models

import "time"

// Subscriber statuses.
const (
	// SubscriberStatusActive marks a live newsletter subscription.
	SubscriberStatusActive = "active"
	// SubscriberStatusUnsubscribed marks a cancelled subscription.
	SubscriberStatusUnsubscribed = "unsubscribed"
)

// Subscriber represents a newsletter subscription.
type Subscriber struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email  string `gorm:"type:text;not null;uniqueIndex"`       // Normalized (lowercased, trimmed) email address.
	Status string `gorm:"type:text;not null;default:'active'"` // Subscription status.

	SubscribedAt time.Time `gorm:"not null"`                // First subscription time.
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Subscriber) TableName() string {
	return "newsletter_subscribers"
}
