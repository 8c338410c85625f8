// Package newsletter manages email subscriptions.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"gorm.io/gorm"
)

// ErrInvalidEmail rejects malformed subscription addresses.
var ErrInvalidEmail = errors.New("newsletter: invalid email address")

// SubscribeResult reports the outcome of a subscription attempt.
type SubscribeResult struct {
	Message           string `json:"message"`
	AlreadySubscribed bool   `json:"already_subscribed"`
}

// Service provides newsletter subscription management.
type Service struct {
	db *gorm.DB
}

// NewService creates a Service over an open connection.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Subscribe adds an email to the newsletter. Repeated subscriptions are not
// an error; previously unsubscribed addresses are reactivated.
func (s *Service) Subscribe(ctx context.Context, email string) (SubscribeResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(normalized); err != nil {
		return SubscribeResult{}, ErrInvalidEmail
	}

	var existing models.Subscriber
	err := s.db.WithContext(ctx).Where("email = ?", normalized).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == models.SubscriberStatusActive {
			return SubscribeResult{Message: "You're already subscribed!", AlreadySubscribed: true}, nil
		}
		errUpdate := s.db.WithContext(ctx).Model(&existing).
			Update("status", models.SubscriberStatusActive).Error
		if errUpdate != nil {
			return SubscribeResult{}, fmt.Errorf("newsletter: reactivate: %w", errUpdate)
		}
		return SubscribeResult{Message: "Welcome back! You're subscribed again!"}, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		errCreate := s.db.WithContext(ctx).Create(&models.Subscriber{
			Email:        normalized,
			Status:       models.SubscriberStatusActive,
			SubscribedAt: time.Now().UTC(),
		}).Error
		if errCreate != nil {
			// A concurrent subscribe may have raced us to the unique index.
			if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
				return SubscribeResult{Message: "You're already subscribed!", AlreadySubscribed: true}, nil
			}
			return SubscribeResult{}, fmt.Errorf("newsletter: subscribe: %w", errCreate)
		}
		return SubscribeResult{Message: "Thank you for subscribing!"}, nil
	default:
		return SubscribeResult{}, fmt.Errorf("newsletter: lookup: %w", err)
	}
}

// Unsubscribe marks an address as unsubscribed. Unknown addresses are a no-op.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	normalized := strings.ToLower(strings.TrimSpace(email))
	err := s.db.WithContext(ctx).Model(&models.Subscriber{}).
		Where("email = ?", normalized).
		Update("status", models.SubscriberStatusUnsubscribed).Error
	if err != nil {
		return fmt.Errorf("newsletter: unsubscribe: %w", err)
	}
	return nil
}

// ActiveCount returns the number of active subscribers.
func (s *Service) ActiveCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Subscriber{}).
		Where("status = ?", models.SubscriberStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("newsletter: count: %w", err)
	}
	return count, nil
}

// List returns subscribers, newest first, for the admin surface.
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.Subscriber, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.Subscriber
	err := s.db.WithContext(ctx).
		Order("subscribed_at DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("newsletter: list: %w", err)
	}
	return rows, nil
}
