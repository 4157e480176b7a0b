package push

import (
	"context"
	"errors"

	"github.com/chirpsocial/backend/internal/metrics"
	"github.com/chirpsocial/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidSubscription = errors.New("invalid push subscription")

// SubscriptionStore handles all database operations for push subscriptions
type SubscriptionStore interface {
	// Save upserts a subscription keyed by (user_id, endpoint). Re-saving
	// the same endpoint refreshes the client keys instead of duplicating.
	Save(ctx context.Context, sub *models.PushSubscription) error
	Remove(ctx context.Context, userID, endpoint string) error
	ListForUser(ctx context.Context, userID string) ([]*models.PushSubscription, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
}

// subscriptionStore implements SubscriptionStore interface
type subscriptionStore struct {
	db *gorm.DB
}

// NewSubscriptionStore creates a new push subscription store
func NewSubscriptionStore(db *gorm.DB) SubscriptionStore {
	return &subscriptionStore{db: db}
}

// Save upserts a subscription for a (user_id, endpoint) pair
func (s *subscriptionStore) Save(ctx context.Context, sub *models.PushSubscription) error {
	if sub == nil || sub.UserID == "" || sub.Endpoint == "" || sub.P256dh == "" || sub.Auth == "" {
		return ErrInvalidSubscription
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).
		Create(sub).Error
	if err != nil {
		return err
	}

	metrics.PushSubscriptionsSavedTotal.Inc()
	return nil
}

// Remove deletes a subscription by (user_id, endpoint). Removing an
// endpoint that is not registered is a no-op.
func (s *subscriptionStore) Remove(ctx context.Context, userID, endpoint string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&models.PushSubscription{}).Error
}

// ListForUser gets all subscriptions for a user
func (s *subscriptionStore) ListForUser(ctx context.Context, userID string) ([]*models.PushSubscription, error) {
	var subs []*models.PushSubscription

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&subs).Error

	return subs, err
}

// CountForUser gets the subscription count for a user
func (s *subscriptionStore) CountForUser(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&models.PushSubscription{}).
		Where("user_id = ?", userID).
		Count(&count).Error

	return count, err
}
