package notifications

import (
	"context"
	"errors"

	"github.com/chirpsocial/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidInput         = errors.New("invalid input")
)

// Store handles all database operations for notification records
type Store interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id string) (*models.Notification, error)

	// ListForUser returns a page of a user's notifications, newest first
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, error)
	CountForUser(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)

	// Read state
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// store implements Store interface
type store struct {
	db *gorm.DB
}

// NewStore creates a new notification store
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

// Create inserts a notification record
func (s *store) Create(ctx context.Context, notification *models.Notification) error {
	if notification == nil || notification.UserID == "" {
		return ErrInvalidInput
	}
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}

	return s.db.WithContext(ctx).Create(notification).Error
}

// GetByID gets a notification by ID
func (s *store) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}

	return &notification, err
}

// ListForUser gets a user's notifications, newest first
func (s *store) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, error) {
	var notifications []*models.Notification

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error

	return notifications, err
}

// CountForUser gets the total notification count for a user
func (s *store) CountForUser(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&count).Error

	return count, err
}

// CountUnread gets the unread notification count for a user
func (s *store) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64

	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error

	return count, err
}

// MarkRead flips the read flag on a single notification owned by userID
func (s *store) MarkRead(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// MarkAllRead flips the read flag on all of a user's unread notifications
// in a single bulk update and returns how many rows changed
func (s *store) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)

	return result.RowsAffected, result.Error
}
