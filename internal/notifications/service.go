package notifications

import (
	"context"

	"github.com/chirpsocial/backend/internal/logger"
	"github.com/chirpsocial/backend/internal/metrics"
	"github.com/chirpsocial/backend/internal/models"
	"github.com/chirpsocial/backend/internal/push"
	"github.com/chirpsocial/backend/internal/realtime"
	"go.uber.org/zap"
)

// RealtimePublisher delivers an event to every live session of a user.
// Satisfied by *realtime.Gateway.
type RealtimePublisher interface {
	SendToUser(userID string, event *realtime.Event) error
}

// PushSender delivers a web push payload to every subscription of a user.
// Satisfied by *push.Agent.
type PushSender interface {
	SendToUser(ctx context.Context, userID string, payload push.Payload) error
}

// Service orchestrates notification creation: the record is persisted
// first, then realtime and push delivery are attempted. Delivery failure
// never fails the call; only the database write does.
type Service struct {
	store    Store
	realtime RealtimePublisher
	push     PushSender
}

// NewService creates a notification service. realtime and push may be nil,
// in which case that delivery channel is skipped.
func NewService(store Store, rt RealtimePublisher, ps PushSender) *Service {
	return &Service{
		store:    store,
		realtime: rt,
		push:     ps,
	}
}

// CreateInput describes a notification to be created
type CreateInput struct {
	UserID  string
	Type    string
	Message string
	Meta    models.Metadata
}

// Page is one page of a user's notifications with its counts
type Page struct {
	Notifications []*models.Notification `json:"notifications"`
	Total         int64                  `json:"total"`
	Unread        int64                  `json:"unread"`
	Limit         int                    `json:"limit"`
	Page          int                    `json:"page"`
}

// Create persists a notification record and then attempts delivery.
// The write must succeed or the call fails; delivery is best-effort.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Notification, error) {
	if input.UserID == "" || input.Type == "" || input.Message == "" {
		return nil, ErrInvalidInput
	}
	if err := input.Meta.Validate(); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Message: input.Message,
		Meta:    input.Meta,
	}

	if err := s.store.Create(ctx, notification); err != nil {
		return nil, err
	}
	metrics.NotificationsCreatedTotal.WithLabelValues(notification.Type).Inc()

	s.deliver(ctx, notification)

	return notification, nil
}

// deliver fans the record out to the realtime gateway and the push agent.
// Errors are logged and swallowed.
func (s *Service) deliver(ctx context.Context, n *models.Notification) {
	if s.realtime != nil {
		if err := s.realtime.SendToUser(n.UserID, realtime.NotificationEvent(n)); err != nil {
			logger.Log.Warn("Realtime delivery failed",
				zap.String("notification_id", n.ID),
				zap.String("user_id", n.UserID),
				zap.Error(err))
		}
	}

	if s.push != nil {
		payload := push.Payload{
			Title: pushTitle(n.Type),
			Body:  n.Message,
			Data:  map[string]interface{}(n.Meta),
		}
		if err := s.push.SendToUser(ctx, n.UserID, payload); err != nil {
			logger.Log.Warn("Push delivery failed",
				zap.String("notification_id", n.ID),
				zap.String("user_id", n.UserID),
				zap.Error(err))
		}
	}
}

// pushTitle maps a notification type to a push notification title
func pushTitle(notificationType string) string {
	switch notificationType {
	case models.NotificationTypeFollow:
		return "New follower"
	case models.NotificationTypeLike:
		return "New like"
	case models.NotificationTypeComment:
		return "New comment"
	case models.NotificationTypeReply:
		return "New reply"
	case models.NotificationTypeMention:
		return "You were mentioned"
	default:
		return "New notification"
	}
}

// ListForUser returns one page of a user's notifications, newest first,
// with the user's total and unread counts
func (s *Service) ListForUser(ctx context.Context, userID string, limit, page int) (*Page, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	records, err := s.store.ListForUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Page{
		Notifications: records,
		Total:         total,
		Unread:        unread,
		Limit:         limit,
		Page:          page,
	}, nil
}

// MarkRead marks a single notification as read
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every unread notification of a user as read
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// UnreadCount returns the user's unread notification count
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}
