package models

import (
	"fmt"
	"time"
)

// Notification types emitted by the domain services
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeReply   = "reply"
	NotificationTypeMention = "mention"
	NotificationTypePoll    = "poll"
	NotificationTypeSystem  = "system"
)

// Metadata is the structured key/value payload attached to a notification.
// Values are restricted to JSON-compatible variants: string, float64, bool,
// nil, []interface{}, and nested map[string]interface{}. Persisted as JSONB.
type Metadata map[string]interface{}

// Validate rejects values outside the JSON-compatible variant set.
func (m Metadata) Validate() error {
	for key, value := range m {
		if err := validateMetaValue(value); err != nil {
			return fmt.Errorf("meta key %q: %w", key, err)
		}
	}
	return nil
}

func validateMetaValue(value interface{}) error {
	switch v := value.(type) {
	case nil, string, bool, float64, int, int64:
		return nil
	case []interface{}:
		for _, item := range v {
			if err := validateMetaValue(item); err != nil {
				return err
			}
		}
		return nil
	case map[string]interface{}:
		return Metadata(v).Validate()
	default:
		return fmt.Errorf("unsupported value type %T", value)
	}
}

// Notification is a durable event directed at one user. Immutable once
// created except for the read flag.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index:idx_notifications_user_created;index:idx_notifications_user_read" json:"user_id"`

	Type    string   `gorm:"not null;index" json:"type"`
	Message string   `gorm:"type:text;not null" json:"message"`
	Meta    Metadata `gorm:"type:jsonb;serializer:json" json:"meta,omitempty"`

	IsRead bool `gorm:"default:false;index:idx_notifications_user_read" json:"is_read"`

	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,sort:desc" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PushSubscription is a durable web-push delivery target. At most one record
// exists per (user_id, endpoint) pair.
type PushSubscription struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	UserID   string `gorm:"not null;index;uniqueIndex:idx_push_subscriptions_pair" json:"user_id"`
	Endpoint string `gorm:"type:text;not null;uniqueIndex:idx_push_subscriptions_pair" json:"endpoint"`

	// Opaque client keys required by the push transport
	P256dh string `gorm:"type:text;not null" json:"p256dh"`
	Auth   string `gorm:"type:text;not null" json:"auth"`

	CreatedAt time.Time `json:"created_at"`
}
