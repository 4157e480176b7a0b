package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chirpsocial/backend/internal/models"
)

// FlexibleTime handles both Unix millisecond timestamps and RFC3339 strings
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom unmarshaling for timestamps
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	// Try to unmarshal as Unix milliseconds (integer)
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		ft.Time = time.UnixMilli(ms)
		return nil
	}

	// Fall back to RFC3339 string format
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("timestamp must be Unix milliseconds (integer) or RFC3339 string")
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON implements custom marshaling (always output as RFC3339)
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.Time)
}

// Event types for the realtime channel
const (
	EventSystem = "system"
	EventPing   = "ping"
	EventPong   = "pong"
	EventError  = "error"

	// The named event carrying a notification to a user's sessions
	EventNotification = "notification"
)

// Event is the envelope every realtime message travels in
type Event struct {
	// Type identifies the event for routing
	Type string `json:"type"`

	// Payload contains the event-specific data
	Payload interface{} `json:"payload,omitempty"`

	// Timestamp when the event was created (accepts Unix ms or RFC3339)
	Timestamp FlexibleTime `json:"timestamp"`
}

// NewEvent creates an event with the current timestamp
func NewEvent(eventType string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: FlexibleTime{Time: time.Now().UTC()},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(code string, message string) *Event {
	return NewEvent(EventError, ErrorPayload{
		Code:    code,
		Message: message,
	})
}

// ErrorPayload represents an error event payload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PingPayload represents a ping event payload
type PingPayload struct {
	ClientTime int64 `json:"client_time"`
}

// PongPayload represents a pong event payload
type PongPayload struct {
	ClientTime int64 `json:"client_time"`
	ServerTime int64 `json:"server_time"`
	Latency    int64 `json:"latency_ms"`
}

// SystemPayload represents system event payloads
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// NotificationPayload is the public shape of a notification on the wire
type NotificationPayload struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Meta      models.Metadata `json:"meta,omitempty"`
	IsRead    bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NotificationEvent wraps a notification record for delivery
func NotificationEvent(n *models.Notification) *Event {
	return NewEvent(EventNotification, NotificationPayload{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		Meta:      n.Meta,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	})
}

// ParsePayload unmarshals the payload into a specific type
func (e *Event) ParsePayload(target interface{}) error {
	if e.Payload == nil {
		return nil
	}

	// Re-marshal and unmarshal to properly type the payload
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
