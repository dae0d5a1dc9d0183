package messaging

import (
	"context"
	"time"
)

// Channel on which notification status events are published.
const NotificationChannel = "notifications.status"

// Publisher publishes events to interested subscribers
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Event describes a notification state transition.
type Event struct {
	Type           string    `json:"type"`
	NotificationID string    `json:"notification_id"`
	Notification   string    `json:"notification_type"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type nopPublisher struct{}

// Nop returns a publisher that drops every event.
func Nop() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (nopPublisher) Close() error                                       { return nil }
