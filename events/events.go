// Package events publishes order lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderPlaced         = "order.placed"
	TypeOrderStatusChanged  = "order.status_changed"
	TypeOrderPaymentUpdated = "order.payment_updated"
)

type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"totalPrice"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New returns an event with a fresh id.
func New(eventType, orderID, userID, status string, totalPrice float64, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OrderID:    orderID,
		UserID:     userID,
		Status:     status,
		TotalPrice: totalPrice,
		OccurredAt: at,
	}
}

// Publisher delivers events. Publication is best effort: callers log
// failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
