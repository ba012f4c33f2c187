// Package events carries order lifecycle notifications to the message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"boutique/internal/models"
	"boutique/internal/money"

	"github.com/google/uuid"
)

const (
	OrderCreated       = "order.created"
	OrderPaid          = "order.paid"
	OrderCancelled     = "order.cancelled"
	OrderStatusChanged = "order.status_changed"
)

const (
	Producer      = "boutique"
	schemaVersion = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderItemPayload struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderPayload struct {
	OrderID          string             `json:"order_id"`
	UserID           string             `json:"user_id,omitempty"`
	Email            string             `json:"email"`
	FirstName        string             `json:"first_name"`
	Status           string             `json:"status"`
	PreviousStatus   string             `json:"previous_status,omitempty"`
	Paid             bool               `json:"paid"`
	TotalCents       int64              `json:"total_cents"`
	PaymentReference string             `json:"payment_reference,omitempty"`
	Items            []OrderItemPayload `json:"items,omitempty"`
}

// NewOrderEnvelope wraps an order snapshot into an envelope of the given type.
func NewOrderEnvelope(eventType string, order *models.Order, previous models.OrderStatus) (Envelope, error) {
	payload := OrderPayload{
		OrderID:          order.ID,
		UserID:           order.UserID,
		Email:            order.Email,
		FirstName:        order.FirstName,
		Status:           string(order.Status),
		PreviousStatus:   string(previous),
		Paid:             order.Paid,
		TotalCents:       money.MinorUnits(order.TotalAmount),
		PaymentReference: order.PaymentReference,
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, OrderItemPayload{
			ProductID:  item.ProductID,
			Name:       item.ProductName,
			Qty:        item.Quantity,
			PriceCents: money.MinorUnits(item.Price),
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  schemaVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      Producer,
		CorrelationID: order.ID,
		Payload:       body,
	}, nil
}

// DecodePayload unmarshals the envelope payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

// Publisher delivers envelopes to a broker. Publishing is best effort: the
// database stays the source of truth for order state.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Nop discards every envelope.
type Nop struct{}

func (Nop) Publish(context.Context, Envelope) error { return nil }
func (Nop) Close() error                            { return nil }
