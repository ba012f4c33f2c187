package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeGateway opens Stripe Checkout sessions. It owns its client value and
// never touches the package-level stripe.Key.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway creates a gateway bound to one secret key and one webhook signing secret.
func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// CreateSession opens a one-line card checkout for the order amount.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID)

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		log.Printf("Stripe session creation failed for order %s: %v", req.OrderID, err)
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}

// RetrieveSession reads the payment status of a session.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return sessionStatus(s), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout session events.
func (g *StripeGateway) ParseWebhook(payload []byte, signatureHeader string) (*Notification, error) {
	return parseSignedEvent(payload, signatureHeader, g.webhookSecret)
}

func parseSignedEvent(payload []byte, header, secret string) (*Notification, error) {
	event, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	n := &Notification{EventID: event.ID, EventType: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return n, nil
	}
	switch n.EventType {
	case EventSessionCompleted, EventSessionExpired, EventAsyncPaymentSucceeded, EventAsyncPaymentFailed:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session of event %s: %w", event.ID, err)
		}
		status := sessionStatus(&s)
		n.SessionID = status.SessionID
		n.OrderID = status.OrderID
		n.PaymentStatus = status.PaymentStatus
		n.PaymentReference = status.PaymentReference
	}
	return n, nil
}

func sessionStatus(s *stripe.CheckoutSession) *SessionStatus {
	status := &SessionStatus{
		SessionID:     s.ID,
		OrderID:       s.Metadata["order_id"],
		PaymentStatus: string(s.PaymentStatus),
	}
	if status.OrderID == "" {
		status.OrderID = s.ClientReferenceID
	}
	if s.PaymentIntent != nil {
		status.PaymentReference = s.PaymentIntent.ID
	}
	return status
}
