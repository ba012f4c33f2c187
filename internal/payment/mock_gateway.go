package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76/webhook"
)

// MockGateway keeps sessions in memory and signs its notifications with the
// same scheme as Stripe, so the webhook path is exercised end to end without a provider.
type MockGateway struct {
	mu       sync.Mutex
	sessions map[string]*mockSession
	secret   string

	// AutoConfirm marks a session paid the first time it is retrieved.
	AutoConfirm bool
	// FailCreate makes CreateSession fail, as a provider outage would.
	FailCreate bool
}

type mockSession struct {
	req       SessionRequest
	status    string
	reference string
}

func NewMockGateway(webhookSecret string) *MockGateway {
	return &MockGateway{
		sessions: make(map[string]*mockSession),
		secret:   webhookSecret,
	}
}

func (g *MockGateway) CreateSession(_ context.Context, req SessionRequest) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.FailCreate {
		return nil, fmt.Errorf("%w: mock provider unavailable", ErrGateway)
	}
	id := "cs_mock_" + uuid.NewString()
	g.sessions[id] = &mockSession{req: req, status: PaymentStatusUnpaid}
	return &Session{ID: id, URL: checkoutURL(req.SuccessURL, id)}, nil
}

// checkoutURL sends the buyer straight to the success redirect with the
// session id filled in, as the hosted page would after payment.
func checkoutURL(successURL, sessionID string) string {
	u, err := url.Parse(successURL)
	if err != nil {
		return successURL
	}
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (g *MockGateway) RetrieveSession(_ context.Context, sessionID string) (*SessionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: no such session %s", ErrGateway, sessionID)
	}
	if g.AutoConfirm && s.status != PaymentStatusPaid {
		s.status = PaymentStatusPaid
		s.reference = "pi_mock_" + uuid.NewString()
	}
	return &SessionStatus{
		SessionID:        sessionID,
		OrderID:          s.req.OrderID,
		PaymentStatus:    s.status,
		PaymentReference: s.reference,
	}, nil
}

func (g *MockGateway) ParseWebhook(payload []byte, signatureHeader string) (*Notification, error) {
	return parseSignedEvent(payload, signatureHeader, g.secret)
}

// Pay settles a session and returns the signed checkout.session.completed
// notification the provider would deliver.
func (g *MockGateway) Pay(sessionID string) (payload []byte, header string, err error) {
	g.mu.Lock()
	s, ok := g.sessions[sessionID]
	if ok {
		s.status = PaymentStatusPaid
		if s.reference == "" {
			s.reference = "pi_mock_" + uuid.NewString()
		}
	}
	g.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: no such session %s", ErrGateway, sessionID)
	}
	return g.Notify(EventSessionCompleted, sessionID)
}

// Expire returns the signed checkout.session.expired notification for a session.
func (g *MockGateway) Expire(sessionID string) (payload []byte, header string, err error) {
	return g.Notify(EventSessionExpired, sessionID)
}

// Notify builds and signs a notification of the given type for a known session.
func (g *MockGateway) Notify(eventType, sessionID string) ([]byte, string, error) {
	g.mu.Lock()
	s, ok := g.sessions[sessionID]
	var status, reference, orderID string
	if ok {
		status, reference, orderID = s.status, s.reference, s.req.OrderID
	}
	g.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("%w: no such session %s", ErrGateway, sessionID)
	}

	object := map[string]any{
		"id":                  sessionID,
		"object":              "checkout.session",
		"payment_status":      status,
		"client_reference_id": orderID,
		"metadata":            map[string]string{"order_id": orderID},
	}
	if reference != "" {
		object["payment_intent"] = reference
	}
	payload, err := json.Marshal(map[string]any{
		"id":     "evt_mock_" + uuid.NewString(),
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": object},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode mock event: %w", err)
	}
	return payload, g.Sign(payload), nil
}

// Sign produces a Stripe-Signature header for payload.
func (g *MockGateway) Sign(payload []byte) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    g.secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}
