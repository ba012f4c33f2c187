package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testSecret = "whsec_test"

func signed(t *testing.T, payload string) string {
	t.Helper()
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testSecret,
		Timestamp: time.Now(),
	}).Header
}

func TestStripeParseWebhookCompleted(t *testing.T) {
	g := NewStripeGateway("sk_test_unused", testSecret)
	payload := `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_status": "paid",
			"payment_intent": "pi_123",
			"metadata": {"order_id": "order-1"}
		}}
	}`

	n, err := g.ParseWebhook([]byte(payload), signed(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", n.EventID)
	assert.Equal(t, "cs_test_1", n.SessionID)
	assert.Equal(t, "order-1", n.OrderID)
	assert.Equal(t, "pi_123", n.PaymentReference)
	assert.Equal(t, OutcomeSucceeded, n.Outcome())
}

func TestStripeParseWebhookFallsBackToClientReference(t *testing.T) {
	g := NewStripeGateway("sk_test_unused", testSecret)
	payload := `{"id":"evt_2","object":"event","type":"checkout.session.expired",
		"data":{"object":{"id":"cs_2","object":"checkout.session","payment_status":"unpaid","client_reference_id":"order-2"}}}`

	n, err := g.ParseWebhook([]byte(payload), signed(t, payload))
	require.NoError(t, err)
	assert.Equal(t, "order-2", n.OrderID)
	assert.Equal(t, OutcomeFailed, n.Outcome())
}

func TestStripeParseWebhookRejectsBadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test_unused", testSecret)
	payload := `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`
	header := signed(t, payload)

	_, err := g.ParseWebhook([]byte(payload+" "), header)
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = g.ParseWebhook([]byte(payload), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = g.ParseWebhook([]byte(payload), "")
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestNotificationOutcome(t *testing.T) {
	cases := []struct {
		n    Notification
		want Outcome
	}{
		{Notification{EventType: EventSessionCompleted, PaymentStatus: PaymentStatusPaid}, OutcomeSucceeded},
		{Notification{EventType: EventSessionCompleted, PaymentStatus: PaymentStatusUnpaid}, OutcomePending},
		{Notification{EventType: EventAsyncPaymentSucceeded}, OutcomeSucceeded},
		{Notification{EventType: EventAsyncPaymentFailed}, OutcomeFailed},
		{Notification{EventType: EventSessionExpired}, OutcomeFailed},
		{Notification{EventType: "charge.refunded"}, OutcomeIgnored},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.n.Outcome(), c.n.EventType)
	}
}

func TestMockGatewayRoundTrip(t *testing.T) {
	g := NewMockGateway(testSecret)
	ctx := context.Background()

	s, err := g.CreateSession(ctx, SessionRequest{
		OrderID:     "order-9",
		AmountMinor: 2500,
		Currency:    "eur",
		SuccessURL:  "http://localhost:8080/api/v1/checkout/success?order_id=order-9",
	})
	require.NoError(t, err)
	assert.Contains(t, s.URL, "session_id="+s.ID)
	assert.Contains(t, s.URL, "order_id=order-9")

	status, err := g.RetrieveSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, status.Paid())

	payload, header, err := g.Pay(s.ID)
	require.NoError(t, err)
	n, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "order-9", n.OrderID)
	assert.Equal(t, OutcomeSucceeded, n.Outcome())
	assert.NotEmpty(t, n.PaymentReference)

	status, err = g.RetrieveSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, status.Paid())
	assert.Equal(t, n.PaymentReference, status.PaymentReference)
}

func TestMockGatewayFailures(t *testing.T) {
	g := NewMockGateway(testSecret)
	g.FailCreate = true
	_, err := g.CreateSession(context.Background(), SessionRequest{OrderID: "o"})
	assert.ErrorIs(t, err, ErrGateway)

	_, err = g.RetrieveSession(context.Background(), "cs_unknown")
	assert.ErrorIs(t, err, ErrGateway)

	other := NewMockGateway("whsec_other")
	other.AutoConfirm = true
	s, err := other.CreateSession(context.Background(), SessionRequest{OrderID: "o", SuccessURL: "http://x/ok"})
	require.NoError(t, err)
	payload, header, err := other.Expire(s.ID)
	require.NoError(t, err)
	_, err = g.ParseWebhook(payload, header)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestMockGatewayConcurrentPayAndNotify(t *testing.T) {
	g := NewMockGateway(testSecret)
	s, err := g.CreateSession(context.Background(), SessionRequest{OrderID: "o", SuccessURL: "http://x/ok"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := g.Pay(s.ID)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := g.Notify(EventSessionCompleted, s.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	payload, header, err := g.Notify(EventSessionCompleted, s.ID)
	require.NoError(t, err)
	n, err := g.ParseWebhook(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "o", n.OrderID)
	assert.Equal(t, OutcomeSucceeded, n.Outcome())
	assert.NotEmpty(t, n.PaymentReference)
}
