// Package payment adapts hosted-checkout payment providers to the order flow.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrSignatureInvalid is returned when a notification does not carry a valid signature.
	ErrSignatureInvalid = errors.New("invalid webhook signature")
	// ErrGateway wraps every failure reported by the provider.
	ErrGateway = errors.New("payment gateway error")
)

// Provider event types handled by the reconciler.
const (
	EventSessionCompleted      = "checkout.session.completed"
	EventSessionExpired        = "checkout.session.expired"
	EventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	EventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
)

const (
	PaymentStatusPaid            = "paid"
	PaymentStatusUnpaid          = "unpaid"
	PaymentStatusNoPaymentNeeded = "no_payment_required"
)

// Outcome is what a notification means for the order it refers to.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomePending
)

// SessionRequest describes the hosted checkout to open for one order.
type SessionRequest struct {
	OrderID     string
	Description string
	AmountMinor int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// Session is an opened hosted checkout.
type Session struct {
	ID  string
	URL string
}

// SessionStatus is the provider's view of a session, read on the success redirect.
type SessionStatus struct {
	SessionID        string
	OrderID          string
	PaymentStatus    string
	PaymentReference string
}

// Paid reports whether the provider considers the session settled.
func (s SessionStatus) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// Notification is a verified asynchronous event from the provider.
type Notification struct {
	EventID          string
	EventType        string
	SessionID        string
	OrderID          string
	PaymentStatus    string
	PaymentReference string
}

// Outcome classifies the notification. A completed session whose payment has
// not settled yet (delayed methods) is pending: the async events follow.
func (n Notification) Outcome() Outcome {
	switch n.EventType {
	case EventSessionCompleted:
		if n.PaymentStatus == PaymentStatusPaid || n.PaymentStatus == PaymentStatusNoPaymentNeeded {
			return OutcomeSucceeded
		}
		return OutcomePending
	case EventAsyncPaymentSucceeded:
		return OutcomeSucceeded
	case EventSessionExpired, EventAsyncPaymentFailed:
		return OutcomeFailed
	default:
		return OutcomeIgnored
	}
}

// Gateway is the hosted checkout provider.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error)
	// ParseWebhook verifies the signature header against the raw payload before decoding it.
	ParseWebhook(payload []byte, signatureHeader string) (*Notification, error)
}
