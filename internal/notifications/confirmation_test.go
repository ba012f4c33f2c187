package notifications

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"boutique/internal/events"
	"boutique/internal/models"
	"boutique/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	amqp "github.com/streadway/amqp"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(msg Message) error {
	return m.Called(msg).Error(0)
}

func delivery(t *testing.T, eventType string) amqp.Delivery {
	t.Helper()
	order := &models.Order{
		ID:          "order-7",
		Email:       "ada@example.com",
		FirstName:   "Ada",
		Status:      models.StatusPaid,
		Paid:        true,
		TotalAmount: decimal.RequireFromString("1234.56"),
		Items: []models.OrderItem{
			{ProductName: "Desk", Price: decimal.RequireFromString("1234.56"), Quantity: 1},
		},
	}
	env, err := events.NewOrderEnvelope(eventType, order, models.StatusPendingPayment)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return amqp.Delivery{Body: body}
}

func TestHandleSendsConfirmationForPaidOrders(t *testing.T) {
	sender := new(MockSender)
	c := NewConfirmations(sender, "€")

	sender.On("Send", mock.MatchedBy(func(m Message) bool {
		return m.To == "ada@example.com" &&
			m.Subject == "Commande n°order-7 confirmée" &&
			strings.Contains(m.Body, "Desk x1 : 1 234,56 €") &&
			strings.Contains(m.Body, "Total : 1 234,56 €")
	})).Return(nil).Once()

	require.NoError(t, c.Handle(delivery(t, events.OrderPaid)))
	sender.AssertExpectations(t)
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	sender := new(MockSender)
	c := NewConfirmations(sender, "€")

	require.NoError(t, c.Handle(delivery(t, events.OrderCreated)))
	sender.AssertNotCalled(t, "Send", mock.Anything)
}

func TestHandleDiscardsMalformedMessages(t *testing.T) {
	c := NewConfirmations(new(MockSender), "€")
	err := c.Handle(amqp.Delivery{Body: []byte("not json")})
	assert.ErrorIs(t, err, rabbitmq.ErrDiscard)
}

func TestHandleReturnsSenderFailures(t *testing.T) {
	sender := new(MockSender)
	c := NewConfirmations(sender, "€")
	smtpErr := errors.New("smtp: 535 authentication failed")
	sender.On("Send", mock.Anything).Return(smtpErr).Once()

	err := c.Handle(delivery(t, events.OrderPaid))
	assert.ErrorIs(t, err, smtpErr)
	// Left to the consumer, which requeues once and drops on the redelivery.
	assert.NotErrorIs(t, err, rabbitmq.ErrDiscard)
	sender.AssertExpectations(t)
}
