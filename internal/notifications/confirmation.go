// Package notifications turns paid-order events into buyer confirmations.
package notifications

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"boutique/internal/events"
	"boutique/internal/money"
	"boutique/pkg/rabbitmq"

	"github.com/shopspring/decimal"
	amqp "github.com/streadway/amqp"
)

// Message is an outgoing buyer notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notifications.
type Sender interface {
	Send(msg Message) error
}

// LogSender writes notifications to the process log.
type LogSender struct{}

func (LogSender) Send(msg Message) error {
	log.Printf("Notification to %s: %s\n%s", msg.To, msg.Subject, msg.Body)
	return nil
}

// Confirmations builds and sends the order confirmation once an order is paid.
type Confirmations struct {
	sender Sender
	suffix string
}

func NewConfirmations(sender Sender, currencySuffix string) *Confirmations {
	return &Confirmations{sender: sender, suffix: currencySuffix}
}

// Start subscribes to the order queue.
func (c *Confirmations) Start(client *rabbitmq.Client) error {
	return client.Consume("order-confirmations", c.Handle)
}

// Handle processes one delivery. Events other than order.paid are acknowledged untouched.
func (c *Confirmations) Handle(msg amqp.Delivery) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		return fmt.Errorf("%w: %v", rabbitmq.ErrDiscard, err)
	}
	if env.EventType != events.OrderPaid {
		return nil
	}
	payload, err := events.DecodePayload[events.OrderPayload](env)
	if err != nil {
		return fmt.Errorf("%w: %v", rabbitmq.ErrDiscard, err)
	}
	if payload.Email == "" {
		log.Printf("Order %s paid without a buyer email, no confirmation sent", payload.OrderID)
		return nil
	}
	if err := c.sender.Send(c.Compose(payload)); err != nil {
		return fmt.Errorf("failed to send confirmation for order %s: %w", payload.OrderID, err)
	}
	return nil
}

// Compose renders the confirmation for a paid order.
func (c *Confirmations) Compose(p events.OrderPayload) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Bonjour %s,\n\n", p.FirstName)
	fmt.Fprintf(&b, "Votre commande n°%s a bien été payée.\n\n", p.OrderID)
	for _, item := range p.Items {
		fmt.Fprintf(&b, "- %s x%d : %s\n", item.Name, item.Qty, c.format(item.PriceCents*int64(item.Qty)))
	}
	fmt.Fprintf(&b, "\nTotal : %s\n", c.format(p.TotalCents))
	return Message{
		To:      p.Email,
		Subject: fmt.Sprintf("Commande n°%s confirmée", p.OrderID),
		Body:    b.String(),
	}
}

func (c *Confirmations) format(cents int64) string {
	return money.Format(decimal.New(cents, -2), c.suffix)
}
