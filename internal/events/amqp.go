package events

import (
	"context"
	"encoding/json"
	"fmt"

	"boutique/pkg/rabbitmq"
)

// AMQPPublisher sends envelopes to the order queue.
type AMQPPublisher struct {
	client *rabbitmq.Client
}

func NewAMQPPublisher(client *rabbitmq.Client) *AMQPPublisher {
	return &AMQPPublisher{client: client}
}

func (p *AMQPPublisher) Publish(_ context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return p.client.Publish(rabbitmq.Message{
		ID:            env.EventID,
		Type:          env.EventType,
		CorrelationID: env.CorrelationID,
		Timestamp:     env.OccurredAt,
		Body:          body,
	})
}

func (p *AMQPPublisher) Close() error {
	return p.client.Close()
}
