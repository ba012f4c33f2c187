package rabbitmq

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	amqp "github.com/streadway/amqp"
)

type recordingAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (r *recordingAcknowledger) Ack(uint64, bool) error { r.acked = true; return nil }
func (r *recordingAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	r.nacked, r.requeue = true, requeue
	return nil
}
func (r *recordingAcknowledger) Reject(uint64, bool) error { return nil }

func TestSettle(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		redelivered bool
		acked       bool
		requeue     bool
	}{
		{"success acks", nil, false, true, false},
		{"redelivered success acks", nil, true, true, false},
		{"discard drops", fmt.Errorf("bad payload: %w", ErrDiscard), false, false, false},
		{"failure requeues", fmt.Errorf("boom"), false, false, true},
		{"repeated failure drops", fmt.Errorf("smtp: auth failed"), true, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ack := &recordingAcknowledger{}
			settle(amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Redelivered: c.redelivered}, c.err)
			assert.Equal(t, c.acked, ack.acked)
			assert.Equal(t, !c.acked, ack.nacked)
			assert.Equal(t, c.requeue, ack.requeue)
		})
	}
}
