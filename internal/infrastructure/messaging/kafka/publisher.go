package kafka

import (
	"context"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// MessagePublisher is the write side used by EventPublisher and the
// consumer's dead-letter path.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// EventPublisher adapts a Producer to the membership service's event port.
// Events are keyed by membership id so one membership's events stay ordered.
type EventPublisher struct {
	producer MessagePublisher
	prefix   string
}

// NewEventPublisher publishes events under topicPrefix.
func NewEventPublisher(producer MessagePublisher, topicPrefix string) *EventPublisher {
	return &EventPublisher{producer: producer, prefix: topicPrefix}
}

// Publish wraps evt in an envelope and writes it to the topic named after
// its type.
func (p *EventPublisher) Publish(ctx context.Context, evt *appmembership.Event) error {
	env, err := NewEventEnvelope(evt.Type, evt)
	if err != nil {
		return err
	}
	if !evt.OccurredAt.IsZero() {
		env.Timestamp = evt.OccurredAt
	}
	if rid, ok := ctx.Value(common.ContextKeyRequestID).(string); ok {
		env.RequestID = rid
	}
	if evt.Actor != "" {
		env.Metadata = map[string]string{"actor": evt.Actor}
	}

	msg, err := env.ToMessage(TopicName(p.prefix, evt.Type), evt.MembershipID)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

// DecodeEvent extracts a membership event from a consumed message.
func DecodeEvent(msg *common.Message) (*appmembership.Event, error) {
	env, err := MessageToEventEnvelope(msg)
	if err != nil {
		return nil, err
	}
	var evt appmembership.Event
	if err := env.DecodePayload(&evt); err != nil {
		return nil, err
	}
	if evt.Type == "" {
		evt.Type = env.EventType
	}
	return &evt, nil
}

//Personal.AI order the ending
