package kafka

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ClubDues/internal/testutil"
	"github.com/turtacn/ClubDues/pkg/errors"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

func TestTopicName(t *testing.T) {
	assert.Equal(t, "membership.registered", TopicName("", TopicMembershipRegistered))
	assert.Equal(t, "prod.membership.registered", TopicName("prod", TopicMembershipRegistered))
	assert.Equal(t, "prod.membership.registered", TopicName("prod.", TopicMembershipRegistered))
	assert.Equal(t, "prod.membership.reconcile.requested.dlq", DeadLetterTopic(TopicName("prod", TopicReconcileRequested)))
}

func TestEventEnvelope_RoundTrip(t *testing.T) {
	env, err := NewEventEnvelope("membership.registered", map[string]string{"membership_id": "m-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, EnvelopeSource, env.Source)
	env.RequestID = "req-1"

	msg, err := env.ToMessage("membership.registered", "m-1")
	require.NoError(t, err)
	assert.Equal(t, "m-1", string(msg.Key))
	assert.Equal(t, "membership.registered", msg.Headers[HeaderEventType])
	assert.Equal(t, env.EventID, msg.Headers[HeaderEventID])
	assert.Equal(t, "req-1", msg.Headers[HeaderRequestID])

	decoded, err := MessageToEventEnvelope(&common.Message{Value: msg.Value})
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, "m-1", payload["membership_id"])
}

func TestEventEnvelope_Errors(t *testing.T) {
	_, err := NewEventEnvelope("", nil)
	assert.True(t, errors.IsValidation(err))

	_, err = NewEventEnvelope("x", make(chan int))
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	_, err = MessageToEventEnvelope(&common.Message{})
	assert.True(t, errors.IsValidation(err))

	_, err = MessageToEventEnvelope(&common.Message{Value: []byte("{not json")})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	env := &EventEnvelope{}
	assert.True(t, errors.IsValidation(env.DecodePayload(&struct{}{})))
}

// mockConn is an in-memory broker admin connection.
type mockConn struct {
	existing  map[string]bool
	created   []kafka.TopicConfig
	createErr error
}

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, topics...)
	return nil
}

func (m *mockConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	if len(topics) == 1 && m.existing[topics[0]] {
		return []kafka.Partition{{Topic: topics[0]}}, nil
	}
	return nil, stderrors.New("unknown topic")
}

func (m *mockConn) Close() error { return nil }

func TestTopicManager_EnsureTopicsSkipsExisting(t *testing.T) {
	conn := &mockConn{existing: map[string]bool{"prod.membership.registered": true}}
	m := NewTopicManagerWithConn(conn, testutil.NewMockLogger())

	topics := DefaultTopics("prod")
	require.NoError(t, m.EnsureTopics(context.Background(), topics))
	assert.Len(t, conn.created, len(topics)-1)
	for _, c := range conn.created {
		assert.NotEqual(t, "prod.membership.registered", c.Topic)
		require.Len(t, c.ConfigEntries, 1)
		assert.Equal(t, "retention.ms", c.ConfigEntries[0].ConfigName)
	}
}

func TestTopicManager_CreateTopicErrors(t *testing.T) {
	m := NewTopicManagerWithConn(&mockConn{createErr: kafka.TopicAlreadyExists}, nil)
	assert.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1}))

	assert.True(t, errors.IsValidation(m.CreateTopic(context.Background(), TopicConfig{})))
	assert.True(t, errors.IsValidation(m.CreateTopic(context.Background(), TopicConfig{Name: "t"})))

	m = NewTopicManagerWithConn(&mockConn{createErr: stderrors.New("no controller")}, nil)
	err := m.CreateTopic(context.Background(), TopicConfig{Name: "t", NumPartitions: 1, ReplicationFactor: 1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMessagingError))
}

//Personal.AI order the ending
