package kafka

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/ClubDues/internal/config"
	"github.com/turtacn/ClubDues/internal/testutil"
	"github.com/turtacn/ClubDues/pkg/errors"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// mockKafkaReader serves queued messages, then blocks until cancelled.
type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockKafkaReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (m *mockKafkaReader) committedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

// recordingPublisher captures dead-lettered messages.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*common.ProducerMessage
	err  error
}

func (r *recordingPublisher) Publish(_ context.Context, msg *common.ProducerMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recordingPublisher) published() []*common.ProducerMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*common.ProducerMessage(nil), r.msgs...)
}

func newTestConsumer(reader ReaderInterface, dl MessagePublisher, retries int) *Consumer {
	c := NewConsumerWithReader(reader, ConsumerConfig{
		Brokers:     []string{"localhost:9092"},
		GroupID:     "test-group",
		Topics:      []string{"reconcile"},
		RetryConfig: RetryConfig{MaxRetries: retries, RetryBackoff: time.Millisecond, MaxRetryBackoff: 2 * time.Millisecond},
	}, dl, testutil.NewMockLogger())
	return c
}

func TestConsumerConfigFromKafka(t *testing.T) {
	cfg := ConsumerConfigFromKafka(config.KafkaConfig{
		Brokers: []string{"k:9092"}, GroupID: "g", MaxRetries: 4,
	}, "a", "b")
	assert.Equal(t, []string{"a", "b"}, cfg.Topics)
	assert.Equal(t, "g", cfg.GroupID)
	assert.Equal(t, 4, cfg.RetryConfig.MaxRetries)
	assert.NoError(t, ValidateConsumerConfig(cfg))
}

func TestValidateConsumerConfig(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"b"}, GroupID: "g", Topics: []string{"t"}}
	assert.NoError(t, ValidateConsumerConfig(valid))

	tests := []struct {
		name   string
		mutate func(c *ConsumerConfig)
	}{
		{"no brokers", func(c *ConsumerConfig) { c.Brokers = nil }},
		{"no group", func(c *ConsumerConfig) { c.GroupID = "" }},
		{"no topics", func(c *ConsumerConfig) { c.Topics = nil }},
		{"bad offset reset", func(c *ConsumerConfig) { c.AutoOffsetReset = "middle" }},
		{"negative retries", func(c *ConsumerConfig) { c.RetryConfig.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.True(t, errors.IsValidation(ValidateConsumerConfig(cfg)))
		})
	}
}

func TestConsumer_StartTwice(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, nil, 1)
	require.NoError(t, c.Start(context.Background()))
	defer c.Close()
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{
		Topic:   "reconcile",
		Offset:  7,
		Key:     []byte("m-1"),
		Value:   []byte("value"),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("x")}},
	}}}
	c := newTestConsumer(reader, nil, 1)

	got := make(chan *common.Message, 1)
	c.Subscribe("reconcile", func(_ context.Context, msg *common.Message) error {
		got <- msg
		return nil
	})
	require.NoError(t, c.Start(context.Background()))

	select {
	case msg := <-got:
		assert.Equal(t, "value", string(msg.Value))
		assert.Equal(t, int64(7), msg.Offset)
		assert.Equal(t, "x", msg.Headers["event_type"])
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}

	assert.Eventually(t, func() bool { return reader.committedCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestConsumer_UnhandledTopicIsCommitted(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{{Topic: "other", Value: []byte("v")}}}
	c := newTestConsumer(reader, nil, 1)
	require.NoError(t, c.Start(context.Background()))

	assert.Eventually(t, func() bool { return reader.committedCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.Zero(t, c.Stats().Processed)
}

func TestProcessMessage_RetrySucceeds(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, nil, 3)
	attempts := 0
	handler := func(context.Context, *common.Message) error {
		attempts++
		if attempts < 3 {
			return stderrors.New("transient")
		}
		return nil
	}

	require.NoError(t, c.processMessage(context.Background(), &common.Message{Topic: "reconcile"}, handler))
	assert.Equal(t, 3, attempts)
	assert.Equal(t, int64(2), c.Stats().Retried)
	assert.Equal(t, int64(1), c.Stats().Processed)
}

func TestProcessMessage_ExhaustedGoesToDeadLetter(t *testing.T) {
	dl := &recordingPublisher{}
	c := newTestConsumer(&mockKafkaReader{}, dl, 2)
	attempts := 0
	handler := func(context.Context, *common.Message) error {
		attempts++
		return stderrors.New("still broken")
	}
	msg := &common.Message{Topic: "reconcile", Key: []byte("m-1"), Value: []byte("v"), Headers: map[string]string{"event_type": "x"}}

	require.NoError(t, c.processMessage(context.Background(), msg, handler))
	assert.Equal(t, 3, attempts)

	sent := dl.published()
	require.Len(t, sent, 1)
	assert.Equal(t, "reconcile.dlq", sent[0].Topic)
	assert.Equal(t, "m-1", string(sent[0].Key))
	assert.Equal(t, "reconcile", sent[0].Headers[HeaderOriginalTopic])
	assert.Equal(t, "still broken", sent[0].Headers[HeaderErrorMessage])
	assert.Equal(t, "x", sent[0].Headers["event_type"])
	assert.NotContains(t, msg.Headers, HeaderOriginalTopic)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.DeadLettered)
}

func TestProcessMessage_ConfiguredDeadLetterTopic(t *testing.T) {
	dl := &recordingPublisher{}
	c := newTestConsumer(&mockKafkaReader{}, dl, 1)
	c.config.RetryConfig.DeadLetterTopic = "custom.dlq"

	fail := func(context.Context, *common.Message) error { return stderrors.New("x") }
	require.NoError(t, c.processMessage(context.Background(), &common.Message{Topic: "reconcile"}, fail))
	require.Len(t, dl.published(), 1)
	assert.Equal(t, "custom.dlq", dl.published()[0].Topic)
}

func TestProcessMessage_DeadLetterFailureIsLogged(t *testing.T) {
	dl := &recordingPublisher{err: stderrors.New("dlq down")}
	log := testutil.NewMockLogger()
	c := newTestConsumer(&mockKafkaReader{}, dl, 1)
	c.logger = log

	fail := func(context.Context, *common.Message) error { return stderrors.New("x") }
	require.NoError(t, c.processMessage(context.Background(), &common.Message{Topic: "reconcile"}, fail))
	assert.True(t, log.HasMessage("error", "failed to send to dead letter topic"))
	assert.Zero(t, c.Stats().DeadLettered)
}

func TestProcessMessage_CancelledDuringBackoff(t *testing.T) {
	c := newTestConsumer(&mockKafkaReader{}, nil, 3)
	c.sleep = func(ctx context.Context, _ time.Duration) error { return context.Canceled }

	err := c.processMessage(context.Background(), &common.Message{Topic: "reconcile"}, func(context.Context, *common.Message) error {
		return stderrors.New("x")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

//Personal.AI order the ending
