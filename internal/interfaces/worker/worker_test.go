package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClubDues/internal/testutil"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

type noProofs struct{}

func (noProofs) UploadProof(context.Context, string, string, *appmembership.ProofUpload) (*domain.ProofRef, error) {
	return nil, errors.New("unused")
}

type fakeRecorder struct {
	mu      sync.Mutex
	results map[string][]error
}

func (r *fakeRecorder) RecordEvent(topic string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[string][]error{}
	}
	r.results[topic] = append(r.results[topic], err)
}

type env struct {
	store *testutil.MemStore
	svc   appmembership.Service
	log   *testutil.MockLogger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{store: testutil.NewMemStore(), log: testutil.NewMockLogger()}
	plans := testutil.NewMemPlanCatalog(testutil.InstallmentPlan("three-paid", false, 1000, 1000, 1000))
	svc, err := appmembership.NewService(e.store, plans, noProofs{}, nil, nil, nil, e.log, appmembership.ServiceConfig{
		PublicBaseURL: "https://club.example.org",
		NewID:         testutil.SequentialIDs("id"),
		NewPayCode:    testutil.SequentialIDs("code"),
	})
	require.NoError(t, err)
	e.svc = svc
	return e
}

// driftedMembership registers a membership and then marks its first
// installment paid behind the service's back.
func (e *env) driftedMembership(t *testing.T, associate string) *domain.Membership {
	t.Helper()
	res, err := e.svc.Register(context.Background(), &appmembership.RegisterRequest{
		AssociateID: associate, Season: "2026", PlanID: "three-paid",
	})
	require.NoError(t, err)
	inst := *res.Installments[0]
	inst.Status = domain.InstallmentPaid
	e.store.Seed(nil, []*domain.Installment{&inst}, nil)
	return res.Membership
}

func reconcileMessage(t *testing.T, membershipID string) *common.Message {
	t.Helper()
	envl, err := kafka.NewEventEnvelope(appmembership.EventReconcileRequested, &appmembership.Event{
		Type:         appmembership.EventReconcileRequested,
		MembershipID: membershipID,
	})
	require.NoError(t, err)
	pm, err := envl.ToMessage("clubdues."+kafka.TopicReconcileRequested, membershipID)
	require.NoError(t, err)
	return &common.Message{Topic: pm.Topic, Key: pm.Key, Value: pm.Value, Headers: pm.Headers}
}

func TestReconcileHandler_FixesDrift(t *testing.T) {
	e := newEnv(t)
	m := e.driftedMembership(t, "a-1")
	rec := &fakeRecorder{}
	h := NewReconcileHandler(e.svc, rec, e.log)

	msg := reconcileMessage(t, m.ID)
	require.NoError(t, h.Handle(context.Background(), msg))

	stored := e.store.Membership(m.ID)
	assert.Equal(t, domain.StatusPartial, stored.Status)
	assert.Equal(t, 1, stored.Rollup.InstallmentsSettled)
	assert.True(t, e.log.HasMessage("info", "membership reconciled"))
	assert.Equal(t, []error{nil}, rec.results[msg.Topic])

	// Redelivery is harmless.
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, domain.StatusPartial, e.store.Membership(m.ID).Status)
}

func TestReconcileHandler_UnknownMembershipIsDropped(t *testing.T) {
	e := newEnv(t)
	h := NewReconcileHandler(e.svc, nil, e.log)

	require.NoError(t, h.Handle(context.Background(), reconcileMessage(t, "missing")))
	assert.True(t, e.log.HasMessage("warn", "reconcile request for unknown membership"))

	require.NoError(t, h.Handle(context.Background(), reconcileMessage(t, "")))
	assert.True(t, e.log.HasMessage("warn", "reconcile request without membership id"))
}

func TestReconcileHandler_UndecodableIsRetried(t *testing.T) {
	e := newEnv(t)
	rec := &fakeRecorder{}
	h := NewReconcileHandler(e.svc, rec, e.log)

	msg := &common.Message{Topic: "clubdues.membership.reconcile.requested", Value: []byte("{not json")}
	err := h.Handle(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, e.log.HasMessage("error", "undecodable reconcile request"))
	require.Len(t, rec.results[msg.Topic], 1)
	assert.Error(t, rec.results[msg.Topic][0])
}

func TestSweeper(t *testing.T) {
	e := newEnv(t)
	e.driftedMembership(t, "a-1")
	e.driftedMembership(t, "a-2")

	_, err := NewSweeper(e.svc, SweeperConfig{Schedule: "every now and then"}, e.log)
	require.Error(t, err)

	s, err := NewSweeper(e.svc, SweeperConfig{Schedule: "@every 1h", BatchSize: 1, Timeout: time.Minute}, e.log)
	require.NoError(t, err)

	report, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.StatusChanged)
	assert.Zero(t, report.Failed)
	assert.True(t, e.log.HasMessage("info", "sweep finished"))

	s.Start()
	require.NoError(t, s.Stop(context.Background()))
}

type fakeConsumer struct {
	mu       sync.Mutex
	handlers map[string]common.MessageHandler
	started  bool
	closed   bool
	startErr error
}

func (c *fakeConsumer) Subscribe(topic string, h common.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers == nil {
		c.handlers = map[string]common.MessageHandler{}
	}
	c.handlers[topic] = h
}

func (c *fakeConsumer) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = true
	return c.startErr
}

func (c *fakeConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func TestWorker_RunLifecycle(t *testing.T) {
	e := newEnv(t)
	consumer := &fakeConsumer{}
	sweeper, err := NewSweeper(e.svc, SweeperConfig{Schedule: "@every 1h"}, e.log)
	require.NoError(t, err)
	topic := kafka.TopicName("clubdues", kafka.TopicReconcileRequested)
	w := New(consumer, topic, NewReconcileHandler(e.svc, nil, e.log), sweeper, e.log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		consumer.mu.Lock()
		defer consumer.mu.Unlock()
		return consumer.started
	}, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Contains(t, consumer.handlers, topic)
	assert.True(t, consumer.closed)
	assert.True(t, e.log.HasMessage("info", "worker stopped"))
}

func TestWorker_StartFailure(t *testing.T) {
	e := newEnv(t)
	consumer := &fakeConsumer{startErr: errors.New("no brokers")}
	w := New(consumer, "t", NewReconcileHandler(e.svc, nil, e.log), nil, e.log)
	require.EqualError(t, w.Run(context.Background()), "no brokers")
}

func TestWorker_WithoutKafka(t *testing.T) {
	e := newEnv(t)
	w := New(nil, "", nil, nil, e.log)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, w.Run(ctx))
	assert.True(t, e.log.HasMessage("warn", "kafka disabled; reconcile requests are not consumed"))
}

//Personal.AI order the ending
