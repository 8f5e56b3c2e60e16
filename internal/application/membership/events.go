package membership

import (
	"context"
	"time"
)

// Event types published after membership mutations.
const (
	EventMembershipRegistered = "membership.registered"
	EventSubmissionCreated    = "membership.submission.created"
	EventSubmissionValidated  = "membership.submission.validated"
	EventSubmissionRejected   = "membership.submission.rejected"
	EventStatusChanged        = "membership.status.changed"
	// EventReconcileRequested asks the worker to re-run reconciliation, for
	// instance after an inline rollup write failed.
	EventReconcileRequested = "membership.reconcile.requested"
)

// Event is the payload of a membership lifecycle event.
type Event struct {
	Type         string            `json:"type"`
	MembershipID string            `json:"membership_id"`
	SubmissionID string            `json:"submission_id,omitempty"`
	Status       string            `json:"status,omitempty"`
	Actor        string            `json:"actor,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}

// EventPublisher delivers events to the outside world.
type EventPublisher interface {
	Publish(ctx context.Context, evt *Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *Event) error { return nil }

//Personal.AI order the ending
