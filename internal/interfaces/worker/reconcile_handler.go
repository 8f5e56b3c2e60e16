// Package worker runs the background side of the service: the Kafka
// consumer for reconcile requests and the periodic sweep.
package worker

import (
	"context"
	"time"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// EventRecorder counts consumed events by topic and result.
type EventRecorder interface {
	RecordEvent(topic string, err error)
}

// ReconcileHandler re-runs status reconciliation and the rollup for the
// membership named in a reconcile request.
type ReconcileHandler struct {
	svc      appmembership.Service
	recorder EventRecorder
	timeout  time.Duration
	logger   logging.Logger
}

// NewReconcileHandler creates a handler.  recorder may be nil.
func NewReconcileHandler(svc appmembership.Service, recorder EventRecorder, logger logging.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		svc:      svc,
		recorder: recorder,
		timeout:  time.Minute,
		logger:   logger.Named("reconcile"),
	}
}

// Handle satisfies common.MessageHandler.  A returned error makes the
// consumer retry and eventually dead-letter the message; a membership that
// no longer exists is dropped.
func (h *ReconcileHandler) Handle(ctx context.Context, msg *common.Message) (err error) {
	defer func() {
		if h.recorder != nil {
			h.recorder.RecordEvent(msg.Topic, err)
		}
	}()

	evt, err := kafka.DecodeEvent(msg)
	if err != nil {
		h.logger.Error("undecodable reconcile request",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return err
	}
	if evt.MembershipID == "" {
		h.logger.Warn("reconcile request without membership id", logging.Int64("offset", msg.Offset))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	rec, err := h.svc.Reconcile(ctx, evt.MembershipID)
	if err != nil {
		if errors.KindOf(err) == errors.KindNotFound {
			h.logger.Warn("reconcile request for unknown membership", logging.MembershipID(evt.MembershipID))
			return nil
		}
		return err
	}
	roll, err := h.svc.RecomputeRollup(ctx, evt.MembershipID)
	if err != nil {
		return err
	}

	h.logger.Info("membership reconciled",
		logging.MembershipID(evt.MembershipID),
		logging.String("status", string(rec.Status)),
		logging.Bool("status_changed", rec.StatusChanged),
		logging.Bool("rollup_changed", roll.Changed))
	return nil
}

//Personal.AI order the ending
