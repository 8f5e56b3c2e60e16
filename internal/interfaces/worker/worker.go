package worker

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// Consumer is the subset of the Kafka consumer the worker drives.
type Consumer interface {
	Subscribe(topic string, handler common.MessageHandler)
	Start(ctx context.Context) error
	Close() error
}

// Worker ties the reconcile consumer and the sweep schedule to one
// lifecycle.
type Worker struct {
	consumer        Consumer
	topic           string
	handler         *ReconcileHandler
	sweeper         *Sweeper
	shutdownTimeout time.Duration
	logger          logging.Logger
}

// New creates a Worker.  consumer may be nil when Kafka is disabled, in which
// case only the sweep runs.
func New(consumer Consumer, topic string, handler *ReconcileHandler, sweeper *Sweeper, logger logging.Logger) *Worker {
	return &Worker{
		consumer:        consumer,
		topic:           topic,
		handler:         handler,
		sweeper:         sweeper,
		shutdownTimeout: 30 * time.Second,
		logger:          logger,
	}
}

// Run starts consuming and scheduling, then blocks until ctx is done and
// shuts both down.
func (w *Worker) Run(ctx context.Context) error {
	if w.consumer != nil {
		w.consumer.Subscribe(w.topic, w.handler.Handle)
		if err := w.consumer.Start(ctx); err != nil {
			return err
		}
	} else {
		w.logger.Warn("kafka disabled; reconcile requests are not consumed")
	}
	if w.sweeper != nil {
		w.sweeper.Start()
	}

	w.logger.Info("worker started", logging.String("topic", w.topic))
	<-ctx.Done()
	w.logger.Info("worker stopping")

	stopCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()

	var result *multierror.Error
	if w.sweeper != nil {
		if err := w.sweeper.Stop(stopCtx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if w.consumer != nil {
		if err := w.consumer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	w.logger.Info("worker stopped")
	return result.ErrorOrNil()
}

//Personal.AI order the ending
