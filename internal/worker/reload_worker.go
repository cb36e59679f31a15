package worker

import (
	"context"
	"errors"
	"time"

	"groupdash/internal/amqp"
	"groupdash/internal/log"
	"groupdash/internal/pipeline"
	"groupdash/internal/services"
)

// Reloader runs one full load.
type Reloader interface {
	Load(ctx context.Context) (*pipeline.Snapshot, error)
	Snapshot() *pipeline.Snapshot
}

// ReloadWorker turns reload request messages into pipeline runs.
type ReloadWorker struct {
	loader Reloader
	logger *log.Logger
}

func NewReloadWorker(loader Reloader, logger *log.Logger) *ReloadWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ReloadWorker{
		loader: loader,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReloadRequest runs a load for msg. Requests issued before the
// current snapshot started reading its sources are already satisfied and
// are skipped. A
// failed load is not retried: the failure is reported through the loader
// status and the message is settled. Only interrupted loads return an
// error, so the broker redelivers them.
func (w *ReloadWorker) HandleReloadRequest(ctx context.Context, msg *amqp.ReloadRequestMessage) error {
	if snap := w.loader.Snapshot(); snap != nil && !msg.Timestamp.IsZero() && msg.Timestamp.Before(snap.FetchedAt) {
		w.logger.DebugContext(ctx, "Reload request already satisfied",
			log.FieldReason, msg.Reason,
			log.FieldGeneration, snap.Generation)
		return nil
	}

	start := time.Now()
	snap, err := w.loader.Load(ctx)
	switch {
	case err == nil:
		w.logger.InfoContext(ctx, "Reload completed",
			log.FieldReason, msg.Reason,
			log.FieldGeneration, snap.Generation,
			log.FieldDuration, time.Since(start).Milliseconds())
		return nil
	case errors.Is(err, services.ErrSuperseded):
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, services.ErrClosed):
		return err
	default:
		w.logger.WarnContext(ctx, "Reload failed", log.FieldReason, msg.Reason, log.FieldError, err)
		return nil
	}
}
