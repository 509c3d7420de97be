package worker

import (
	"context"
	"fmt"
	"time"

	"conti/internal/amqp"
	"conti/internal/log"
	"conti/internal/storage"
)

// Consumer delivers ledger events until its context ends.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

// AuditWorker appends every ledger event it receives to the audit table.
type AuditWorker struct {
	store  *storage.Store
	logger *log.Logger
	now    func() time.Time
}

func NewAuditWorker(store *storage.Store, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentWorker),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// HandleEvent records one event. Redelivered events are recorded once.
func (w *AuditWorker) HandleEvent(ctx context.Context, e *amqp.LedgerEvent) error {
	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	sess, err := w.store.Acquire(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	err = sess.Queries().RecordEvent(ctx, storage.EventRecord{
		ID:         e.ID,
		Kind:       string(e.Kind),
		OwnerID:    e.OwnerID,
		EntityID:   e.EntityID,
		Payload:    body,
		OccurredAt: e.OccurredAt,
		RecordedAt: w.now(),
	})
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Kind, err)
	}

	w.logger.DebugContext(ctx, "Ledger event recorded",
		log.FieldEventID, e.ID,
		log.FieldEventKind, string(e.Kind),
		log.FieldOwner, e.OwnerID)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Audit worker started")
	err := c.Consume(ctx, w.HandleEvent)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Audit worker stopped")
		return nil
	}
	return err
}
