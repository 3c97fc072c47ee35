package bankfeed

import (
	"context"

	"centavo/internal/logger"
	"centavo/internal/models"
	"centavo/internal/services"
)

// Consumer is the queue surface the worker reads from.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(*TransactionEvent) error) error
}

// Worker drains the bank feed queue into pending imported transactions.
// Reconciliation stays a user decision; the worker only ingests.
type Worker struct {
	consumer Consumer
	imports  services.ImportServicer
}

// NewWorker creates a new Worker.
func NewWorker(consumer Consumer, imports services.ImportServicer) *Worker {
	return &Worker{consumer: consumer, imports: imports}
}

// Run consumes feed events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.ConsumeTransactionEvents(ctx, w.handleEvent)
}

// handleEvent validates and ingests one feed event. A malformed event is
// logged and dropped (returning nil acks it); only storage failures
// propagate so the delivery gets requeued.
func (w *Worker) handleEvent(event *TransactionEvent) error {
	if err := event.Validate(); err != nil {
		logger.Get().Warnw("dropping malformed feed event",
			"error", err,
			"external_id", event.ExternalID)
		return nil
	}

	amount, err := event.MinorUnits()
	if err != nil {
		logger.Get().Warnw("dropping feed event with bad amount",
			"error", err,
			"external_id", event.ExternalID)
		return nil
	}

	imported, err := w.imports.Ingest(
		event.UserID,
		models.Space(event.Space).Normalize(),
		event.AccountRef,
		event.ExternalID,
		amount,
		models.Direction(event.Direction),
		event.OccurredAt,
	)
	if err != nil {
		return err
	}

	logger.Get().Infow("ingested feed event",
		"import_id", imported.ID,
		"external_id", event.ExternalID,
		"amount", amount,
		"direction", event.Direction)
	return nil
}
