// Package worker exports recorded transactions to an external sheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"ledgerbot/internal/amqp"
	"ledgerbot/internal/core"
	"ledgerbot/internal/sheets"
)

// ExportStore is the slice of the repository the export worker needs.
type ExportStore interface {
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
	GetPendingExport(ctx context.Context, limit int) ([]int64, error)
	MarkExported(ctx context.Context, id int64) error
	MarkExportError(ctx context.Context, id int64) error
}

// ExportWorker moves pending transactions from SQLite to the sheet.
type ExportWorker struct {
	store     ExportStore
	sheets    sheets.RowAppender
	batchSize int
}

func NewExportWorker(store ExportStore, appender sheets.RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		sheets:    appender,
		batchSize: batchSize,
	}
}

// HandleChange processes a single ledger event from AMQP. Deletes are
// acknowledged without touching the sheet; exported rows are not removed.
func (w *ExportWorker) HandleChange(ctx context.Context, event *amqp.LedgerEvent) error {
	if event.Op == "delete" {
		slog.InfoContext(ctx, "Skipping delete event", "id", event.ID)
		return nil
	}

	tx, err := w.store.GetTransaction(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if tx == nil {
		// Row was deleted between the event and now.
		slog.WarnContext(ctx, "Transaction no longer exists", "id", event.ID)
		return nil
	}

	return w.exportToSheets(ctx, *tx)
}

// ProcessPending exports any transactions whose events were lost. This is the
// backup path behind the AMQP consumer.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	ids, err := w.store.GetPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(ids))

	for _, id := range ids {
		tx, err := w.store.GetTransaction(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get transaction", "id", id, "error", err)
			if err := w.store.MarkExportError(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", err)
			}
			continue
		}
		if tx == nil {
			continue
		}

		if err := w.exportToSheets(ctx, *tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction", "id", id, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck exports pending transactions left over from worker downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	ids, err := w.store.GetPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(ids) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(ids))

	exported := 0
	failed := 0

	for _, id := range ids {
		tx, err := w.store.GetTransaction(ctx, id)
		if err != nil || tx == nil {
			if err != nil {
				slog.ErrorContext(ctx, "Failed to get transaction for startup export",
					"id", id, "error", err)
				if markErr := w.store.MarkExportError(ctx, id); markErr != nil {
					slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
				}
			}
			failed++
			continue
		}

		if err := w.exportToSheets(ctx, *tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"id", id, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(ids),
		"exported", exported,
		"errors", failed)

	return nil
}

func (w *ExportWorker) exportToSheets(ctx context.Context, tx core.Transaction) error {
	ref, err := w.sheets.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.store.MarkExported(ctx, tx.ID); err != nil {
		// The append itself succeeded; the pending backup path will retry the mark.
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", tx.ID,
		"sheets_ref", ref,
		"amount_cents", tx.Amount.Cents)

	return nil
}
