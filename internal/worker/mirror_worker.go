// Package worker applies expense events to a local archive.
package worker

import (
	"context"
	"fmt"

	"catat/internal/amqp"
	"catat/internal/core"
	applog "catat/internal/log"
)

// Mirror is the archive side of the worker. Implemented by
// storage.SQLiteRepository.
type Mirror interface {
	MirrorRecord(ctx context.Context, eventID string, e core.Expense) (string, bool, error)
}

// MirrorWorker copies every recorded expense into a local store so the
// remote store can be summarized offline.
type MirrorWorker struct {
	mirror Mirror
	logger *applog.Logger
}

func NewMirrorWorker(mirror Mirror, logger *applog.Logger) *MirrorWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MirrorWorker{mirror: mirror, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleExpenseRecorded applies one event. Replays are acknowledged
// without writing; invalid payloads are logged and dropped since retrying
// cannot fix them.
func (w *MirrorWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecorded) error {
	e := msg.Expense()
	if err := e.Validate(); err != nil {
		w.logger.WarnContext(ctx, "Dropping invalid expense event",
			applog.FieldEventID, msg.EventID,
			applog.FieldError, err)
		return nil
	}

	ref, applied, err := w.mirror.MirrorRecord(ctx, msg.EventID, e)
	if err != nil {
		return fmt.Errorf("mirror expense: %w", err)
	}
	if !applied {
		w.logger.DebugContext(ctx, "Event already mirrored", applog.FieldEventID, msg.EventID)
		return nil
	}

	w.logger.InfoContext(ctx, "Expense mirrored",
		applog.FieldEventID, msg.EventID,
		applog.FieldRecordRef, msg.RecordRef,
		"local_ref", ref,
		applog.FieldCategory, e.Category,
		applog.FieldAmount, e.Amount)
	return nil
}
