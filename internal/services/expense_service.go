// Package services orchestrates the store calls behind each bot operation.
package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"catat/internal/core"
	applog "catat/internal/log"
	"catat/internal/records"
)

// EventPublisher announces stored expenses. Implemented by amqp.Client.
type EventPublisher interface {
	PublishExpenseRecorded(ctx context.Context, ref string, e core.Expense) error
}

// publishQueueSize bounds the events waiting for the broker.
const publishQueueSize = 64

type publishJob struct {
	ctx context.Context
	ref string
	e   core.Expense
}

// ExpenseService writes completed expenses to the store and announces them.
// Events are published in write order by a background goroutine, so a slow
// broker never delays the reply to the user.
type ExpenseService struct {
	writer    records.RecordWriter
	publisher EventPublisher

	queue     chan publishJob
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// NewExpenseService wires the store writer. publisher may be nil.
func NewExpenseService(writer records.RecordWriter, publisher EventPublisher) *ExpenseService {
	s := &ExpenseService{
		writer:    writer,
		publisher: publisher,
	}
	if publisher != nil {
		s.queue = make(chan publishJob, publishQueueSize)
		s.done = make(chan struct{})
		go s.publishLoop()
	}
	return s
}

// Record validates e and performs exactly one remote write. Store failures
// are returned without retry. A failed publish is logged and does not
// affect the result.
func (s *ExpenseService) Record(ctx context.Context, e core.Expense) (string, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentExpense)

	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validate expense: %w", err)
	}
	if s.writer == nil {
		return "", fmt.Errorf("create record: no store configured")
	}

	ref, err := s.writer.CreateRecord(ctx, e)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create record",
			applog.NewFields().
				WithOperation(applog.OpCreateRecord).
				WithExpense(e.Title, e.Amount, e.Category).
				WithError(err).ToSlice()...)
		return "", fmt.Errorf("create record: %w", err)
	}

	logger.InfoContext(ctx, "Expense recorded",
		applog.NewFields().
			WithOperation(applog.OpCreateRecord).
			WithExpense(e.Title, e.Amount, e.Category).
			ToSlice()...)

	if s.queue != nil {
		job := publishJob{ctx: context.WithoutCancel(ctx), ref: ref, e: e}
		select {
		case s.queue <- job:
		default:
			logger.WarnContext(ctx, "Publish queue full, dropping expense event",
				applog.FieldOperation, applog.OpPublish,
				applog.FieldRecordRef, ref)
		}
	}

	return ref, nil
}

func (s *ExpenseService) publishLoop() {
	defer close(s.done)
	for job := range s.queue {
		if err := s.publisher.PublishExpenseRecorded(job.ctx, job.ref, job.e); err != nil {
			applog.FromContext(job.ctx).WithComponent(applog.ComponentExpense).WarnContext(job.ctx, "Failed to publish expense event",
				applog.FieldOperation, applog.OpPublish,
				applog.FieldRecordRef, job.ref,
				applog.FieldError, err)
		}
	}
}

// Close waits for queued events to be published, then releases the
// publisher if it holds a connection. Record must not be called after
// Close.
func (s *ExpenseService) Close() error {
	s.closeOnce.Do(func() {
		if s.queue != nil {
			close(s.queue)
			<-s.done
		}
		if c, ok := s.publisher.(io.Closer); ok && c != nil {
			if err := c.Close(); err != nil {
				s.closeErr = fmt.Errorf("close publisher: %w", err)
			}
		}
	})
	return s.closeErr
}
