// Package wizard implements the guided expense entry dialogue: title, date,
// category and amount collected one turn at a time.
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catat/internal/core"
	applog "catat/internal/log"
	"catat/internal/records"
)

// Recorder submits a completed expense. Implemented by
// services.ExpenseService.
type Recorder interface {
	Record(ctx context.Context, e core.Expense) (string, error)
}

// Input is one user turn. Non-text turns (stickers, photos) leave the
// session untouched.
type Input struct {
	Text   string
	IsText bool
}

type Wizard struct {
	categories records.CategoryReader
	recorder   Recorder
	now        func() time.Time
	loc        *time.Location
	format     core.AmountFormatter
}

type Option func(*Wizard)

// WithClock overrides the source of "now".
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// WithLocation sets the zone DD/MM HH:mm answers are read in.
func WithLocation(loc *time.Location) Option {
	return func(w *Wizard) {
		if loc != nil {
			w.loc = loc
		}
	}
}

func WithFormatter(f core.AmountFormatter) Option {
	return func(w *Wizard) { w.format = f }
}

func New(categories records.CategoryReader, recorder Recorder, opts ...Option) *Wizard {
	w := &Wizard{
		categories: categories,
		recorder:   recorder,
		now:        time.Now,
		loc:        time.UTC,
		format:     core.NewAmountFormatter("id", "Rp"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start runs the init step: the draft is cleared, the title prompt is
// returned and the session waits for the title.
func (w *Wizard) Start(s *Session) []string {
	s.Draft = Draft{}
	s.Stage = StageAwaitTitle
	return []string{msgAskTitle}
}

// Step feeds one user turn to the session and returns the replies. Each
// call advances at most one stage.
func (w *Wizard) Step(ctx context.Context, s *Session, in Input) []string {
	if !s.Active() {
		return nil
	}
	if s.Stage == StageInit {
		return w.Start(s)
	}
	if !in.IsText {
		return nil
	}
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentWizard)
	text := strings.TrimSpace(in.Text)

	switch s.Stage {
	case StageAwaitTitle:
		if text == "" {
			return []string{msgAskTitle}
		}
		s.Draft.Title = &text
		s.Stage = StageAwaitDate
		return []string{msgAskDate}

	case StageAwaitDate:
		date, err := core.ParseEntryDate(text, w.now().In(w.loc))
		if err != nil {
			return []string{msgBadDate}
		}
		s.Draft.Date = &date
		s.Stage = StageAwaitCategory
		return []string{w.categoryPrompt(ctx, logger)}

	case StageAwaitCategory:
		if text == "" {
			return []string{msgAskCategoryFree}
		}
		s.Draft.Category = &text
		s.Stage = StageAwaitAmount
		return []string{msgAskAmount}

	case StageAwaitAmount:
		amount, err := core.ParseAmount(text)
		if err != nil {
			return []string{msgBadAmount}
		}
		s.Draft.Amount = &amount
		return w.submit(ctx, s, logger)
	}
	return nil
}

func (w *Wizard) categoryPrompt(ctx context.Context, logger *applog.Logger) string {
	if w.categories == nil {
		return msgAskCategoryFree
	}
	cats, err := w.categories.ListCategoryOptions(ctx)
	if err != nil {
		logger.WarnContext(ctx, "Category options unavailable",
			applog.FieldOperation, applog.OpListCategories,
			applog.FieldError, err)
		return msgAskCategoryFree
	}
	if len(cats) == 0 {
		return msgAskCategoryFree
	}
	var b strings.Builder
	b.WriteString(msgAskCategory)
	for _, c := range cats {
		b.WriteString("\n• ")
		b.WriteString(c)
	}
	return b.String()
}

// submit ends the wizard. An incomplete draft is abandoned without a reply.
// A failed write keeps the session at the amount step.
func (w *Wizard) submit(ctx context.Context, s *Session, logger *applog.Logger) []string {
	e, ok := s.Draft.Complete()
	if !ok {
		logger.WarnContext(ctx, "Abandoning incomplete draft", applog.FieldStage, s.Stage.String())
		s.Reset()
		return nil
	}
	if _, err := w.recorder.Record(ctx, e); err != nil {
		logger.ErrorContext(ctx, "Failed to save expense",
			applog.FieldOperation, applog.OpCreateRecord,
			applog.FieldError, err)
		return []string{msgSaveFailed}
	}
	s.Reset()
	return []string{fmt.Sprintf(msgSavedFmt, e.Title, w.format.Format(e.Amount))}
}
