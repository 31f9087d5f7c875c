// Package bot routes chat turns to the entry wizard or to one-shot
// commands, and binds the router to Telegram.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"catat/internal/core"
	applog "catat/internal/log"
	"catat/internal/records"
	"catat/internal/wizard"
)

// Commands understood by the router.
const (
	CmdStart      = "start"
	CmdHelp       = "help"
	CmdAdd        = "add"
	CmdCancel     = "cancel"
	CmdCategories = "categories"
	CmdSummary    = "summary"

	detailFlag = "--detail"
)

// Message is one incoming turn.
type Message struct {
	ChatID int64
	Text   string
	IsText bool
}

// Summarizer runs one summary query. Implemented by
// services.SummaryService.
type Summarizer interface {
	Summarize(ctx context.Context, r core.DateRange) (core.Summary, error)
}

type Router struct {
	wizard     *wizard.Wizard
	sessions   *wizard.Sessions
	categories records.CategoryReader
	summaries  Summarizer
	now        func() time.Time
	loc        *time.Location
	renderer   Renderer
}

type Option func(*Router)

func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(r *Router) {
		if loc != nil {
			r.loc = loc
			r.renderer.Location = loc
		}
	}
}

func WithFormatter(f core.AmountFormatter) Option {
	return func(r *Router) { r.renderer.Format = f }
}

func NewRouter(w *wizard.Wizard, sessions *wizard.Sessions, categories records.CategoryReader, summaries Summarizer, opts ...Option) *Router {
	r := &Router{
		wizard:     w,
		sessions:   sessions,
		categories: categories,
		summaries:  summaries,
		now:        time.Now,
		loc:        time.UTC,
		renderer:   Renderer{Format: core.NewAmountFormatter("id", "Rp"), Location: time.UTC},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes one turn and returns the replies in order. Failures are
// turned into replies here; nothing escapes the turn.
func (r *Router) Handle(ctx context.Context, m Message) []string {
	cmd, args, isCmd := ParseCommand(m.Text)
	if !m.IsText || !isCmd {
		return r.continueWizard(ctx, m)
	}

	switch cmd {
	case CmdStart:
		return []string{msgStart}
	case CmdHelp:
		return []string{msgHelp}
	case CmdAdd:
		s, release := r.sessions.Acquire(m.ChatID)
		defer release()
		return r.wizard.Start(s)
	case CmdCancel:
		s, release := r.sessions.Acquire(m.ChatID)
		defer release()
		if !s.Active() {
			return []string{msgNothingCancel}
		}
		s.Reset()
		return []string{msgCancelled}
	case CmdCategories:
		return r.listCategories(ctx)
	case CmdSummary:
		return r.summary(ctx, args)
	default:
		return []string{msgUnknown}
	}
}

func (r *Router) continueWizard(ctx context.Context, m Message) []string {
	s, release := r.sessions.Acquire(m.ChatID)
	defer release()
	return r.wizard.Step(ctx, s, wizard.Input{Text: m.Text, IsText: m.IsText})
}

func (r *Router) listCategories(ctx context.Context) []string {
	cats, err := r.categories.ListCategoryOptions(ctx)
	if err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentRouter).ErrorContext(ctx, "Failed to list categories",
			applog.FieldOperation, applog.OpListCategories,
			applog.FieldError, err)
		return []string{msgActionFailed}
	}
	if len(cats) == 0 {
		return []string{msgNoCategories}
	}
	return []string{strings.Join(cats, ", ")}
}

// summary validates every argument before issuing the single query.
func (r *Router) summary(ctx context.Context, args []string) []string {
	now := r.now().In(r.loc)

	var token string
	detail := false
	for _, a := range args {
		switch {
		case strings.EqualFold(a, detailFlag):
			detail = true
		case token == "":
			token = a
		default:
			return []string{msgBadRange}
		}
	}

	rng := core.MonthRange(now)
	label := "this month"
	if token != "" {
		parsed, err := core.ParseRange(token, now)
		if errors.Is(err, core.ErrReversedRange) {
			return []string{msgReversedRange}
		}
		if err != nil {
			return []string{msgBadRange}
		}
		rng, label = parsed, token
	}

	sum, err := r.summaries.Summarize(ctx, rng)
	if err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentRouter).ErrorContext(ctx, "Failed to build summary",
			applog.FieldOperation, applog.OpQueryRange,
			applog.FieldError, err)
		return []string{msgActionFailed}
	}
	return r.renderer.Summary(label, sum, detail)
}

// ParseCommand splits "/name@bot arg1 arg2" into a lower-case name and its
// arguments. ok is false when text is not a command.
func ParseCommand(text string) (name string, args []string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") || len(fields[0]) == 1 {
		return "", nil, false
	}
	name = strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), fields[1:], true
}
