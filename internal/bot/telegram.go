package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v3"

	applog "catat/internal/log"
	"catat/internal/middleware/ratelimit"
	"catat/internal/middleware/trace"
)

const defaultTurnTimeout = 30 * time.Second

// menu is published to Telegram so clients can autocomplete commands.
var menu = []tele.Command{
	{Text: CmdAdd, Description: "Record an expense"},
	{Text: CmdSummary, Description: "Totals, optionally DD/MM-DD/MM --detail"},
	{Text: CmdCategories, Description: "List the categories"},
	{Text: CmdCancel, Description: "Abandon the expense being entered"},
	{Text: CmdHelp, Description: "Usage"},
}

type TelegramConfig struct {
	Token       string
	PollTimeout time.Duration
	TurnTimeout time.Duration
	// APIURL overrides the Bot API endpoint.
	APIURL string
	// Offline skips the getMe handshake; used by tests.
	Offline bool
}

// Telegram binds a Router to the Bot API through long polling.
type Telegram struct {
	bot         *tele.Bot
	router      *Router
	tracer      *trace.Tracer
	limiter     *ratelimit.Limiter
	logger      *applog.Logger
	turnTimeout time.Duration

	base  context.Context
	ready atomic.Bool
}

// NewTelegram creates the bot client. tracer and limiter may be nil.
func NewTelegram(cfg TelegramConfig, router *Router, tracer *trace.Tracer, limiter *ratelimit.Limiter, logger *applog.Logger) (*Telegram, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = defaultTurnTimeout
	}
	t := &Telegram{
		router:      router,
		tracer:      tracer,
		limiter:     limiter,
		logger:      logger.WithComponent(applog.ComponentBot),
		turnTimeout: cfg.TurnTimeout,
		base:        context.Background(),
	}

	// Updates are handled one at a time in poll order so the turns of a
	// chat reach the wizard in arrival order.
	b, err := tele.NewBot(tele.Settings{
		URL:         cfg.APIURL,
		Token:       cfg.Token,
		Poller:      &tele.LongPoller{Timeout: cfg.PollTimeout},
		Synchronous: true,
		Offline:     cfg.Offline,
		OnError: func(err error, c tele.Context) {
			t.logger.Error("Telegram handler error", applog.FieldError, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	b.Handle(tele.OnText, t.onUpdate)
	b.Handle(tele.OnMedia, t.onUpdate)
	t.bot = b
	return t, nil
}

// Run polls until ctx is cancelled.
func (t *Telegram) Run(ctx context.Context) error {
	t.base = ctx
	if err := t.bot.SetCommands(menu); err != nil {
		t.logger.Warn("Failed to publish command menu", applog.FieldError, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.bot.Start()
	}()
	t.ready.Store(true)
	t.logger.Info("Telegram bot polling", "username", t.bot.Me.Username)

	<-ctx.Done()
	t.ready.Store(false)
	t.bot.Stop()
	<-done
	t.logger.Info("Telegram bot stopped")
	return nil
}

// Ready reports whether the poller is running.
func (t *Telegram) Ready() bool {
	return t.ready.Load()
}

func (t *Telegram) onUpdate(c tele.Context) error {
	if c.Chat() == nil {
		return nil
	}
	m := Message{ChatID: c.Chat().ID}
	if msg := c.Message(); msg != nil && msg.Text != "" {
		m.Text, m.IsText = msg.Text, true
	}

	ctx, cancel := context.WithTimeout(t.base, t.turnTimeout)
	defer cancel()
	return t.Process(ctx, m, func(reply string) error {
		_, err := t.bot.Send(c.Chat(), reply)
		return err
	})
}

// Process runs one turn through throttling and tracing and delivers each
// reply through send. The first error from send ends the turn.
func (t *Telegram) Process(ctx context.Context, m Message, send func(string) error) (err error) {
	command, _, _ := ParseCommand(m.Text)

	if t.tracer != nil {
		var end func(error)
		ctx, end = t.tracer.Begin(ctx, m.ChatID, command)
		defer func() { end(err) }()
	} else {
		ctx = applog.WithContext(ctx, t.logger.With(applog.FieldChatID, m.ChatID))
	}

	if t.limiter != nil {
		allowed, firstReject := t.limiter.Check(m.ChatID)
		if !allowed {
			if !firstReject {
				return nil
			}
			applog.FromContext(ctx).WithComponent(applog.ComponentRateLimit).WarnContext(ctx, "Chat throttled")
			return send(msgSlowDown)
		}
	}

	for _, reply := range t.router.Handle(ctx, m) {
		if err := send(reply); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
	}
	return nil
}
