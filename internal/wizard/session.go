package wizard

import (
	"sync"
	"time"

	"catat/internal/core"
)

// Stage is the wizard position of one conversation.
type Stage int

const (
	StageIdle Stage = iota
	StageInit
	StageAwaitTitle
	StageAwaitDate
	StageAwaitCategory
	StageAwaitAmount
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageInit:
		return "init"
	case StageAwaitTitle:
		return "await_title"
	case StageAwaitDate:
		return "await_date"
	case StageAwaitCategory:
		return "await_category"
	case StageAwaitAmount:
		return "await_amount"
	default:
		return "unknown"
	}
}

// Draft accumulates the fields of one entry, filled in order.
type Draft struct {
	Title    *string
	Date     *time.Time
	Category *string
	Amount   *int64
}

// Complete returns the expense once every field is set.
func (d Draft) Complete() (core.Expense, bool) {
	if d.Title == nil || d.Date == nil || d.Category == nil || d.Amount == nil {
		return core.Expense{}, false
	}
	return core.Expense{Title: *d.Title, Date: *d.Date, Category: *d.Category, Amount: *d.Amount}, true
}

// Session is the wizard state carried between turns of one conversation.
type Session struct {
	Stage Stage
	Draft Draft
}

// Active reports whether a wizard is in progress.
func (s *Session) Active() bool {
	return s.Stage != StageIdle
}

// Reset discards the draft and leaves the wizard.
func (s *Session) Reset() {
	s.Stage = StageIdle
	s.Draft = Draft{}
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Sessions holds one Session per chat. Each chat has its own lock so turns
// of one conversation run strictly one at a time while chats stay
// independent.
type Sessions struct {
	mu    sync.Mutex
	chats map[int64]*entry
}

func NewSessions() *Sessions {
	return &Sessions{chats: make(map[int64]*entry)}
}

// Acquire locks the session of chatID, creating it idle on first use. The
// returned release func must be called when the turn is done.
func (s *Sessions) Acquire(chatID int64) (*Session, func()) {
	s.mu.Lock()
	e, ok := s.chats[chatID]
	if !ok {
		e = &entry{}
		s.chats[chatID] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	return &e.session, e.mu.Unlock
}

// Len returns the number of chats seen.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}
