package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"catat/internal/core"
)

var fixedNow = time.Date(2025, 5, 14, 9, 30, 0, 0, time.UTC)

type fakeCategories struct {
	opts []string
	err  error
}

func (f fakeCategories) ListCategoryOptions(context.Context) ([]string, error) {
	return f.opts, f.err
}

type fakeRecorder struct {
	calls []core.Expense
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, e core.Expense) (string, error) {
	f.calls = append(f.calls, e)
	return "ref", f.err
}

func newTestWizard(rec *fakeRecorder, cats fakeCategories) *Wizard {
	return New(cats, rec, WithClock(func() time.Time { return fixedNow }))
}

func text(s string) Input { return Input{Text: s, IsText: true} }

func TestWizard_HappyPath(t *testing.T) {
	rec := &fakeRecorder{}
	w := newTestWizard(rec, fakeCategories{opts: []string{"Food", "Transport"}})
	ctx := context.Background()
	s := &Session{}

	if got := w.Start(s); len(got) != 1 || got[0] != msgAskTitle || s.Stage != StageAwaitTitle {
		t.Fatalf("start: %v stage=%v", got, s.Stage)
	}
	w.Step(ctx, s, text("  Coffee "))
	got := w.Step(ctx, s, text("now"))
	if s.Stage != StageAwaitCategory {
		t.Fatalf("want await_category, got %v", s.Stage)
	}
	if !strings.Contains(got[0], "• Food") || !strings.Contains(got[0], "• Transport") {
		t.Fatalf("category prompt should list options: %q", got[0])
	}
	w.Step(ctx, s, text("Food"))
	got = w.Step(ctx, s, text("20000"))

	if len(rec.calls) != 1 {
		t.Fatalf("want exactly one createRecord call, got %d", len(rec.calls))
	}
	e := rec.calls[0]
	if e.Title != "Coffee" || e.Category != "Food" || e.Amount != 20000 || !e.Date.Equal(fixedNow) {
		t.Fatalf("unexpected record: %+v", e)
	}
	if len(got) != 1 || !strings.Contains(got[0], "Coffee") || !strings.Contains(got[0], "20.000") {
		t.Fatalf("unexpected success reply: %v", got)
	}
	if s.Active() {
		t.Fatal("wizard should terminate after success")
	}
}

func TestWizard_DateStep(t *testing.T) {
	cases := []struct {
		in      string
		advance bool
	}{
		{"now", true},
		{"NOW", true},
		{"03/05 09:15", true},
		{"31/12 23:59", true},
		{"3/5 9:15", false},
		{"03/05", false},
		{"2025-05-03 09:15", false},
		{"32/01 10:00", false},
		{"29/02 10:00", false},
		{"sekarang", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			w := newTestWizard(&fakeRecorder{}, fakeCategories{})
			s := &Session{}
			w.Start(s)
			w.Step(context.Background(), s, text("Coffee"))
			got := w.Step(context.Background(), s, text(tc.in))
			if tc.advance {
				if s.Stage != StageAwaitCategory || s.Draft.Date == nil {
					t.Fatalf("%q should advance, stage=%v", tc.in, s.Stage)
				}
				return
			}
			if s.Stage != StageAwaitDate || s.Draft.Date != nil {
				t.Fatalf("%q should stay at the date step, stage=%v", tc.in, s.Stage)
			}
			if len(got) != 1 || got[0] != msgBadDate {
				t.Fatalf("%q should re-prompt, got %v", tc.in, got)
			}
		})
	}
}

func TestWizard_DateUsesCurrentYearAndLocation(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	w := New(fakeCategories{}, &fakeRecorder{}, WithClock(func() time.Time { return fixedNow }), WithLocation(loc))
	s := &Session{}
	w.Start(s)
	w.Step(context.Background(), s, text("Lunch"))
	w.Step(context.Background(), s, text("03/05 12:00"))
	want := time.Date(2025, 5, 3, 5, 0, 0, 0, time.UTC)
	if !s.Draft.Date.Equal(want) || s.Draft.Date.Location() != time.UTC {
		t.Fatalf("want %v UTC, got %v", want, *s.Draft.Date)
	}
}

func TestWizard_AmountStep(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"20000", 20000, true},
		{"Rp 20.000", 20000, true},
		{"20,000", 20000, true},
		{"abc", 0, false},
		{"0", 0, false},
		{"-", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			rec := &fakeRecorder{}
			w := newTestWizard(rec, fakeCategories{})
			s := &Session{}
			w.Start(s)
			for _, in := range []string{"Coffee", "now", "Food"} {
				w.Step(context.Background(), s, text(in))
			}
			got := w.Step(context.Background(), s, text(tc.in))
			if !tc.ok {
				if s.Stage != StageAwaitAmount || len(rec.calls) != 0 || got[0] != msgBadAmount {
					t.Fatalf("%q should re-prompt and stay, stage=%v calls=%d", tc.in, s.Stage, len(rec.calls))
				}
				return
			}
			if len(rec.calls) != 1 || rec.calls[0].Amount != tc.want {
				t.Fatalf("%q: unexpected calls %+v", tc.in, rec.calls)
			}
		})
	}
}

func TestWizard_BlankAnswersReprompt(t *testing.T) {
	w := newTestWizard(&fakeRecorder{}, fakeCategories{})
	s := &Session{}
	w.Start(s)
	if got := w.Step(context.Background(), s, text("   ")); s.Stage != StageAwaitTitle || got[0] != msgAskTitle {
		t.Fatalf("blank title should re-prompt, stage=%v", s.Stage)
	}
	w.Step(context.Background(), s, text("Coffee"))
	w.Step(context.Background(), s, text("now"))
	if w.Step(context.Background(), s, text("")); s.Stage != StageAwaitCategory {
		t.Fatalf("blank category should stay, stage=%v", s.Stage)
	}
}

func TestWizard_CategoryIsFreeText(t *testing.T) {
	rec := &fakeRecorder{}
	w := newTestWizard(rec, fakeCategories{opts: []string{"Food"}})
	s := &Session{}
	w.Start(s)
	for _, in := range []string{"Book", "now", "Education", "50000"} {
		w.Step(context.Background(), s, text(in))
	}
	if len(rec.calls) != 1 || rec.calls[0].Category != "Education" {
		t.Fatalf("category outside the options should be accepted: %+v", rec.calls)
	}
}

func TestWizard_NonTextIsNoop(t *testing.T) {
	w := newTestWizard(&fakeRecorder{}, fakeCategories{})
	s := &Session{}
	w.Start(s)
	for _, stage := range []string{"Coffee", "now", "Food"} {
		before := *s
		if got := w.Step(context.Background(), s, Input{}); got != nil || s.Stage != before.Stage {
			t.Fatalf("non-text turn changed the session at %v", before.Stage)
		}
		w.Step(context.Background(), s, text(stage))
	}
	if s.Stage != StageAwaitAmount {
		t.Fatalf("want await_amount, got %v", s.Stage)
	}
}

func TestWizard_CategoryFetchFailureStillAdvances(t *testing.T) {
	w := newTestWizard(&fakeRecorder{}, fakeCategories{err: errors.New("store unreachable")})
	s := &Session{}
	w.Start(s)
	w.Step(context.Background(), s, text("Coffee"))
	got := w.Step(context.Background(), s, text("now"))
	if s.Stage != StageAwaitCategory || got[0] != msgAskCategoryFree {
		t.Fatalf("want plain category prompt, got %v stage=%v", got, s.Stage)
	}
}

func TestWizard_IncompleteDraftAbandoned(t *testing.T) {
	rec := &fakeRecorder{}
	w := newTestWizard(rec, fakeCategories{})
	cat := "Food"
	date := fixedNow
	s := &Session{Stage: StageAwaitAmount, Draft: Draft{Date: &date, Category: &cat}}

	got := w.Step(context.Background(), s, text("20000"))
	if len(rec.calls) != 0 {
		t.Fatal("incomplete draft must not be submitted")
	}
	if got != nil || s.Active() || s.Draft.Amount != nil {
		t.Fatalf("wizard should terminate silently, got %v stage=%v", got, s.Stage)
	}
}

func TestWizard_RecordFailureKeepsDraft(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("503")}
	w := newTestWizard(rec, fakeCategories{})
	s := &Session{}
	w.Start(s)
	for _, in := range []string{"Coffee", "now", "Food"} {
		w.Step(context.Background(), s, text(in))
	}
	got := w.Step(context.Background(), s, text("20000"))
	if got[0] != msgSaveFailed || s.Stage != StageAwaitAmount || s.Draft.Title == nil {
		t.Fatalf("failure should keep the session at the amount step: %v %v", got, s.Stage)
	}

	rec.err = nil
	got = w.Step(context.Background(), s, text("20000"))
	if len(rec.calls) != 2 || s.Active() || !strings.Contains(got[0], "Coffee") {
		t.Fatalf("retry should save: calls=%d stage=%v reply=%v", len(rec.calls), s.Stage, got)
	}
}

func TestWizard_IdleSessionIgnored(t *testing.T) {
	w := newTestWizard(&fakeRecorder{}, fakeCategories{})
	s := &Session{}
	if got := w.Step(context.Background(), s, text("hello")); got != nil || s.Active() {
		t.Fatalf("idle session should ignore input, got %v", got)
	}
}

func TestWizard_StartClearsDraft(t *testing.T) {
	w := newTestWizard(&fakeRecorder{}, fakeCategories{})
	title := "old"
	s := &Session{Stage: StageAwaitCategory, Draft: Draft{Title: &title}}
	w.Start(s)
	if s.Draft.Title != nil || s.Stage != StageAwaitTitle {
		t.Fatalf("start should reset the draft: %+v", s)
	}
	s = &Session{Stage: StageInit}
	if got := w.Step(context.Background(), s, Input{}); got[0] != msgAskTitle || s.Stage != StageAwaitTitle {
		t.Fatalf("init should run the start step, got %v", got)
	}
}

func TestSessions_PerChat(t *testing.T) {
	sessions := NewSessions()
	s1, release1 := sessions.Acquire(1)
	s1.Stage = StageAwaitDate
	release1()

	s2, release2 := sessions.Acquire(2)
	if s2.Active() {
		t.Fatal("chats must not share sessions")
	}
	release2()

	again, release := sessions.Acquire(1)
	defer release()
	if again.Stage != StageAwaitDate {
		t.Fatal("session should persist between turns")
	}
	if sessions.Len() != 2 {
		t.Fatalf("want 2 chats, got %d", sessions.Len())
	}
}

func TestSessions_SerializesTurns(t *testing.T) {
	sessions := NewSessions()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, release := sessions.Acquire(7)
			counter++
			release()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("want 50, got %d", counter)
	}
}

func TestStageString(t *testing.T) {
	if StageAwaitAmount.String() != "await_amount" || Stage(99).String() != "unknown" {
		t.Fatal("unexpected stage names")
	}
}
