// Package memory is an in-process record store for development and tests.
// Records live only as long as the process.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"catat/internal/core"
	"catat/internal/records"
)

type Store struct {
	mu    sync.Mutex
	cats  []string
	items []core.Expense
}

var _ records.Store = (*Store)(nil)

func New(cats []string) *Store {
	return &Store{cats: dedupe(cats)}
}

// NewFromFiles seeds category options from <base>/seed_categories.txt, one
// per line, ignoring blanks and # comments.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = []string{"Food", "Transport", "Bills", "Shopping", "Other"}
	}
	return New(cats)
}

// CreateRecord stores the expense and returns a synthetic reference.
func (s *Store) CreateRecord(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	e.Date = e.Date.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) ListCategoryOptions(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

// QueryByDateRange returns matching records in date order.
func (s *Store) QueryByDateRange(_ context.Context, r core.DateRange) ([]core.RawRecord, error) {
	s.mu.Lock()
	matched := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if r.Contains(e.Date) {
			matched = append(matched, e)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Date.Before(matched[j].Date) })
	out := make([]core.RawRecord, len(matched))
	for i, e := range matched {
		out[i] = core.RawFromExpense(e)
	}
	return out, nil
}

// Len returns how many records were created.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
