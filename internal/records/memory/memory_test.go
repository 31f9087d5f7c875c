package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"catat/internal/core"
)

func TestMemoryStoreCreateAndQuery(t *testing.T) {
	s := New([]string{"Food", "Transport", "Food"})
	cats, err := s.ListCategoryOptions(context.Background())
	if err != nil || len(cats) != 2 {
		t.Fatalf("unexpected list: cats=%v err=%v", cats, err)
	}

	may := func(day int) time.Time { return time.Date(2025, 5, day, 12, 0, 0, 0, time.UTC) }
	for i, e := range []core.Expense{
		{Title: "Market", Date: may(3), Category: "Food", Amount: 5000},
		{Title: "Bakery", Date: may(1), Category: "Food", Amount: 10000},
		{Title: "Train", Date: may(20), Category: "Transport", Amount: 2000},
	} {
		ref, err := s.CreateRecord(context.Background(), e)
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if want := "mem:" + string(rune('1'+i)); ref != want {
			t.Fatalf("ref = %q, want %q", ref, want)
		}
	}

	r, _ := core.ParseRange("01/05-10/05", may(14))
	got, err := s.QueryByDateRange(context.Background(), r)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 || *got[0].Title != "Bakery" || *got[1].Title != "Market" {
		t.Fatalf("unexpected query result: %+v", got)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New(nil)
	if _, err := s.CreateRecord(context.Background(), core.Expense{Title: "x", Category: "Food", Amount: 1}); err == nil {
		t.Fatal("expected validation error for missing date")
	}
	if s.Len() != 0 {
		t.Fatalf("invalid record should not be stored")
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.ListCategoryOptions(context.Background())
	if len(cats) == 0 {
		t.Fatalf("expected defaults when files missing")
	}

	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("# header\nA\nB\nA\n\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	cats, _ = s.ListCategoryOptions(context.Background())
	if len(cats) != 2 || cats[0] != "A" || cats[1] != "B" {
		t.Fatalf("unexpected cats: %v", cats)
	}
}
