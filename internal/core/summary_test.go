package core

import (
	"testing"
	"time"
)

func raw(title, category string, amount int64, date time.Time) RawRecord {
	return RawRecord{Title: &title, Category: &category, Amount: &amount, Date: &date}
}

func TestAggregateTotals(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	s := Aggregate(MonthRange(day), []RawRecord{
		raw("Lunch", "Food", 10000, day),
		raw("Dinner", "Food", 5000, day),
		raw("Bus", "Transport", 2000, day),
	})
	if s.Total != 17000 {
		t.Fatalf("total = %d, want 17000", s.Total)
	}
	if len(s.PerCategory) != 2 || s.PerCategory["Food"] != 15000 || s.PerCategory["Transport"] != 2000 {
		t.Fatalf("unexpected per-category: %v", s.PerCategory)
	}
	list := s.ByCategory()
	if len(list) != 2 || list[0].Name != "Food" || list[1].Name != "Transport" {
		t.Fatalf("unexpected order: %v", list)
	}
}

func TestAggregateKeepsIncompleteRecords(t *testing.T) {
	amt := int64(700)
	s := Aggregate(DateRange{}, []RawRecord{{}, {Amount: &amt}})
	if s.Total != 700 || s.PerCategory[DefaultCategory] != 700 || len(s.Detail) != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Detail[0].Title != UntitledPlaceholder {
		t.Fatalf("expected placeholder title, got %q", s.Detail[0].Title)
	}
	if Aggregate(DateRange{}, nil).Empty() != true {
		t.Fatalf("expected empty summary")
	}
}

func TestDetailGroupsSortDescending(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 5, day, 9, 0, 0, 0, time.UTC) }
	s := Aggregate(DateRange{}, []RawRecord{
		raw("Bakery", "Food", 100, d(1)),
		raw("Train", "Transport", 300, d(2)),
		raw("Market", "Food", 200, d(3)),
	})
	groups := s.DetailGroups()
	if len(groups) != 2 || groups[0].Category != "Food" || groups[1].Category != "Transport" {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	food := groups[0].Entries
	if len(food) != 2 || food[0].Title != "Market" || food[1].Title != "Bakery" {
		t.Fatalf("food entries not sorted by date descending: %+v", food)
	}
	if groups[0].Total != 300 {
		t.Fatalf("food total = %d, want 300", groups[0].Total)
	}
}
