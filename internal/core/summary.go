package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount int64
}

// DetailGroup lists the entries of one category, most recent first.
type DetailGroup struct {
	Category string
	Total    int64
	Entries  []Expense
}

// Summary is the aggregate of the records in a date range. PerCategory has
// no ordering; ByCategory and DetailGroups follow first occurrence.
type Summary struct {
	Range       DateRange
	Total       int64
	PerCategory map[string]int64
	Detail      []Expense

	order []string
}

// Aggregate totals raw records overall and per category. No record is
// dropped: missing fields take the defaults from RawRecord.Normalize.
func Aggregate(r DateRange, raws []RawRecord) Summary {
	s := Summary{
		Range:       r,
		PerCategory: make(map[string]int64),
		Detail:      make([]Expense, 0, len(raws)),
	}
	for _, raw := range raws {
		e := raw.Normalize()
		s.Total += e.Amount
		if _, seen := s.PerCategory[e.Category]; !seen {
			s.order = append(s.order, e.Category)
		}
		s.PerCategory[e.Category] += e.Amount
		s.Detail = append(s.Detail, e)
	}
	return s
}

// Empty reports whether no records matched.
func (s Summary) Empty() bool {
	return len(s.Detail) == 0
}

// ByCategory returns the per-category totals in first-occurrence order.
func (s Summary) ByCategory() []CategoryAmount {
	list := make([]CategoryAmount, 0, len(s.PerCategory))
	for _, name := range s.categoryOrder() {
		list = append(list, CategoryAmount{Name: name, Amount: s.PerCategory[name]})
	}
	return list
}

// DetailGroups groups Detail by category in first-occurrence order and sorts
// each group by date descending. Entries with equal dates keep query order.
func (s Summary) DetailGroups() []DetailGroup {
	index := make(map[string]int)
	var groups []DetailGroup
	for _, name := range s.categoryOrder() {
		index[name] = len(groups)
		groups = append(groups, DetailGroup{Category: name, Total: s.PerCategory[name]})
	}
	for _, e := range s.Detail {
		i := index[e.Category]
		groups[i].Entries = append(groups[i].Entries, e)
	}
	for i := range groups {
		entries := groups[i].Entries
		sort.SliceStable(entries, func(a, b int) bool {
			return entries[a].Date.After(entries[b].Date)
		})
	}
	return groups
}

// categoryOrder tolerates summaries built by hand without the order slice.
func (s Summary) categoryOrder() []string {
	if len(s.order) == len(s.PerCategory) {
		return s.order
	}
	names := make([]string, 0, len(s.PerCategory))
	seen := make(map[string]bool)
	for _, e := range s.Detail {
		if _, ok := s.PerCategory[e.Category]; ok && !seen[e.Category] {
			seen[e.Category] = true
			names = append(names, e.Category)
		}
	}
	var rest []string
	for name := range s.PerCategory {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
