package google

import (
	"fmt"
	"math"
	"strings"
	"time"

	"catat/internal/core"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func encodeRow(e core.Expense) []any {
	return []any{e.Date.UTC().Format(time.RFC3339), e.Title, e.Category, e.Amount}
}

// decodeRows converts a values matrix (as returned by the Sheets API) into
// raw records within r. Empty cells stay nil.
func decodeRows(values [][]any, r core.DateRange) []core.RawRecord {
	var out []core.RawRecord
	for _, row := range values {
		date, ok := parseDate(cell(row, 0))
		if !ok || !r.Contains(date) {
			continue
		}
		rec := core.RawRecord{Date: &date}
		if title := strings.TrimSpace(cell(row, 1)); title != "" {
			rec.Title = &title
		}
		if cat := strings.TrimSpace(cell(row, 2)); cat != "" {
			rec.Category = &cat
		}
		if amount, ok := parseAmountCell(row, 3); ok {
			rec.Amount = &amount
		}
		out = append(out, rec)
	}
	return out
}

func cell(row []any, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseAmountCell accepts unformatted numbers and numeric strings. String
// cells are read like user input, so grouping separators and a currency
// symbol are ignored ("Rp 20.000" is 20000). Anything else is treated as
// absent.
func parseAmountCell(row []any, idx int) (int64, bool) {
	if idx >= len(row) {
		return 0, false
	}
	switch v := row[idx].(type) {
	case float64:
		return int64(math.Round(v)), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	n, err := core.ParseAmount(cell(row, idx))
	if err != nil {
		return 0, false
	}
	return n, true
}

// cleanColumn trims a single-column range, dropping blanks, # comments and
// duplicates while preserving order.
func cleanColumn(values [][]any) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, row := range values {
		v := cell(row, 0)
		if v == "" || strings.HasPrefix(v, "#") {
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
