package services

import (
	"context"
	"fmt"

	"catat/internal/core"
	applog "catat/internal/log"
	"catat/internal/records"
)

// SummaryService queries one date range and aggregates the result.
type SummaryService struct {
	querier records.RecordQuerier
}

func NewSummaryService(querier records.RecordQuerier) *SummaryService {
	return &SummaryService{querier: querier}
}

// Summarize issues a single queryByDateRange call and aggregates whatever
// it returns. Partial records are completed with defaults.
func (s *SummaryService) Summarize(ctx context.Context, r core.DateRange) (core.Summary, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentSummary)

	raws, err := s.querier.QueryByDateRange(ctx, r)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to query records",
			applog.FieldOperation, applog.OpQueryRange,
			applog.FieldRangeStart, r.Start,
			applog.FieldRangeEnd, r.End,
			applog.FieldError, err)
		return core.Summary{}, fmt.Errorf("query records: %w", err)
	}

	sum := core.Aggregate(r, raws)
	logger.DebugContext(ctx, "Summary computed",
		applog.FieldRangeStart, r.Start,
		applog.FieldRangeEnd, r.End,
		"records", len(sum.Detail),
		"total", sum.Total)
	return sum, nil
}
