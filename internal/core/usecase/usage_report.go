package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

// UsageReport serves the analytics view: a read-only fold over the ledger,
// safe to run while appends are in flight.
type UsageReport struct {
	ledger ports.UsageLedger
}

func NewUsageReport(ledger ports.UsageLedger) *UsageReport {
	return &UsageReport{ledger: ledger}
}

func (r *UsageReport) Summary(ctx context.Context, window time.Duration) (domain.UsageSummary, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	summary, err := r.ledger.Aggregate(ctx, window)
	if err != nil {
		return domain.UsageSummary{}, fmt.Errorf("aggregate usage: %w", err)
	}
	return summary, nil
}
