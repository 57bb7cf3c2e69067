package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

// Ledger keeps usage records in memory for local development and tests.
type Ledger struct {
	mu      sync.Mutex
	records []domain.UsageRecord
}

func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Append(_ context.Context, rec domain.UsageRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *Ledger) Aggregate(_ context.Context, window time.Duration) (domain.UsageSummary, error) {
	since := time.Now().UTC().Add(-window)

	l.mu.Lock()
	snapshot := make([]domain.UsageRecord, len(l.records))
	copy(snapshot, l.records)
	l.mu.Unlock()

	summary := domain.UsageSummary{ByCategory: make(map[domain.Category]int64)}
	var latencyTotal int64
	for _, rec := range snapshot {
		if rec.Timestamp.Before(since) {
			continue
		}
		summary.Count++
		summary.TotalCost += rec.CostEstimate
		latencyTotal += rec.LatencyMs
		summary.ByCategory[rec.Category]++
	}
	if summary.Count > 0 {
		summary.AvgLatencyMs = float64(latencyTotal) / float64(summary.Count)
	}
	return summary, nil
}
