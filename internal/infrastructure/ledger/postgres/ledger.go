package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

// Ledger is the append-only usage table. Rows are never updated or
// deleted; Aggregate folds over a time window entirely in SQL.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) EnsureSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083002)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS usage_records (
	id BIGSERIAL PRIMARY KEY,
	recorded_at TIMESTAMPTZ NOT NULL,
	document_id TEXT NOT NULL,
	category TEXT NOT NULL,
	latency_ms BIGINT NOT NULL,
	cost_estimate DOUBLE PRECISION NOT NULL,
	outcome TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_records_recorded_at ON usage_records(recorded_at DESC);
CREATE INDEX IF NOT EXISTS idx_usage_records_document_id ON usage_records(document_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (l *Ledger) Append(ctx context.Context, rec domain.UsageRecord) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO usage_records (recorded_at, document_id, category, latency_ms, cost_estimate, outcome)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		rec.Timestamp, rec.DocumentID, string(rec.Category), rec.LatencyMs, rec.CostEstimate, string(rec.Outcome),
	)
	if err != nil {
		return fmt.Errorf("append usage record: %w", err)
	}
	return nil
}

func (l *Ledger) Aggregate(ctx context.Context, window time.Duration) (domain.UsageSummary, error) {
	since := time.Now().UTC().Add(-window)
	summary := domain.UsageSummary{ByCategory: make(map[domain.Category]int64)}

	row := l.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(cost_estimate), 0), COALESCE(AVG(latency_ms), 0)
FROM usage_records
WHERE recorded_at >= $1
`, since)
	if err := row.Scan(&summary.Count, &summary.TotalCost, &summary.AvgLatencyMs); err != nil {
		return domain.UsageSummary{}, fmt.Errorf("aggregate usage totals: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT category, COUNT(*)
FROM usage_records
WHERE recorded_at >= $1
GROUP BY category
`, since)
	if err != nil {
		return domain.UsageSummary{}, fmt.Errorf("aggregate usage by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return domain.UsageSummary{}, fmt.Errorf("scan category count: %w", err)
		}
		summary.ByCategory[domain.Category(category)] = count
	}
	if err := rows.Err(); err != nil {
		return domain.UsageSummary{}, fmt.Errorf("iterate category counts: %w", err)
	}
	return summary, nil
}
