package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_hint TEXT NOT NULL,
	size_bytes BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT 'unclassified',
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	decision_reason TEXT,
	storage_key TEXT,
	extracted_fields JSONB,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_category ON documents(category);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Create inserts the document row. The id is the content hash, so a
// re-upload of identical bytes hits the primary key and is a no-op.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_hint, size_bytes, status, category, confidence, decision_reason, storage_key, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO NOTHING
`,
		doc.ID, doc.Filename, doc.MimeHint, doc.SizeBytes, string(doc.Status), string(doc.Category),
		doc.Confidence, string(doc.DecisionReason), doc.StorageKey, doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_hint, size_bytes, status, category, confidence, decision_reason, storage_key, extracted_fields, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var status, category, reason string
	var storageKey, errMessage sql.NullString
	var fields []byte

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeHint, &doc.SizeBytes, &status, &category,
		&doc.Confidence, &reason, &storageKey, &fields, &errMessage, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, fmt.Sprintf("document %s", id), err)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	doc.Category = domain.Category(category)
	doc.DecisionReason = domain.DecisionReason(reason)
	doc.StorageKey = storageKey.String
	doc.Error = errMessage.String
	doc.ExtractedFields = fields
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(res, id)
}

func (r *DocumentRepository) SaveDecision(ctx context.Context, id string, decision domain.RoutingDecision, storageKey string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET category = $2, confidence = $3, decision_reason = $4, storage_key = $5, updated_at = $6
WHERE id = $1
`, id, string(decision.FinalCategory), decision.SourceResult.Confidence, string(decision.Reason), storageKey, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save decision: %w", err)
	}
	return requireRowAffected(res, id)
}

func (r *DocumentRepository) SaveExtractedFields(ctx context.Context, id string, fields []byte) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET extracted_fields = $2, updated_at = $3
WHERE id = $1
`, id, fields, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save extracted fields: %w", err)
	}
	return requireRowAffected(res, id)
}

func requireRowAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, fmt.Sprintf("document %s", id), sql.ErrNoRows)
	}
	return nil
}
