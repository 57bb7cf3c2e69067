package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestCreateIsIdempotentOnConflict(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        "hash1",
		Filename:  "hud.pdf",
		MimeHint:  "application/pdf",
		SizeBytes: 42,
		Status:    domain.StatusUploaded,
		Category:  domain.CategoryUnclassified,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("hash1", "hud.pdf", "application/pdf", int64(42), string(domain.StatusUploaded),
			string(domain.CategoryUnclassified), 0.0, "", "", "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create with conflict should be a no-op, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, filename, mime_hint").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDScansDecisionColumns(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "filename", "mime_hint", "size_bytes", "status", "category", "confidence",
		"decision_reason", "storage_key", "extracted_fields", "error_message", "created_at", "updated_at",
	}).AddRow(
		"hash1", "hud.pdf", "application/pdf", int64(42), string(domain.StatusRouted),
		string(domain.CategorySettlement), 0.91, string(domain.ReasonAccepted),
		"settlement/hash1", []byte(`{"a":1}`), "", now, now,
	)

	mock.ExpectQuery("SELECT id, filename, mime_hint").
		WithArgs("hash1").
		WillReturnRows(rows)

	doc, err := repo.GetByID(context.Background(), "hash1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if doc.Category != domain.CategorySettlement || doc.StorageKey != "settlement/hash1" {
		t.Fatalf("decision columns not mapped: %+v", doc)
	}
	if doc.DecisionReason != domain.ReasonAccepted {
		t.Fatalf("reason = %s", doc.DecisionReason)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpdateStatusReturnsDomainNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.StatusProcessing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveDecisionPersistsRoutingOutcome(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	decision := domain.RoutingDecision{
		DocumentID:    "hash1",
		FinalCategory: domain.CategoryIncomeVerification,
		Reason:        domain.ReasonAccepted,
		SourceResult:  domain.ClassificationResult{Confidence: 0.88},
	}

	mock.ExpectExec("UPDATE documents").
		WithArgs("hash1", string(domain.CategoryIncomeVerification), 0.88,
			string(domain.ReasonAccepted), "income-verification/hash1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SaveDecision(context.Background(), "hash1", decision, "income-verification/hash1"); err != nil {
		t.Fatalf("save decision: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveExtractedFieldsRequiresExistingRow(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", []byte(`{}`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SaveExtractedFields(context.Background(), "missing", []byte(`{}`))
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
