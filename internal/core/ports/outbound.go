package ports

import (
	"context"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

// AgentResponse is the opaque judgment returned by the classification agent.
// Completion is the decoded text; Raw is retained untouched for audit.
type AgentResponse struct {
	Completion string
	Raw        []byte
}

// ClassificationAgent is the single capability the pipeline needs from the
// external agent. It is untrusted with respect to output shape.
type ClassificationAgent interface {
	Invoke(ctx context.Context, prompt string) (AgentResponse, error)
}

// ObjectStore is the partitioned blob store boundary.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	// PutIfAbsent writes key only when no object exists there. When an
	// object is already present it returns domain.ErrStorageKeyConflict
	// wrapped with context; the caller resolves idempotence vs conflict.
	PutIfAbsent(ctx context.Context, key string, data []byte) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// UsageLedger is the append-only telemetry sink. Append must not lose
// records under concurrent pipeline invocations; Aggregate folds a
// consistent snapshot.
type UsageLedger interface {
	Append(ctx context.Context, rec domain.UsageRecord) error
	Aggregate(ctx context.Context, window time.Duration) (domain.UsageSummary, error)
}

// DocumentRepository persists document state and decisions.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveDecision(ctx context.Context, id string, decision domain.RoutingDecision, storageKey string) error
	SaveExtractedFields(ctx context.Context, id string, fields []byte) error
}

// MessageQueue hands uploaded documents off to the classification worker.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor pulls plain text out of raw document bytes.
type TextExtractor interface {
	Extract(ctx context.Context, raw []byte, mimeHint string) (string, error)
}
