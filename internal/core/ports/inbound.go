package ports

import (
	"context"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

// DocumentIngestor is the inbound contract for upload handling.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeHint string, raw []byte) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// DocumentProcessor runs the classification pipeline for one document.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// UsageReporter serves the analytics view over the usage ledger.
type UsageReporter interface {
	Summary(ctx context.Context, window time.Duration) (domain.UsageSummary, error)
}
