package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

// DocumentRepository keeps document state in process memory. It backs local
// development and tests when no postgres DSN is configured and mirrors the
// postgres repository's semantics: idempotent create, updates require an
// existing row.
type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: make(map[string]*domain.Document)}
}

func (r *DocumentRepository) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return nil
	}
	stored := *doc
	r.docs[doc.ID] = &stored
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, fmt.Sprintf("document %s", id), fmt.Errorf("no such row"))
	}
	out := *doc
	return &out, nil
}

func (r *DocumentRepository) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, fmt.Sprintf("document %s", id), fmt.Errorf("no such row"))
	}
	doc.Status = status
	doc.Error = errMessage
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *DocumentRepository) SaveDecision(_ context.Context, id string, decision domain.RoutingDecision, storageKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, fmt.Sprintf("document %s", id), fmt.Errorf("no such row"))
	}
	doc.Category = decision.FinalCategory
	doc.Confidence = decision.SourceResult.Confidence
	doc.DecisionReason = decision.Reason
	doc.StorageKey = storageKey
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *DocumentRepository) SaveExtractedFields(_ context.Context, id string, fields []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrDocumentNotFound, fmt.Sprintf("document %s", id), fmt.Errorf("no such row"))
	}
	doc.ExtractedFields = append([]byte(nil), fields...)
	doc.UpdatedAt = time.Now().UTC()
	return nil
}
