package usecase

import (
	"context"
	"fmt"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

// StagingPrefix is the partition holding raw uploads before classification.
const StagingPrefix = "inbox/"

// Uploader is the API-side entry: validate and normalize the upload, stage
// the raw bytes, persist metadata, and hand the document to the worker.
type Uploader struct {
	intake *Intake
	repo   ports.DocumentRepository
	store  ports.ObjectStore
	queue  ports.MessageQueue
}

func NewUploader(intake *Intake, repo ports.DocumentRepository, store ports.ObjectStore, queue ports.MessageQueue) *Uploader {
	return &Uploader{intake: intake, repo: repo, store: store, queue: queue}
}

func (u *Uploader) Upload(ctx context.Context, filename, mimeHint string, raw []byte) (*domain.Document, error) {
	doc, err := u.intake.Ingest(ctx, raw, filename, mimeHint)
	if err != nil {
		return nil, err
	}

	// Content-hash ids make duplicate staging harmless: the loser of the
	// conditional write observes the identical object already in place.
	if err := u.store.PutIfAbsent(ctx, StagingPrefix+doc.ID, raw); err != nil && !domain.IsKind(err, domain.ErrStorageKeyConflict) {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	if err := u.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := u.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	return doc, nil
}
