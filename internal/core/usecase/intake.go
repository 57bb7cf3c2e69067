package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

// Allow-listed upload formats. Everything else is rejected at intake, never
// retried.
var allowedMimeTypes = map[string]struct{}{
	"text/plain":      {},
	"text/markdown":   {},
	"text/csv":        {},
	"application/pdf": {},
}

type Intake struct {
	extractor ports.TextExtractor
}

func NewIntake(extractor ports.TextExtractor) *Intake {
	return &Intake{extractor: extractor}
}

// Ingest validates and normalizes raw upload bytes into a Document. The id
// is the content hash, so identical uploads always collapse to one identity.
// Extraction failure on an allow-listed format is not fatal: the document
// proceeds with empty text and ExtractionFailed set, which the decision
// policy turns into an unclassified route.
func (in *Intake) Ingest(ctx context.Context, raw []byte, filename, mimeHint string) (*domain.Document, error) {
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyInput, "ingest document", errors.New("zero-length upload"))
	}

	mime := resolveMime(raw, filename, mimeHint)
	if _, ok := allowedMimeTypes[mime]; !ok {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "ingest document", errors.New("mime "+mime+" not in allow-list"))
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        domain.ContentID(raw),
		Filename:  filename,
		MimeHint:  mime,
		RawBytes:  raw,
		SizeBytes: int64(len(raw)),
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	text, err := in.extractor.Extract(ctx, raw, mime)
	if err != nil {
		slog.Warn("text_extraction_failed", "document_id", doc.ID, "mime", mime, "error", err)
		doc.ExtractionFailed = true
		return doc, nil
	}
	doc.ExtractedText = strings.TrimSpace(text)
	if doc.ExtractedText == "" {
		doc.ExtractionFailed = true
	}
	return doc, nil
}

// resolveMime trusts the caller's hint when it is allow-listed and falls
// back to sniffing. Browsers routinely send application/octet-stream for
// perfectly good text files.
func resolveMime(raw []byte, filename, mimeHint string) string {
	hint := strings.ToLower(strings.TrimSpace(mimeHint))
	if idx := strings.Index(hint, ";"); idx >= 0 {
		hint = strings.TrimSpace(hint[:idx])
	}
	if _, ok := allowedMimeTypes[hint]; ok {
		return hint
	}

	if bytes.HasPrefix(raw, []byte("%PDF-")) {
		return "application/pdf"
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	}

	if hint == "" {
		return "application/octet-stream"
	}
	return hint
}
