package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

// Pipeline runs one document through classify → decide → route. Invocations
// are independent; the only shared state is the usage ledger and the object
// store's conditional writes.
type Pipeline struct {
	repo         ports.DocumentRepository
	store        ports.ObjectStore
	extractor    ports.TextExtractor
	orchestrator *Orchestrator
	policy       Policy
	router       *Router
	fields       *FieldExtractor
	budget       time.Duration
}

func NewPipeline(
	repo ports.DocumentRepository,
	store ports.ObjectStore,
	extractor ports.TextExtractor,
	orchestrator *Orchestrator,
	policy Policy,
	router *Router,
	fields *FieldExtractor,
	budget time.Duration,
) *Pipeline {
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &Pipeline{
		repo:         repo,
		store:        store,
		extractor:    extractor,
		orchestrator: orchestrator,
		policy:       policy,
		router:       router,
		fields:       fields,
		budget:       budget,
	}
}

// ProcessByID is the worker entry point. A failed invocation reports the
// furthest stage reached; classified-but-not-stored is never presented as
// success. Usage telemetry is recorded by the orchestrator regardless of
// what happens downstream.
func (p *Pipeline) ProcessByID(ctx context.Context, documentID string) error {
	if err := p.repo.UpdateStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("stage load: set status: %w", err)
	}

	decision, record, err := p.run(ctx, documentID)
	if err != nil {
		if failErr := p.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := p.repo.SaveDecision(ctx, documentID, decision, record.StorageKey); err != nil {
		if failErr := p.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("stage persist: %w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("stage persist: %w", err)
	}

	if err := p.repo.UpdateStatus(ctx, documentID, domain.StatusRouted, ""); err != nil {
		return fmt.Errorf("stage persist: set status: %w", err)
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, documentID string) (domain.RoutingDecision, domain.StorageRecord, error) {
	doc, err := p.load(ctx, documentID)
	if err != nil {
		return domain.RoutingDecision{}, domain.StorageRecord{}, fmt.Errorf("stage load: %w", err)
	}

	result := p.orchestrator.Classify(ctx, doc, p.budget)
	decision := p.policy.Decide(result)

	record, err := p.router.Route(ctx, doc, decision)
	if err != nil {
		return domain.RoutingDecision{}, domain.StorageRecord{}, fmt.Errorf("stage route: %w", err)
	}

	p.extractFields(ctx, doc, decision)

	return decision, record, nil
}

func (p *Pipeline) load(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := p.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	raw, err := p.store.Get(ctx, StagingPrefix+documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch staged bytes: %w", err)
	}
	doc.RawBytes = raw

	text, err := p.extractor.Extract(ctx, raw, doc.MimeHint)
	if err != nil {
		doc.ExtractionFailed = true
		return doc, nil
	}
	doc.ExtractedText = strings.TrimSpace(text)
	doc.ExtractionFailed = doc.ExtractedText == ""
	return doc, nil
}

// extractFields enriches accepted documents with structured data. Failures
// are logged and swallowed: enrichment never fails a routed document.
func (p *Pipeline) extractFields(ctx context.Context, doc *domain.Document, decision domain.RoutingDecision) {
	if p.fields == nil || decision.Reason != domain.ReasonAccepted {
		return
	}

	fields, err := p.fields.Extract(ctx, decision.FinalCategory, doc.ExtractedText)
	if err != nil {
		slog.Warn("field_extraction_failed", "document_id", doc.ID, "category", decision.FinalCategory, "error", err)
		return
	}
	if err := p.repo.SaveExtractedFields(ctx, doc.ID, fields); err != nil {
		slog.Warn("field_extraction_persist_failed", "document_id", doc.ID, "error", err)
	}
}
