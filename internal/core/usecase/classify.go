package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

type OrchestratorConfig struct {
	// MaxAttempts bounds agent calls per invocation: 3 means the initial
	// call plus two retries.
	MaxAttempts int
	// RetryBase is the first backoff; it doubles per attempt.
	RetryBase time.Duration
	// Cost model: flat charge per request plus a per-second component.
	CostBaseUSD      float64
	CostPerSecondUSD float64
}

func (c OrchestratorConfig) normalize() OrchestratorConfig {
	out := c
	if out.MaxAttempts < 1 {
		out.MaxAttempts = 3
	}
	if out.RetryBase <= 0 {
		out.RetryBase = 250 * time.Millisecond
	}
	return out
}

// Orchestrator obtains a category judgment from the external agent under a
// time budget. It never fails: agent failures are encoded in the returned
// ClassificationResult. Every attempt, successful or not, lands one row in
// the usage ledger.
type Orchestrator struct {
	agent  ports.ClassificationAgent
	ledger ports.UsageLedger
	cfg    OrchestratorConfig
}

func NewOrchestrator(agent ports.ClassificationAgent, ledger ports.UsageLedger, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{agent: agent, ledger: ledger, cfg: cfg.normalize()}
}

func (o *Orchestrator) Classify(ctx context.Context, doc *domain.Document, budget time.Duration) domain.ClassificationResult {
	if doc.ExtractionFailed || doc.ExtractedText == "" {
		// Nothing to show the agent. Still a billable orchestrator
		// invocation from the ledger's point of view.
		result := domain.ClassificationResult{
			DocumentID:   doc.ID,
			Category:     domain.CategoryUnclassified,
			Confidence:   0,
			CostEstimate: o.estimateCost(0),
			Outcome:      domain.OutcomeError,
			Attempts:     1,
		}
		o.appendUsage(ctx, result)
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	prompt := buildClassificationPrompt(doc.ExtractedText)
	backoff := o.cfg.RetryBase

	var result domain.ClassificationResult
	for attempt := 1; ; attempt++ {
		start := time.Now()
		resp, err := o.agent.Invoke(ctx, prompt)
		latency := time.Since(start)

		result = o.buildResult(doc.ID, resp, err, latency, attempt)
		o.appendUsage(ctx, result)

		if err == nil {
			return result
		}
		if attempt >= o.cfg.MaxAttempts || !retryableAgentError(err) || ctx.Err() != nil {
			slog.Warn("classification_exhausted",
				"document_id", doc.ID,
				"attempts", attempt,
				"outcome", result.Outcome,
				"error", err,
			)
			return result
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result
		case <-timer.C:
		}
		backoff *= 2
	}
}

func (o *Orchestrator) buildResult(documentID string, resp ports.AgentResponse, err error, latency time.Duration, attempt int) domain.ClassificationResult {
	result := domain.ClassificationResult{
		DocumentID:   documentID,
		Category:     domain.CategoryUnclassified,
		Confidence:   0,
		LatencyMs:    latency.Milliseconds(),
		CostEstimate: o.estimateCost(latency),
		Attempts:     attempt,
	}
	if err != nil {
		result.Outcome = domain.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			result.Outcome = domain.OutcomeTimeout
		}
		return result
	}

	result.Outcome = domain.OutcomeSuccess
	result.RawAgentPayload = resp.Raw
	result.Category, result.Confidence = normalizeAgentResponse(resp.Completion)
	return result
}

// appendUsage must survive budget expiry: telemetry does not depend on
// pipeline success.
func (o *Orchestrator) appendUsage(ctx context.Context, result domain.ClassificationResult) {
	rec := domain.UsageRecord{
		Timestamp:    time.Now().UTC(),
		DocumentID:   result.DocumentID,
		Category:     result.Category,
		LatencyMs:    result.LatencyMs,
		CostEstimate: result.CostEstimate,
		Outcome:      result.Outcome,
	}
	if err := o.ledger.Append(context.WithoutCancel(ctx), rec); err != nil {
		slog.Error("usage_ledger_append_failed", "document_id", rec.DocumentID, "error", err)
	}
}

func (o *Orchestrator) estimateCost(latency time.Duration) float64 {
	return o.cfg.CostBaseUSD + o.cfg.CostPerSecondUSD*latency.Seconds()
}

func retryableAgentError(err error) bool {
	return domain.IsKind(err, domain.ErrTemporary) || errors.Is(err, context.DeadlineExceeded)
}
