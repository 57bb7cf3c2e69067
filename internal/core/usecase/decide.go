package usecase

import "github.com/mkuznecov/realdoc-classifier/internal/core/domain"

// Policy turns a raw classification result into a final routing decision.
// Pure: no I/O, no retries. The threshold is configuration, not law.
type Policy struct {
	ConfidenceThreshold float64
}

func NewPolicy(threshold float64) Policy {
	return Policy{ConfidenceThreshold: threshold}
}

// Decide accepts the agent's category iff the attempt succeeded, the
// category is one of the known labels, and confidence clears the threshold
// (boundary inclusive). Everything else routes to unclassified with the
// reason kept for audit, never dropped.
func (p Policy) Decide(result domain.ClassificationResult) domain.RoutingDecision {
	decision := domain.RoutingDecision{
		DocumentID:    result.DocumentID,
		FinalCategory: domain.CategoryUnclassified,
		SourceResult:  result,
	}

	if result.Outcome != domain.OutcomeSuccess {
		decision.Reason = domain.ReasonAgentError
		return decision
	}
	if !result.Category.IsKnown() || result.Confidence < p.ConfidenceThreshold {
		decision.Reason = domain.ReasonBelowThreshold
		return decision
	}

	decision.FinalCategory = result.Category
	decision.Reason = domain.ReasonAccepted
	return decision
}
