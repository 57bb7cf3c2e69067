package usecase

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

// agentPayload covers the response shapes seen from the agent: a single
// category with optional confidence, or a candidate list.
type agentPayload struct {
	Category   string           `json:"category"`
	Confidence *float64         `json:"confidence"`
	Candidates []agentCandidate `json:"candidates"`
}

type agentCandidate struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

// normalizeAgentResponse coerces whatever the agent produced into a known
// category and a confidence in [0,1]. The agent is untrusted with respect to
// output shape: unknown labels become unclassified, absent confidence
// becomes 0, and equally-weighted candidates resolve to the
// lexicographically first known category.
func normalizeAgentResponse(completion string) (domain.Category, float64) {
	payload, ok := decodePayload(completion)
	if !ok {
		// Plain text answer with no machine-readable confidence.
		return domain.ParseCategory(completion), 0
	}

	if len(payload.Candidates) > 0 {
		return pickCandidate(payload.Candidates)
	}

	category := domain.ParseCategory(payload.Category)
	return category, clampConfidence(payload.Confidence)
}

func decodePayload(completion string) (agentPayload, bool) {
	raw := extractJSONObject(completion)
	if raw == "" {
		return agentPayload{}, false
	}
	var payload agentPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return agentPayload{}, false
	}
	if payload.Category == "" && len(payload.Candidates) == 0 {
		return agentPayload{}, false
	}
	return payload, true
}

func pickCandidate(candidates []agentCandidate) (domain.Category, float64) {
	type scored struct {
		category   domain.Category
		confidence float64
	}
	known := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		category := domain.ParseCategory(candidate.Category)
		if !category.IsKnown() {
			continue
		}
		known = append(known, scored{category: category, confidence: clampConfidence(candidate.Confidence)})
	}
	if len(known) == 0 {
		return domain.CategoryUnclassified, 0
	}

	// Highest confidence wins; equal weights tie-break on slug order for
	// reproducibility.
	sort.SliceStable(known, func(i, j int) bool {
		if known[i].confidence != known[j].confidence {
			return known[i].confidence > known[j].confidence
		}
		return known[i].category < known[j].category
	})
	return known[0].category, known[0].confidence
}

func clampConfidence(v *float64) float64 {
	if v == nil {
		return 0
	}
	switch {
	case *v < 0:
		return 0
	case *v > 1:
		return 1
	default:
		return *v
	}
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}
