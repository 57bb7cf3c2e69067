package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

// FieldExtractor pulls category-specific structured fields out of an
// accepted document via a second agent call. Extraction is best-effort and
// never blocks routing.
type FieldExtractor struct {
	agent ports.ClassificationAgent
}

func NewFieldExtractor(agent ports.ClassificationAgent) *FieldExtractor {
	return &FieldExtractor{agent: agent}
}

func (f *FieldExtractor) Extract(ctx context.Context, category domain.Category, text string) ([]byte, error) {
	resp, err := f.agent.Invoke(ctx, buildExtractionPrompt(category, text))
	if err != nil {
		return nil, fmt.Errorf("field extraction agent call: %w", err)
	}

	raw := extractJSONObject(resp.Completion)
	if raw == "" {
		return nil, errors.New("field extraction response contains no JSON object")
	}
	if !json.Valid([]byte(raw)) {
		return nil, errors.New("field extraction response is not valid JSON")
	}
	return []byte(raw), nil
}
