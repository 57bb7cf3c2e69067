package extractor

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Extractor turns raw document bytes into plain text for classification.
// Plain-text families are decoded directly, PDFs go through the pdf reader.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, raw []byte, mimeHint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch mimeHint {
	case "application/pdf":
		return extractPDF(raw)
	case "text/plain", "text/markdown", "text/csv":
		return extractPlainText(raw)
	default:
		return "", fmt.Errorf("no extractor for mime type %q", mimeHint)
	}
}

func extractPlainText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("text document is not valid utf-8")
	}
	return strings.TrimSpace(string(raw)), nil
}
