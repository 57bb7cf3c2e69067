package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

func TestIngestRejectsEmptyInput(t *testing.T) {
	intake := NewIntake(&extractorFake{})

	_, err := intake.Ingest(context.Background(), nil, "empty.txt", "text/plain")
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestIngestRejectsDisallowedFormat(t *testing.T) {
	intake := NewIntake(&extractorFake{})

	_, err := intake.Ingest(context.Background(), []byte{0x89, 0x50, 0x4e, 0x47}, "scan.png", "image/png")
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestIngestIDIsPureFunctionOfContent(t *testing.T) {
	intake := NewIntake(&extractorFake{text: "settlement statement"})
	raw := []byte("HUD-1 Settlement Statement for 12 Oak Lane")

	first, err := intake.Ingest(context.Background(), raw, "a.txt", "text/plain")
	if err != nil {
		t.Fatalf("first Ingest() error = %v", err)
	}
	second, err := intake.Ingest(context.Background(), raw, "renamed-copy.txt", "text/plain")
	if err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("identical content produced two identities: %s vs %s", first.ID, second.ID)
	}
}

func TestIngestExtractionFailureIsNotFatal(t *testing.T) {
	intake := NewIntake(&extractorFake{err: errors.New("garbled pdf")})

	doc, err := intake.Ingest(context.Background(), []byte("%PDF-1.4 broken"), "doc.pdf", "application/pdf")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if !doc.ExtractionFailed {
		t.Fatal("expected ExtractionFailed flag")
	}
	if doc.ExtractedText != "" {
		t.Fatalf("expected empty text, got %q", doc.ExtractedText)
	}
}

func TestIngestSniffsPDFDespiteGenericHint(t *testing.T) {
	intake := NewIntake(&extractorFake{text: "content"})

	doc, err := intake.Ingest(context.Background(), []byte("%PDF-1.7 ..."), "upload.bin", "application/octet-stream")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.MimeHint != "application/pdf" {
		t.Fatalf("mime = %q, want application/pdf", doc.MimeHint)
	}
}

func TestIngestTrimsExtractedText(t *testing.T) {
	intake := NewIntake(&extractorFake{text: "  paystub text \n"})

	doc, err := intake.Ingest(context.Background(), []byte("paystub"), "p.txt", "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.ExtractedText != "paystub text" {
		t.Fatalf("text = %q", doc.ExtractedText)
	}
	if doc.ExtractionFailed {
		t.Fatal("unexpected ExtractionFailed")
	}
}
