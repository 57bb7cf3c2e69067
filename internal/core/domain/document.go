package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusRouted     DocumentStatus = "routed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is one uploaded artifact. ID is a pure function of RawBytes, so
// re-uploading identical content never mints a second identity.
type Document struct {
	ID               string         `json:"id"`
	Filename         string         `json:"filename"`
	MimeHint         string         `json:"mime_hint"`
	RawBytes         []byte         `json:"-"`
	ExtractedText    string         `json:"-"`
	ExtractionFailed bool           `json:"extraction_failed,omitempty"`
	SizeBytes        int64          `json:"size_bytes"`
	Status           DocumentStatus `json:"status"`
	Category         Category       `json:"category,omitempty"`
	Confidence       float64        `json:"confidence,omitempty"`
	DecisionReason   DecisionReason `json:"decision_reason,omitempty"`
	StorageKey       string         `json:"storage_key,omitempty"`
	ExtractedFields  []byte         `json:"extracted_fields,omitempty"`
	Error            string         `json:"error,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ContentID derives the document identity from raw content.
func ContentID(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

type AttemptOutcome string

const (
	OutcomeSuccess AttemptOutcome = "success"
	OutcomeTimeout AttemptOutcome = "timeout"
	OutcomeError   AttemptOutcome = "error"
)

// ClassificationResult is the normalized judgment from one orchestrator
// invocation. Each retry attempt produces its own immutable UsageRecord; the
// result carries the last attempt.
type ClassificationResult struct {
	DocumentID      string         `json:"document_id"`
	Category        Category       `json:"category"`
	Confidence      float64        `json:"confidence"`
	RawAgentPayload []byte         `json:"raw_agent_payload,omitempty"`
	LatencyMs       int64          `json:"latency_ms"`
	CostEstimate    float64        `json:"cost_estimate"`
	Outcome         AttemptOutcome `json:"outcome"`
	Attempts        int            `json:"attempts"`
}

type DecisionReason string

const (
	ReasonAccepted       DecisionReason = "accepted"
	ReasonBelowThreshold DecisionReason = "below-threshold"
	ReasonAgentError     DecisionReason = "agent-error"
)

// RoutingDecision is the Decision Policy output. FinalCategory is
// unclassified whenever Reason != accepted.
type RoutingDecision struct {
	DocumentID    string               `json:"document_id"`
	FinalCategory Category             `json:"final_category"`
	Reason        DecisionReason       `json:"reason"`
	SourceResult  ClassificationResult `json:"source_result"`
}

// StorageRecord maps a document to its location in the partitioned store.
// StorageKey is a deterministic function of (category, document id).
type StorageRecord struct {
	DocumentID string    `json:"document_id"`
	Category   Category  `json:"category"`
	StorageKey string    `json:"storage_key"`
	WrittenAt  time.Time `json:"written_at"`
}

// UsageRecord is one ledger row per classification attempt, appended
// regardless of outcome and never mutated.
type UsageRecord struct {
	Timestamp    time.Time      `json:"timestamp"`
	DocumentID   string         `json:"document_id"`
	Category     Category       `json:"category"`
	LatencyMs    int64          `json:"latency_ms"`
	CostEstimate float64        `json:"cost_estimate"`
	Outcome      AttemptOutcome `json:"outcome"`
}

// UsageSummary is the analytics fold over ledger rows in a window.
type UsageSummary struct {
	Count        int64              `json:"count"`
	TotalCost    float64            `json:"total_cost"`
	AvgLatencyMs float64            `json:"avg_latency_ms"`
	ByCategory   map[Category]int64 `json:"by_category"`
}
