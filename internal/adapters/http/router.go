package httpadapter

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
	"github.com/mkuznecov/realdoc-classifier/internal/observability/metrics"
)

type RouterConfig struct {
	Service          string
	MaxUploadBytes   int64
	RateLimitRPS     int
	RateLimitBurst   int
	MaxInFlight      int
	BackpressureWait time.Duration
}

type Router struct {
	ingestor ports.DocumentIngestor
	reader   ports.DocumentReader
	usage    ports.UsageReporter
	store    ports.ObjectStore
	metrics  *metrics.HTTPServerMetrics
	cfg      RouterConfig
}

func NewRouter(
	ingestor ports.DocumentIngestor,
	reader ports.DocumentReader,
	usage ports.UsageReporter,
	store ports.ObjectStore,
	httpMetrics *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 64
	}
	if cfg.BackpressureWait <= 0 {
		cfg.BackpressureWait = 2 * time.Second
	}
	return &Router{
		ingestor: ingestor,
		reader:   reader,
		usage:    usage,
		store:    store,
		metrics:  httpMetrics,
		cfg:      cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/usage/summary", rt.usageSummary)
	mux.HandleFunc("/v1/partitions/", rt.listPartition)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, rt.cfg.BackpressureWait)
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read upload: " + err.Error()})
		return
	}

	doc, err := rt.ingestor.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		raw,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.ObserveUploadSize(rt.cfg.Service, doc.SizeBytes)
	}
	writeJSON(w, http.StatusAccepted, documentResponse(doc))
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(doc))
}

func (rt *Router) usageSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var window time.Duration
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "window must be a positive duration like 24h"})
			return
		}
		window = parsed
	}

	summary, err := rt.usage.Summary(r.Context(), window)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) listPartition(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	slug := strings.TrimPrefix(r.URL.Path, "/v1/partitions/")
	category := domain.Category(strings.TrimSuffix(slug, "/"))
	if !category.IsKnown() && category != domain.CategoryUnclassified {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category " + string(category)})
		return
	}

	keys, err := rt.store.List(r.Context(), string(category)+"/")
	if err != nil {
		writeError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"keys":     keys,
	})
}

// documentView mirrors domain.Document for responses; extracted fields
// are emitted as raw JSON instead of base64-encoded bytes.
type documentView struct {
	ID               string          `json:"id"`
	Filename         string          `json:"filename"`
	MimeHint         string          `json:"mime_hint"`
	ExtractionFailed bool            `json:"extraction_failed,omitempty"`
	SizeBytes        int64           `json:"size_bytes"`
	Status           string          `json:"status"`
	Category         string          `json:"category,omitempty"`
	Confidence       float64         `json:"confidence,omitempty"`
	DecisionReason   string          `json:"decision_reason,omitempty"`
	StorageKey       string          `json:"storage_key,omitempty"`
	ExtractedFields  json.RawMessage `json:"extracted_fields,omitempty"`
	Error            string          `json:"error,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func documentResponse(doc *domain.Document) documentView {
	return documentView{
		ID:               doc.ID,
		Filename:         doc.Filename,
		MimeHint:         doc.MimeHint,
		ExtractionFailed: doc.ExtractionFailed,
		SizeBytes:        doc.SizeBytes,
		Status:           string(doc.Status),
		Category:         string(doc.Category),
		Confidence:       doc.Confidence,
		DecisionReason:   string(doc.DecisionReason),
		StorageKey:       doc.StorageKey,
		ExtractedFields:  json.RawMessage(doc.ExtractedFields),
		Error:            doc.Error,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
