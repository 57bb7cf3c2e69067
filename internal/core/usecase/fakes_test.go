package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
)

type agentFake struct {
	mu        sync.Mutex
	responses []agentTurn
	calls     int
	prompts   []string
}

type agentTurn struct {
	completion string
	err        error
}

func (f *agentFake) Invoke(_ context.Context, prompt string) (ports.AgentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)

	turn := agentTurn{completion: `{"category": "Settlement Documents", "confidence": 0.95}`}
	if len(f.responses) > 0 {
		turn = f.responses[0]
		if len(f.responses) > 1 {
			f.responses = f.responses[1:]
		}
	}
	if turn.err != nil {
		return ports.AgentResponse{}, turn.err
	}
	return ports.AgentResponse{Completion: turn.completion, Raw: []byte(turn.completion)}, nil
}

type ledgerFake struct {
	mu      sync.Mutex
	records []domain.UsageRecord
	err     error
}

func (f *ledgerFake) Append(_ context.Context, rec domain.UsageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *ledgerFake) Aggregate(_ context.Context, _ time.Duration) (domain.UsageSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := domain.UsageSummary{ByCategory: map[domain.Category]int64{}}
	var totalLatency int64
	for _, rec := range f.records {
		summary.Count++
		summary.TotalCost += rec.CostEstimate
		totalLatency += rec.LatencyMs
		summary.ByCategory[rec.Category]++
	}
	if summary.Count > 0 {
		summary.AvgLatencyMs = float64(totalLatency) / float64(summary.Count)
	}
	return summary, nil
}

func (f *ledgerFake) rows() []domain.UsageRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.UsageRecord, len(f.records))
	copy(out, f.records)
	return out
}

// storeFake implements the object store with injectable transient failures.
type storeFake struct {
	mu         sync.Mutex
	objects    map[string][]byte
	puts       int
	existsErrs []error
	putErrs    []error
	getErrs    []error
	// hideExists forces that many Exists calls to report absence, simulating
	// an object landing between the existence check and the write.
	hideExists int
}

func newStoreFake() *storeFake {
	return &storeFake{objects: map[string][]byte{}}
}

func popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (f *storeFake) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := popErr(&f.existsErrs); err != nil {
		return false, err
	}
	if f.hideExists > 0 {
		f.hideExists--
		return false, nil
	}
	_, ok := f.objects[key]
	return ok, nil
}

func (f *storeFake) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := popErr(&f.getErrs); err != nil {
		return nil, err
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get object", errors.New(key))
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (f *storeFake) PutIfAbsent(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := popErr(&f.putErrs); err != nil {
		return err
	}
	if _, ok := f.objects[key]; ok {
		return domain.WrapError(domain.ErrStorageKeyConflict, "put object", errors.New(key))
	}
	f.objects[key] = append([]byte(nil), data...)
	f.puts++
	return nil
}

func (f *storeFake) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

type repoFake struct {
	mu          sync.Mutex
	docs        map[string]*domain.Document
	statusCalls []domain.DocumentStatus
	decision    *domain.RoutingDecision
	storageKey  string
	fields      []byte
	saveErr     error
}

func newRepoFake(docs ...*domain.Document) *repoFake {
	f := &repoFake{docs: map[string]*domain.Document{}}
	for _, doc := range docs {
		f.docs[doc.ID] = doc
	}
	return f
}

func (f *repoFake) Create(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
	return nil
}

func (f *repoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *repoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, status)
	return nil
}

func (f *repoFake) SaveDecision(_ context.Context, _ string, decision domain.RoutingDecision, storageKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.decision = &decision
	f.storageKey = storageKey
	return nil
}

func (f *repoFake) SaveExtractedFields(_ context.Context, _ string, fields []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
	return nil
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, []byte, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type queueFake struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return nil
}
