package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mkuznecov/realdoc-classifier/internal/config"
	"github.com/mkuznecov/realdoc-classifier/internal/core/ports"
	"github.com/mkuznecov/realdoc-classifier/internal/core/usecase"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/agent/bedrock"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/extractor"
	ledgermem "github.com/mkuznecov/realdoc-classifier/internal/infrastructure/ledger/memory"
	ledgerpg "github.com/mkuznecov/realdoc-classifier/internal/infrastructure/ledger/postgres"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/queue/nats"
	repomem "github.com/mkuznecov/realdoc-classifier/internal/infrastructure/repository/memory"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/repository/postgres"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/resilience"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/storage"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/storage/localfs"
	s3store "github.com/mkuznecov/realdoc-classifier/internal/infrastructure/storage/s3"
)

type App struct {
	Config config.Config

	Queue  ports.MessageQueue
	Repo   ports.DocumentRepository
	Store  ports.ObjectStore
	Ledger ports.UsageLedger

	UploadUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	UsageUC   ports.UsageReporter

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	repo, ledger, closePersistence, err := newPersistence(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}

	queueExecutor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		BreakerEnabled:      true,
	})
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: queueExecutor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	// Attempt-level retry for the agent lives in the orchestrator so
	// every attempt lands in the usage ledger; the executor here only
	// contributes the shared circuit breaker.
	agentExecutor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: 1,
		BreakerEnabled:   true,
	})
	agent, err := bedrock.New(ctx, bedrock.Config{
		Region:          cfg.AWSRegion,
		AgentID:         cfg.BedrockAgentID,
		AgentAliasID:    cfg.BedrockAgentAliasID,
		KnowledgeBaseID: cfg.BedrockKnowledgeBaseID,
		Executor:        agentExecutor,
	})
	if err != nil {
		return nil, fmt.Errorf("init bedrock agent: %w", err)
	}

	textExtractor := extractor.New()
	intake := usecase.NewIntake(textExtractor)
	uploadUC := usecase.NewUploader(intake, repo, store, queue)

	orchestrator := usecase.NewOrchestrator(agent, ledger, usecase.OrchestratorConfig{
		MaxAttempts:      cfg.AgentMaxAttempts,
		RetryBase:        time.Duration(cfg.AgentRetryBaseMs) * time.Millisecond,
		CostBaseUSD:      cfg.CostBaseUSD,
		CostPerSecondUSD: cfg.CostPerSecondUSD,
	})
	policy := usecase.NewPolicy(cfg.ConfidenceThreshold)
	storageExecutor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.StorageMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.StorageRetryDelayMs) * time.Millisecond,
		BackoffStrategy:     resilience.BackoffLinear,
		BreakerEnabled:      true,
	})
	router := usecase.NewRouter(store, usecase.RouterConfig{
		Retry: storage.NewRouteRetrier(storageExecutor),
	})

	var fields *usecase.FieldExtractor
	if cfg.FieldExtractionEnabled {
		fields = usecase.NewFieldExtractor(agent)
	}

	processUC := usecase.NewPipeline(
		repo,
		store,
		textExtractor,
		orchestrator,
		policy,
		router,
		fields,
		time.Duration(cfg.ClassifyBudgetSeconds)*time.Second,
	)
	usageUC := usecase.NewUsageReport(ledger)

	return &App{
		Config: cfg,

		Queue:  queue,
		Repo:   repo,
		Store:  store,
		Ledger: ledger,

		UploadUC:  uploadUC,
		ProcessUC: processUC,
		UsageUC:   usageUC,

		closeFn: func() {
			queue.Close()
			closePersistence()
		},
	}, nil
}

// newPersistence selects the persistence backend. With a postgres DSN the
// documents table and usage ledger live in the database; without one both
// fall back to process memory for local development.
func newPersistence(ctx context.Context, dsn string) (ports.DocumentRepository, ports.UsageLedger, func(), error) {
	if dsn == "" {
		slog.Warn("postgres_dsn_empty", "persistence", "in-memory", "note", "state is lost on restart")
		return repomem.NewDocumentRepository(), ledgermem.NewLedger(), func() {}, nil
	}

	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ensure documents schema: %w", err)
	}
	ledger := ledgerpg.NewLedger(db)
	if err := ledger.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ensure usage schema: %w", err)
	}
	return repo, ledger, func() { _ = db.Close() }, nil
}

func newObjectStore(ctx context.Context, cfg config.Config) (ports.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:      cfg.AWSRegion,
			Bucket:      cfg.S3BucketName,
			EndpointURL: cfg.S3EndpointURL,
			AccessKey:   cfg.S3AccessKey,
			SecretKey:   cfg.S3SecretKey,
		})
	case "localfs":
		return localfs.New(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
