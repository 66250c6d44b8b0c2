package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medex-ai/medex/internal/config"
	"github.com/medex-ai/medex/internal/core/ports"
	"github.com/medex-ai/medex/internal/core/usecase"
	"github.com/medex-ai/medex/internal/detection"
	"github.com/medex-ai/medex/internal/infrastructure/chunking"
	"github.com/medex-ai/medex/internal/infrastructure/corpus"
	"github.com/medex-ai/medex/internal/infrastructure/extractor"
	"github.com/medex-ai/medex/internal/infrastructure/extractor/pdfdoc"
	"github.com/medex-ai/medex/internal/infrastructure/extractor/plaintext"
	"github.com/medex-ai/medex/internal/infrastructure/extractor/spreadsheet"
	"github.com/medex-ai/medex/internal/infrastructure/llm/fallback"
	"github.com/medex-ai/medex/internal/infrastructure/llm/ollama"
	"github.com/medex-ai/medex/internal/infrastructure/llm/tei"
	"github.com/medex-ai/medex/internal/infrastructure/queue/nats"
	"github.com/medex-ai/medex/internal/infrastructure/repository/postgres"
	"github.com/medex-ai/medex/internal/infrastructure/resilience"
	"github.com/medex-ai/medex/internal/infrastructure/storage/localfs"
	"github.com/medex-ai/medex/internal/ontology"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Sources   ports.SourceRepository
	UserTypes ports.UserTypeClassifier
	Emergency ports.EmergencyClassifier
	IngestUC  ports.SourceIngestor
	IndexUC   ports.SourceIndexer
	QueryUC   ports.QueryService

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sources := postgres.NewSourceRepository(db)
	if err := sources.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunks := postgres.NewChunkRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder := buildEmbedder(cfg, executor)
	reranker := tei.New(cfg.RerankerURL, executor)

	expander, err := ontology.NewExpander()
	if err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}

	index := corpus.NewIndex()
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap, cfg.ChunkMinSize)
	extract := extractor.NewSelector(
		plaintext.NewExtractor(storage),
		pdfdoc.NewExtractor(storage),
		spreadsheet.NewExtractor(storage),
	)

	userTypes := detection.NewUserTypeDetector()
	emergency := detection.NewEmergencyDetector()

	ingestUC := usecase.NewIngestSourceUseCase(sources, storage, queue)
	indexUC := usecase.NewIndexSourceUseCase(sources, chunks, extract, chunker, embedder, index, corpus.EncodeSparseDocument)
	queryUC := usecase.NewQueryUseCase(expander, embedder, index, reranker, userTypes, emergency, usecase.QueryConfig{
		TopK:                cfg.RAGTopK,
		CandidateMultiplier: cfg.RAGCandidateMultiplier,
		RRFK:                cfg.RAGFusionRRFK,
		EmergencyBoost:      cfg.RAGEmergencyBoost,
		MaxExpansions:       cfg.OntologyMaxExpansions,
	})

	// Warm the in-memory index from persisted chunks so queries work
	// immediately after a restart.
	if count, err := indexUC.Reload(ctx); err != nil {
		slog.Warn("startup index reload failed", "error", err)
	} else {
		slog.Info("corpus index loaded", "chunks", count)
	}

	return &App{
		Config: cfg,

		Queue:     queue,
		Sources:   sources,
		UserTypes: userTypes,
		Emergency: emergency,
		IngestUC:  ingestUC,
		IndexUC:   indexUC,
		QueryUC:   queryUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// buildEmbedder wires the primary Ollama backend, with an optional secondary
// instance behind a fallback chain when FALLBACK_OLLAMA_URL is set.
func buildEmbedder(cfg config.Config, executor *resilience.Executor) ports.Embedder {
	primary := ollama.NewEmbedder(ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor))
	if cfg.FallbackOllamaURL == "" {
		return primary
	}
	secondary := ollama.NewEmbedder(ollama.New(cfg.FallbackOllamaURL, cfg.OllamaEmbedModel, executor))
	return fallback.NewChain([]fallback.Backend{
		{Name: "ollama-primary", Embedder: primary},
		{Name: "ollama-fallback", Embedder: secondary},
	}, fallback.ClassifyEmbedError, 0)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
