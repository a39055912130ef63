package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/core/ports"
	"github.com/kirillkom/campus-faq-assistant/internal/core/usecase"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/corpus"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/rerank"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/stt/whisper"
	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/vector/qdrant"
)

// AnswerPipeline is the read-only question answering stack. It has no
// persistence or queue dependencies, so transports that only answer
// questions (the MCP server) can run without Postgres and NATS.
type AnswerPipeline struct {
	Answerer ports.QuestionAnswerer
	Signals  *usecase.SignalExtractor
}

func NewAnswerPipeline(cfg config.Config) *AnswerPipeline {
	executor := resilience.NewExecutor(resilience.DefaultConfig())
	return newAnswerPipeline(cfg, executor)
}

func newAnswerPipeline(cfg config.Config, executor *resilience.Executor) *AnswerPipeline {
	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	scorer := rerank.NewWithOptions(cfg.RerankerURL, rerank.Options{
		ResilienceExecutor: executor,
	})

	signals := usecase.NewSignalExtractor(usecase.DefaultSignalRules())
	rewriter := usecase.NewRewriter(generator, signals)
	retriever := usecase.NewHybridRetriever(embedder, vectorDB, vectorDB, usecase.RetrieverConfig{
		TopK:      cfg.RAGTopK,
		FetchK:    cfg.RAGFetchK,
		MMRLambda: cfg.RAGMMRLambda,
	})

	answerUC := usecase.NewAnswerUseCase(signals, rewriter, retriever, scorer, generator, usecase.PipelineConfig{
		VariantCount:      cfg.RAGVariantCount,
		TopK:              cfg.RAGContextTopK,
		GenerationTimeout: time.Duration(cfg.GenerationTimeoutSeconds) * time.Second,
	})

	return &AnswerPipeline{
		Answerer: answerUC,
		Signals:  signals,
	}
}

type App struct {
	Config config.Config

	Queue       ports.MessageQueue
	Reader      ports.CorpusReader
	Answerer    ports.QuestionAnswerer
	Signals     *usecase.SignalExtractor
	IngestUC    ports.CorpusIngestor
	IndexUC     ports.CorpusIndexer
	Transcriber ports.Transcriber

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewCorpusRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	pipeline := newAnswerPipeline(cfg, executor)

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	parser := corpus.NewParser()
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	augmenter := usecase.NewParaphraseAugmenter(generator, cfg.ParaphraseCount)

	ingestUC := usecase.NewIngestCorpusUseCase(repo, storage, queue)
	indexUC := usecase.NewIndexCorpusUseCase(repo, storage, parser, chunker, augmenter, embedder, vectorDB)

	return &App{
		Config: cfg,

		Queue:       queue,
		Reader:      repo,
		Answerer:    pipeline.Answerer,
		Signals:     pipeline.Signals,
		IngestUC:    ingestUC,
		IndexUC:     indexUC,
		Transcriber: whisper.New(cfg.WhisperURL),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
