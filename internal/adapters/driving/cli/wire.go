package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/reportrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/reportrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reportrag/internal/adapters/driven/storage/filesystem"
	"github.com/custodia-labs/reportrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reportrag/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/reportrag/internal/core/domain"
	"github.com/custodia-labs/reportrag/internal/core/services"
	"github.com/custodia-labs/reportrag/internal/logger"
	"github.com/custodia-labs/reportrag/internal/normalisers/pdf"
	"github.com/custodia-labs/reportrag/internal/postprocessors/chunker"
)

// blobDirName is the directory under the data dir holding registered PDFs.
const blobDirName = "files"

// coreRuntime holds the wired services and the resources they own.
type coreRuntime struct {
	ctx   context.Context
	store *sqlite.Store
	ai    *ai.InitResult
	queue *services.IngestionQueue

	documents  *services.DocumentService
	catalog    *services.CatalogService
	evaluation *services.EvaluationService

	warnings []string
}

// wireCore opens storage and AI providers and builds the core services.
func wireCore(ctx context.Context, settings *domain.AppSettings, promptDir string) (*coreRuntime, error) {
	logger.Section("Startup")
	logger.Debug("Index dir: %s", settings.Storage.IndexDir)
	logger.Debug("Data dir: %s", settings.Storage.DataDir)

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}
	rt := &coreRuntime{ctx: ctx, store: store}

	blobs, err := filesystem.NewBlobStore(filepath.Join(settings.Storage.DataDir, blobDirName))
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("opening blob store: %w", err)
	}

	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("opening prompt store: %w", err)
	}

	aiResult, err := ai.Init(ctx, *settings)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.ai = aiResult
	rt.warnings = aiResult.Warnings

	parser := pdf.New()
	indexes := flat.Store{}
	embedder := aiResult.EmbeddingService

	years := services.NewYearInferer(parser, aiResult.GenerativeService, prompts)
	retrievalOpts := []services.RetrievalOption{
		services.WithSimilarityThreshold(settings.Retrieval.SimilarityThreshold),
	}
	if aiResult.GenerativeService != nil {
		retrievalOpts = append(retrievalOpts, services.WithProviderName(settings.LLM.Provider.String()))
	}

	pipeline := services.NewIngestionPipeline(
		parser,
		chunker.New(),
		embedder,
		indexes,
		settings.Storage.IndexDir,
		services.WithChunkSettings(settings.Chunking),
		services.WithYearInferer(years),
	)

	docs := store.DocumentStore()
	companies := store.CompanyStore()
	queries := store.QueryStore()

	rt.queue = services.NewIngestionQueue(pipeline, docs, settings.Ingestion)
	rt.documents = services.NewDocumentService(docs, companies, blobs, rt.queue)
	rt.catalog = services.NewCatalogService(companies, queries)

	retriever := services.NewRetrievalProcessor(embedder, indexes, years, retrievalOpts...)
	rt.evaluation = services.NewEvaluationService(
		retriever,
		docs,
		companies,
		queries,
		store.EvaluationStore(),
		services.WithModelVersion(embedder.ModelName()),
		services.WithRetrievalSettings(settings.Retrieval),
	)

	return rt, nil
}

// Close drains the ingestion queue, then releases providers and storage.
// After an interrupt, queued work is abandoned and stays pending.
func (rt *coreRuntime) Close() error {
	var errs []error
	if rt.queue != nil {
		closeQueue := rt.queue.Close
		if rt.ctx != nil && rt.ctx.Err() != nil {
			closeQueue = rt.queue.Abort
		}
		if err := closeQueue(); err != nil {
			errs = append(errs, fmt.Errorf("closing ingestion queue: %w", err))
		}
	}
	if rt.ai != nil {
		rt.ai.Close()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing record store: %w", err))
		}
	}
	return errors.Join(errs...)
}
