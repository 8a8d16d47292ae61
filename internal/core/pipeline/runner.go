package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/models"
)

// Runner drives one pipeline run: fetch candidate documents, then per
// document dedup-check, extract, chunk, embed and persist, strictly in
// sequence. Component failures are contained to the document or chunk
// they hit; only a schema mismatch aborts the run.
type Runner struct {
	source    core.DocumentSource
	extractor core.TextExtractor
	chunker   core.Chunker
	embedder  core.Embedder
	store     core.ChunkStore

	filters      core.SourceFilters
	maxDocuments int

	logger *slog.Logger
}

func NewRunner(
	source core.DocumentSource,
	extractor core.TextExtractor,
	chunker core.Chunker,
	embedder core.Embedder,
	store core.ChunkStore,
	filters core.SourceFilters,
	maxDocuments int,
) *Runner {
	return &Runner{
		source:       source,
		extractor:    extractor,
		chunker:      chunker,
		embedder:     embedder,
		store:        store,
		filters:      filters,
		maxDocuments: maxDocuments,
		logger:       slog.Default().With("component", "pipeline"),
	}
}

// Run executes the pipeline and always returns a report, even when it
// ends early. A registry failure mid-pagination is logged and the
// documents fetched before it are still processed.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{}

	docs, err := r.source.Fetch(ctx, r.filters, r.maxDocuments)
	if err != nil {
		r.logger.Warn("registry fetch incomplete, processing what was fetched",
			"fetched", len(docs), "err", err)
	}
	report.Fetched = len(docs)

	for i := range docs {
		// Interruption is honoured between documents.
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		if err := r.processDocument(ctx, &docs[i], report); err != nil {
			return report, err
		}
	}

	return report, nil
}

// processDocument walks one document through the per-document state
// machine. The returned error is non-nil only for run-fatal conditions
// (schema mismatch, cancellation).
func (r *Runner) processDocument(ctx context.Context, doc *models.Document, report *models.RunReport) error {
	logger := r.logger.With("document", doc.DocumentNumber)
	logger.Info("processing document", "title", truncate(doc.Title, 80))

	processed, err := r.store.AlreadyProcessed(ctx, doc.DocumentNumber)
	if err != nil {
		logger.Error("dedup check failed, skipping document", "err", err)
		report.DocumentsStorageFailed++
		return nil
	}
	if processed {
		logger.Info("document already processed, skipping")
		report.SkippedDuplicate++
		return nil
	}

	text, ok := r.extract(ctx, doc, logger)
	if !ok || text == "" {
		report.SkippedNoText++
		return nil
	}

	chunks := r.chunker.Chunk(text)
	if len(chunks) == 0 {
		report.SkippedNoText++
		return nil
	}
	logger.Info("document chunked", "chunks", len(chunks))

	records := make([]models.ChunkRecord, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := r.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			if errors.Is(err, core.ErrSchemaMismatch) {
				return fmt.Errorf("aborting run: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("chunk embedding failed, skipping chunk", "chunk", chunk.Index, "err", err)
			report.ChunksFailed++
			continue
		}
		report.ChunksEmbedded++

		records = append(records, models.ChunkRecord{
			ID:              uuid.New().String(),
			Content:         chunk.Content,
			Embedding:       vec,
			DocumentNumber:  doc.DocumentNumber,
			ChunkIndex:      chunk.Index,
			TokenCount:      chunk.TokenCount,
			PublicationDate: doc.PublicationDate,
			Title:           doc.Title,
			SourceURL:       doc.HTMLURL,
			Agency:          doc.AgencyName(),
		})
	}

	if len(records) == 0 {
		logger.Warn("no chunks embedded, nothing to persist")
		return nil
	}

	saved, failed, err := r.store.SaveChunks(ctx, records)
	if err != nil || failed > 0 {
		logger.Error("document persisted partially", "saved", saved, "failed", failed, "err", err)
		report.DocumentsStorageFailed++
		return nil
	}

	logger.Info("document persisted", "chunks", saved)
	report.DocumentsPersisted++
	return nil
}

// extract resolves the document's full-text URL via the detail endpoint
// and downloads the text. Any failure here skips the document.
func (r *Runner) extract(ctx context.Context, doc *models.Document, logger *slog.Logger) (string, bool) {
	if doc.FullTextXMLURL == "" {
		detail, err := r.source.FetchDetail(ctx, doc.DocumentNumber)
		if err != nil {
			logger.Error("detail lookup failed, skipping document", "err", err)
			return "", false
		}
		doc.FullTextXMLURL = detail.FullTextXMLURL
	}

	text, ok, err := r.extractor.Extract(ctx, doc)
	if err != nil {
		logger.Error("extraction failed, skipping document", "err", err)
		return "", false
	}
	return text, ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
