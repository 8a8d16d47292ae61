package core

import (
	"context"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/models"
)

// SourceFilters narrow a registry query. Zero values mean "no filter".
type SourceFilters struct {
	Keywords []string // joined into a single term filter
	Since    string   // inclusive publication_date lower bound, YYYY-MM-DD
	Until    string   // inclusive publication_date upper bound, YYYY-MM-DD
	Types    []string // RULE, PRORULE, NOTICE, PRESDOCU
}

// DocumentSource pages through the document registry.
// It abstracts the Federal Register API so the pipeline never depends
// on its wire format.
type DocumentSource interface {
	// Fetch collects up to maxDocuments unique documents matching the
	// filters. On a mid-pagination failure it returns the documents
	// fetched so far together with an ErrSourceUnavailable-wrapped error.
	Fetch(ctx context.Context, filters SourceFilters, maxDocuments int) ([]models.Document, error)

	// FetchDetail retrieves the full metadata record for one document,
	// including its full_text_xml_url when the registry has one.
	FetchDetail(ctx context.Context, documentNumber string) (*models.Document, error)
}

// TextExtractor turns a document's markup payload into plain text.
type TextExtractor interface {
	// Extract downloads the document's full-text payload and returns the
	// concatenated text of its recognised elements. Returns ("", false,
	// nil) when the document has no full-text URL.
	Extract(ctx context.Context, doc *models.Document) (text string, ok bool, err error)
}

// Tokenizer encodes text to stable token IDs and back. Boundaries must
// be reproducible across runs for the same input and tokenizer version.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Chunker splits extracted text into ordered, overlapping token
// windows.
type Chunker interface {
	Chunk(text string) []models.Chunk
}

// Embedder converts chunk text into a fixed-dimension vector. The
// implementation owns rate limiting and retries.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore persists embedded chunks and answers dedup queries.
type ChunkStore interface {
	// AlreadyProcessed reports whether any record exists for the document.
	AlreadyProcessed(ctx context.Context, documentNumber string) (bool, error)

	// SaveChunks attempts to insert every record. Inserts that fail are
	// reported in failed; the remaining records are still attempted.
	SaveChunks(ctx context.Context, records []models.ChunkRecord) (saved, failed int, err error)

	Close() error
}
