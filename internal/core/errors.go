package core

import "errors"

var (
	// ErrSourceUnavailable is returned when the document registry cannot
	// be reached or answers with an error. Pagination stops; documents
	// fetched before the failure remain usable.
	ErrSourceUnavailable = errors.New("document source unavailable")

	// ErrExtraction is returned when a document's full-text payload
	// cannot be downloaded or parsed. The document is skipped.
	ErrExtraction = errors.New("full text extraction failed")

	// ErrEmbedding is returned when the embedding provider still fails
	// after retries. The chunk is skipped.
	ErrEmbedding = errors.New("embedding request failed")

	// ErrSchemaMismatch is returned when the provider's vector dimension
	// disagrees with the storage schema. Fatal for the whole run.
	ErrSchemaMismatch = errors.New("embedding dimension does not match storage schema")

	// ErrStorage is returned on a failed database write. The document is
	// counted as storage-failed; the run continues.
	ErrStorage = errors.New("chunk storage failed")
)
