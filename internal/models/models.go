package models

import (
	"time"
)

// Agency is the registry's nested agency object; only the name is kept.
type Agency struct {
	Name string `json:"name"`
}

// Document represents one Federal Register document as returned by the
// registry. Immutable once fetched; the pipeline never writes it back.
type Document struct {
	DocumentNumber  string   `json:"document_number"`
	Title           string   `json:"title"`
	PublicationDate string   `json:"publication_date"`
	Type            string   `json:"type"`
	HTMLURL         string   `json:"html_url"`
	FullTextXMLURL  string   `json:"full_text_xml_url"`
	Agencies        []Agency `json:"agencies"`
}

// AgencyName returns the first agency attached to the document, or "".
func (d *Document) AgencyName() string {
	if len(d.Agencies) == 0 {
		return ""
	}
	return d.Agencies[0].Name
}

// Chunk is one token-bounded window of a document's extracted text.
// StartOffset and Overlap count tokens; Index is zero-based within the
// document and fixes persistence order.
type Chunk struct {
	Index       int
	Content     string
	TokenCount  int
	StartOffset int
	Overlap     int
}

// ChunkRecord is the persisted tuple for one embedded chunk: the chunk
// text, its vector, and a snapshot of the parent document's metadata.
type ChunkRecord struct {
	ID              string    `db:"id"`
	Content         string    `db:"content"`
	Embedding       []float32 `db:"embedding"` // pgvector column
	DocumentNumber  string    `db:"document_number"`
	ChunkIndex      int       `db:"chunk_index"`
	TokenCount      int       `db:"token_count"`
	PublicationDate string    `db:"publication_date"`
	Title           string    `db:"title"`
	SourceURL       string    `db:"source_url"`
	Agency          string    `db:"agency"`
	CreatedAt       time.Time `db:"created_at"`
}

// RunReport summarises one pipeline run.
type RunReport struct {
	Fetched                int
	SkippedNoText          int
	SkippedDuplicate       int
	ChunksEmbedded         int
	ChunksFailed           int
	DocumentsPersisted     int
	DocumentsStorageFailed int
}
