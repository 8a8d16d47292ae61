package chunker

import (
	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/models"
)

// Chunker splits text into overlapping token windows. Each window after
// the first starts window-overlap tokens after the previous one, so
// consecutive chunks share exactly overlap tokens except when the final
// chunk is shorter than the overlap.
type Chunker struct {
	tokenizer core.Tokenizer
	window    int
	overlap   int
}

// New creates a chunker. window must exceed overlap; out-of-range
// values fall back to the 512/50 defaults.
func New(tokenizer core.Tokenizer, window, overlap int) *Chunker {
	if window <= 0 {
		window = 512
	}
	if overlap < 0 || overlap >= window {
		overlap = window / 10
	}
	return &Chunker{tokenizer: tokenizer, window: window, overlap: overlap}
}

// Chunk tokenizes text and emits ordered windows. Empty text yields no
// chunks.
func (c *Chunker) Chunk(text string) []models.Chunk {
	tokens := c.tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := c.window - c.overlap
	var chunks []models.Chunk
	for start := 0; start < len(tokens); start += stride {
		end := start + c.window
		if end > len(tokens) {
			end = len(tokens)
		}

		overlap := c.overlap
		if start == 0 {
			overlap = 0
		} else if got := len(tokens) - start; got < overlap {
			// Terminal chunk shorter than the overlap region.
			overlap = got
		}

		chunks = append(chunks, models.Chunk{
			Index:       len(chunks),
			Content:     c.tokenizer.Decode(tokens[start:end]),
			TokenCount:  end - start,
			StartOffset: start,
			Overlap:     overlap,
		})

		if end == len(tokens) {
			break
		}
	}
	return chunks
}
