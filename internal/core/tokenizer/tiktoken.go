package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
)

var _ core.Tokenizer = (*Tiktoken)(nil)

// Tiktoken adapts pkoukk/tiktoken-go to the core.Tokenizer port. The
// BPE encoding is fixed by the embedding model, so token boundaries are
// stable across runs.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

// ForModel resolves the tokenizer for an embedding model name, e.g.
// text-embedding-ada-002.
func ForModel(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("resolve encoding for %q: %w", model, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
