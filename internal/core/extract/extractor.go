package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/models"
)

const userAgent = "Mozilla/5.0"

var _ core.TextExtractor = (*XMLExtractor)(nil)

// elementKind classifies markup elements by whether they carry body text.
type elementKind int

const (
	kindOther elementKind = iota
	kindParagraph
	kindHeading
	kindFootnote
)

// classify maps a Federal Register XML tag to its text-bearing kind.
// P carries paragraphs, HD headings, FTNT footnotes; everything else is
// structural and ignored.
func classify(local string) elementKind {
	switch strings.ToUpper(local) {
	case "P":
		return kindParagraph
	case "HD":
		return kindHeading
	case "FTNT":
		return kindFootnote
	default:
		return kindOther
	}
}

// XMLExtractor downloads a document's full-text XML and returns the
// text of its paragraph, heading and footnote elements.
type XMLExtractor struct {
	http   *http.Client
	logger *slog.Logger
}

func NewXMLExtractor() *XMLExtractor {
	return &XMLExtractor{
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: slog.Default().With("component", "extractor"),
	}
}

// Extract returns the plain text of doc's markup payload. ok is false
// when the document carries no full-text URL; that is a skip, not an
// error. Download or parse failures wrap core.ErrExtraction.
func (e *XMLExtractor) Extract(ctx context.Context, doc *models.Document) (string, bool, error) {
	if doc.FullTextXMLURL == "" {
		e.logger.Info("document has no full text url", "document", doc.DocumentNumber)
		return "", false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.FullTextXMLURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", core.ErrExtraction, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("%w: fetch xml for %s: %v", core.ErrExtraction, doc.DocumentNumber, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("%w: fetch xml for %s: status %d", core.ErrExtraction, doc.DocumentNumber, resp.StatusCode)
	}

	text, err := extractText(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("%w: parse xml for %s: %v", core.ErrExtraction, doc.DocumentNumber, err)
	}
	return text, true, nil
}

// extractText walks the XML token stream and collects the full text of
// each outermost text-bearing element in document order. A recognised
// element nested inside another (footnotes contain paragraphs) is
// folded into its parent rather than emitted twice.
func extractText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		parts []string
		buf   strings.Builder
		depth int // nesting depth inside the current text-bearing element
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth > 0 {
				depth++
				continue
			}
			if classify(t.Name.Local) != kindOther {
				depth = 1
				buf.Reset()
			}
		case xml.EndElement:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				if s := strings.TrimSpace(buf.String()); s != "" {
					parts = append(parts, s)
				}
			}
		case xml.CharData:
			if depth > 0 {
				buf.Write(t)
			}
		}
	}

	return strings.Join(parts, "\n"), nil
}
