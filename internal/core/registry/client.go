package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/models"
)

const userAgent = "Mozilla/5.0"

var _ core.DocumentSource = (*Client)(nil)

// Client pages through the Federal Register documents API.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a registry client. pageSize bounds per_page on each
// request; values outside 1..100 fall back to 20.
func NewClient(baseURL string, pageSize int) *Client {
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   slog.Default().With("component", "registry"),
	}
}

// page is the registry's documents.json response envelope.
type page struct {
	Count   int               `json:"count"`
	Results []models.Document `json:"results"`
}

// Fetch collects up to maxDocuments unique documents, walking pages in
// newest-first order and deduplicating by document_number across pages.
// A request failure stops pagination and returns what was fetched so
// far, wrapped in core.ErrSourceUnavailable.
func (c *Client) Fetch(ctx context.Context, filters core.SourceFilters, maxDocuments int) ([]models.Document, error) {
	if maxDocuments <= 0 {
		maxDocuments = 50
	}

	seen := make(map[string]struct{}, maxDocuments)
	var docs []models.Document

	for pageNum := 1; len(docs) < maxDocuments; pageNum++ {
		p, err := c.fetchPage(ctx, filters, pageNum)
		if err != nil {
			return docs, fmt.Errorf("%w: page %d: %v", core.ErrSourceUnavailable, pageNum, err)
		}
		c.logger.Info("registry page fetched", "page", pageNum, "results", len(p.Results), "total", p.Count)

		for i := range p.Results {
			d := p.Results[i]
			if d.DocumentNumber == "" {
				continue
			}
			if _, dup := seen[d.DocumentNumber]; dup {
				continue
			}
			seen[d.DocumentNumber] = struct{}{}
			docs = append(docs, d)
			if len(docs) >= maxDocuments {
				break
			}
		}

		// A short page means the registry has no further results.
		if len(p.Results) < c.pageSize {
			break
		}
	}

	return docs, nil
}

func (c *Client) fetchPage(ctx context.Context, filters core.SourceFilters, pageNum int) (*page, error) {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(c.pageSize))
	params.Set("page", strconv.Itoa(pageNum))
	params.Set("order", "newest")
	if filters.Since != "" {
		params.Set("conditions[publication_date][gte]", filters.Since)
	}
	if filters.Until != "" {
		params.Set("conditions[publication_date][lte]", filters.Until)
	}
	if len(filters.Keywords) > 0 {
		params.Set("conditions[term]", strings.Join(filters.Keywords, "|"))
	}
	for _, t := range filters.Types {
		params.Add("conditions[type][]", t)
	}

	var p page
	if err := c.getJSON(ctx, c.baseURL+"/documents.json?"+params.Encode(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchDetail retrieves the single-document record, which carries the
// full_text_xml_url the list endpoint may omit.
func (c *Client) FetchDetail(ctx context.Context, documentNumber string) (*models.Document, error) {
	var d models.Document
	u := c.baseURL + "/documents/" + url.PathEscape(documentNumber) + ".json"
	if err := c.getJSON(ctx, u, &d); err != nil {
		return nil, fmt.Errorf("%w: detail %s: %v", core.ErrSourceUnavailable, documentNumber, err)
	}
	return &d, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
