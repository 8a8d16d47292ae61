package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberProjects/llm-embedding-pipeline/internal/core"
	"github.com/cyberProjects/llm-embedding-pipeline/internal/models"
)

func docN(n int) models.Document {
	return models.Document{
		DocumentNumber:  fmt.Sprintf("2025-%04d", n),
		Title:           fmt.Sprintf("Rule %d", n),
		PublicationDate: "2025-03-01",
		Type:            "Rule",
	}
}

func pageHandler(t *testing.T, pages map[int][]models.Document) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		pageNum, _ := strconv.Atoi(r.URL.Query().Get("page"))
		results := pages[pageNum]
		total := 0
		for _, p := range pages {
			total += len(p)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   total,
			"results": results,
		})
	}
}

func TestFetchPagesUntilMax(t *testing.T) {
	pages := map[int][]models.Document{
		1: {docN(1), docN(2)},
		2: {docN(3), docN(4)},
		3: {docN(5), docN(6)},
	}
	srv := httptest.NewServer(pageHandler(t, pages))
	defer srv.Close()

	c := NewClient(srv.URL, 2)
	docs, err := c.Fetch(context.Background(), core.SourceFilters{}, 3)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "2025-0001", docs[0].DocumentNumber)
	assert.Equal(t, "2025-0003", docs[2].DocumentNumber)
}

func TestFetchStopsOnShortPage(t *testing.T) {
	pages := map[int][]models.Document{
		1: {docN(1), docN(2)},
		2: {docN(3)}, // short page: no more results
	}
	srv := httptest.NewServer(pageHandler(t, pages))
	defer srv.Close()

	c := NewClient(srv.URL, 2)
	docs, err := c.Fetch(context.Background(), core.SourceFilters{}, 50)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestFetchDeduplicatesAcrossPages(t *testing.T) {
	pages := map[int][]models.Document{
		1: {docN(1), docN(2)},
		2: {docN(2), docN(3)},
		3: {},
	}
	srv := httptest.NewServer(pageHandler(t, pages))
	defer srv.Close()

	c := NewClient(srv.URL, 2)
	docs, err := c.Fetch(context.Background(), core.SourceFilters{}, 50)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "2025-0003", docs[2].DocumentNumber)
}

func TestFetchMidPaginationFailureKeepsFetched(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   4,
			"results": []models.Document{docN(1), docN(2)},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2)
	docs, err := c.Fetch(context.Background(), core.SourceFilters{}, 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
	assert.Len(t, docs, 2, "documents fetched before the failure survive")
}

func TestFetchSendsFilterConditions(t *testing.T) {
	var got map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 0, "results": []models.Document{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5)
	_, err := c.Fetch(context.Background(), core.SourceFilters{
		Keywords: []string{"tariff", "import"},
		Since:    "2025-03-01",
		Until:    "2025-04-01",
		Types:    []string{"RULE", "PRORULE"},
	}, 10)
	require.NoError(t, err)

	assert.Equal(t, "tariff|import", got["conditions[term]"][0])
	assert.Equal(t, "2025-03-01", got["conditions[publication_date][gte]"][0])
	assert.Equal(t, "2025-04-01", got["conditions[publication_date][lte]"][0])
	assert.ElementsMatch(t, []string{"RULE", "PRORULE"}, got["conditions[type][]"])
	assert.Equal(t, "newest", got["order"][0])
	assert.Equal(t, "5", got["per_page"][0])
}

func TestFetchDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents/2025-0001.json", r.URL.Path)
		_ = json.NewEncoder(w).Encode(models.Document{
			DocumentNumber: "2025-0001",
			FullTextXMLURL: "https://example.org/full.xml",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5)
	d, err := c.FetchDetail(context.Background(), "2025-0001")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/full.xml", d.FullTextXMLURL)
}

func TestFetchDetailErrorWrapsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5)
	_, err := c.FetchDetail(context.Background(), "2025-0001")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSourceUnavailable))
}
