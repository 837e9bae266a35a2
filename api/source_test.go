package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPageSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "query", q.Get("action"))
		assert.Equal(t, "revisions", q.Get("prop"))
		assert.Equal(t, "main", q.Get("rvslots"))
		assert.Equal(t, "Main Page", q.Get("titles"))

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"batchcomplete": true,
			"query": {"pages": [{
				"pageid": 15580374,
				"ns": 0,
				"title": "Main Page",
				"revisions": [{
					"revid": 1234,
					"slots": {"main": {"contentmodel": "wikitext", "contentformat": "text/x-wiki", "content": "* a\n** b"}}
				}]
			}]}
		}`))
	}))
	defer server.Close()

	page, err := NewClient(server.URL).GetPageSource(context.Background(), "Main Page")
	require.NoError(t, err)
	assert.Equal(t, &Page{
		PageID:       15580374,
		Title:        "Main Page",
		RevisionID:   1234,
		ContentModel: "wikitext",
		Source:       "* a\n** b",
	}, page)
}

func TestGetPageSource_NotFound(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing", `{"query": {"pages": [{"ns": 0, "title": "Nope", "missing": true}]}}`},
		{"invalid title", `{"query": {"pages": [{"title": "<>", "invalid": true, "invalidreason": "bad"}]}}`},
		{"no pages", `{"query": {"pages": []}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).GetPageSource(context.Background(), "Nope")
			assert.ErrorIs(t, err, ErrPageNotFound)
		})
	}
}

func TestGetPageSource_EmptyTitle(t *testing.T) {
	_, err := NewClient("https://wiki.example.org/w").GetPageSource(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}

func TestSiteInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "siteinfo", r.URL.Query().Get("meta"))
		w.Write([]byte(`{"query": {"general": {
			"mainpage": "Main Page",
			"base": "https://wiki.example.org/wiki/Main_Page",
			"sitename": "Example Wiki",
			"generator": "MediaWiki 1.42.1"
		}}}`))
	}))
	defer server.Close()

	info, err := NewClient(server.URL).SiteInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Example Wiki", info.SiteName)
	assert.Equal(t, "MediaWiki 1.42.1", info.Generator)
	assert.Equal(t, "Main Page", info.MainPage)
}

func TestSiteInfo_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query": {}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).SiteInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no site information")
}
