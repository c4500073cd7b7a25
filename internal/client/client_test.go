package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mylxsw/short-link/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/links", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"short_id":     "AAAAA",
				"short_url":    "http://s.test/AAAAA",
				"original_url": req["url"],
			})
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string][]string{"short_urls": {"AAAAA", "ZZZZZ"}})
		}
	})
	mux.HandleFunc("/api/links/AAAAA/clicks", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"short_url": "AAAAA", "clicks": 3})
	})
	mux.HandleFunc("/api/links/MISSING", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "short link not found"})
	})
	mux.HandleFunc("/api/reuse-pool", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"reuse_pool": {"BBBBB"}})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	cl := New(&config.Client{Server: srv.URL, Timeout: 5})

	created, err := cl.Shorten("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "AAAAA", created.ShortID)
	assert.Equal(t, "https://example.com", created.OriginalURL)

	clicks, err := cl.Clicks("AAAAA")
	require.NoError(t, err)
	assert.Equal(t, int64(3), clicks)

	links, err := cl.Links()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAAA", "ZZZZZ"}, links)

	pool, err := cl.ReusePool()
	require.NoError(t, err)
	assert.Equal(t, []string{"BBBBB"}, pool)

	err = cl.Delete("MISSING")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "short link not found", apiErr.Message)
}
