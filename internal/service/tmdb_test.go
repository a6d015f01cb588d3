package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
)

func newTestTMDB(t *testing.T, handler http.HandlerFunc) *TMDBClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &config.Config{
		TMDBToken:     "test-token",
		TMDBBaseURL:   srv.URL + "/",
		TMDBLanguage:  "en-US",
		TMDBTimeout:   2 * time.Second,
		TMDBRateLimit: 100,
	}
	return NewTMDBClient(cfg, WithTMDBHTTPClient(srv.Client()))
}

func TestTMDBSearchMultiSendsToken(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/3/search/multi", r.URL.Path)
		assert.Equal(t, "dune", r.URL.Query().Get("query"))
		assert.Equal(t, "false", r.URL.Query().Get("include_adult"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":438631,"media_type":"movie","title":"Dune","release_date":"2021-09-15"}]}`))
	})

	results, err := client.SearchMulti(context.Background(), "dune")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 438631, results[0].ID)
	assert.Equal(t, "movie", results[0].MediaType)
}

func TestTMDBFetchDetailReturnsRawBody(t *testing.T) {
	body := `{"id":1399,"name":"Game of Thrones","seasons":[{"season_number":1,"episode_count":10}]}`
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/tv/1399", r.URL.Path)
		_, _ = w.Write([]byte(body))
	})

	detail, raw, err := client.FetchDetail(context.Background(), 1399, "tv")
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", detail.Name)
	require.Len(t, detail.Seasons, 1)
	assert.Equal(t, 10, detail.Seasons[0].EpisodeCount)
	assert.JSONEq(t, body, string(raw))
}

func TestTMDBErrorMapping(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/movie/404":
			w.WriteHeader(http.StatusNotFound)
		case "/3/movie/500/watch/providers":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	})
	ctx := context.Background()

	_, _, err := client.FetchDetail(ctx, 404, "movie")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = client.FetchWatchProviders(ctx, 500, "movie")
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	_, err = client.SearchMulti(ctx, "garbled")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestTMDBCancelledContext(t *testing.T) {
	client := newTestTMDB(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.SearchMulti(ctx, "anything")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}
