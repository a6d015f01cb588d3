package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/model"
)

func TestSearchCachesForSixHours(t *testing.T) {
	repos := newTestRepos(t)
	catalog := newFakeCatalog()
	catalog.results = []RawResult{
		{ID: 27205, MediaType: "movie", Title: "Inception", ReleaseDate: "2010-07-16", VoteAverage: 8.4},
		{ID: 1399, MediaType: "tv", Name: "Game of Thrones", FirstAirDate: "2011-04-17"},
		{ID: 525, MediaType: "person", Name: "Christopher Nolan"},
	}
	svc := newTestCatalogService(repos, catalog)
	ctx := context.Background()

	results, err := svc.Search(ctx, "  Inception ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Inception", results[0].Title)
	assert.Equal(t, model.KindTV, results[1].Kind)
	assert.Equal(t, "Game of Thrones", results[1].Title)
	require.NotNil(t, results[1].ReleaseDate)
	assert.Equal(t, "2011-04-17", *results[1].ReleaseDate)

	svc.now = func() time.Time { return testNow.Add(5 * time.Hour) }
	_, err = svc.Search(ctx, "inception")
	require.NoError(t, err)
	search, _, _ := catalog.calls()
	assert.Equal(t, 1, search)

	// 新实例没有进程内缓存，命中数据库缓存
	fresh := newTestCatalogService(repos, catalog)
	fresh.now = func() time.Time { return testNow.Add(5*time.Hour + 59*time.Minute) }
	_, err = fresh.Search(ctx, "INCEPTION")
	require.NoError(t, err)
	search, _, _ = catalog.calls()
	assert.Equal(t, 1, search)

	svc.now = func() time.Time { return testNow.Add(6*time.Hour + time.Second) }
	_, err = svc.Search(ctx, "inception")
	require.NoError(t, err)
	search, _, _ = catalog.calls()
	assert.Equal(t, 2, search)

	svc.Wait()
	fresh.Wait()
}

func TestSearchCleansExpiredRowsInBackground(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	require.NoError(t, repos.SearchCache.Upsert(ctx, "old", nil, testNow.Add(-7*time.Hour), testNow.Add(-time.Hour)))

	svc := newTestCatalogService(repos, newFakeCatalog())
	_, err := svc.Search(ctx, "new")
	require.NoError(t, err)
	svc.Wait()

	count, err := repos.SearchCache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSearchSurvivesFirstCallerCancel(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.results = []RawResult{{ID: 27205, MediaType: "movie", Title: "Inception"}}
	catalog.searchStarted = make(chan struct{}, 1)
	catalog.releaseSearch = make(chan struct{})
	svc := newTestCatalogService(newTestRepos(t), catalog)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Search(firstCtx, "inception")
		firstDone <- err
	}()
	<-catalog.searchStarted

	type outcome struct {
		results []model.MediaSummary
		err     error
	}
	secondDone := make(chan outcome, 1)
	go func() {
		results, err := svc.Search(context.Background(), "inception")
		secondDone <- outcome{results, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	close(catalog.releaseSearch)

	second := <-secondDone
	require.NoError(t, second.err)
	require.Len(t, second.results, 1)
	assert.NoError(t, <-firstDone)

	search, _, _ := catalog.calls()
	assert.Equal(t, 1, search)
	svc.Wait()
}

func TestSearchUpstreamFailure(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.searchErr = apperr.Upstream(errors.New("dial tcp: timeout"), "媒体目录暂时不可用")
	svc := newTestCatalogService(newTestRepos(t), catalog)

	_, err := svc.Search(context.Background(), "anything")
	assert.ErrorIs(t, err, apperr.ErrUpstream)

	_, err = svc.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetOrCreateMediaIsIdempotent(t *testing.T) {
	repos := newTestRepos(t)
	catalog := newFakeCatalog()
	catalog.details[27205] = movieDetail(27205, "Inception")
	svc := newTestCatalogService(repos, catalog)
	ctx := context.Background()

	id1, err := svc.GetOrCreateMedia(ctx, 27205, model.KindMovie)
	require.NoError(t, err)
	id2, err := svc.GetOrCreateMedia(ctx, 27205, model.KindMovie)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	// 新实例从数据库命中，不再请求外部目录
	id3, err := newTestCatalogService(repos, catalog).GetOrCreateMedia(ctx, 27205, model.KindTV)
	require.NoError(t, err)
	assert.Equal(t, id1, id3)

	_, detail, _ := catalog.calls()
	assert.Equal(t, 1, detail)
}

func TestGetOrCreateMediaNormalizesDetail(t *testing.T) {
	repos := newTestRepos(t)
	catalog := newFakeCatalog()
	d := tvDetail(1399, "Game of Thrones", 0, 1, 2)
	d.Overview = "   "
	d.Tagline = ""
	d.EpisodeRunTime = []int{60}
	d.Genres = append(d.Genres, struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}{ID: 18, Name: "Drama"})
	catalog.details[1399] = d
	catalog.providers[1399] = &RawProviders{Results: map[string]RawRegionProviders{
		"US": {Flatrate: []RawProvider{
			{ProviderID: 1899, ProviderName: "Max", DisplayPriority: 1},
			{ProviderID: 384, ProviderName: "HBO Max", DisplayPriority: 2},
		}},
	}}
	svc := newTestCatalogService(repos, catalog)

	id, err := svc.GetOrCreateMedia(context.Background(), 1399, model.KindTV)
	require.NoError(t, err)
	media, err := svc.GetMedia(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, "Game of Thrones", media.Title)
	assert.Nil(t, media.Overview)
	assert.Nil(t, media.Tagline)
	assert.Equal(t, []int{1, 2}, media.SeasonNumbers())
	require.NotNil(t, media.EpisodeCount)
	assert.Equal(t, 20, *media.EpisodeCount)
	assert.Equal(t, 2, *media.SeasonCount)
	assert.Equal(t, 60, *media.Runtime)
	assert.Equal(t, []string{"Drama"}, media.Genres)
	assert.Equal(t, "2011-04-17", *media.ReleaseDate)
	require.Len(t, media.WatchProviders, 1)
	assert.Equal(t, "Max", media.WatchProviders[0].ProviderName)
}

func TestGetOrCreateMediaProviderFailureIsNotFatal(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.details[27205] = movieDetail(27205, "Inception")
	catalog.providerErr = apperr.Upstream(errors.New("502"), "媒体目录暂时不可用")
	svc := newTestCatalogService(newTestRepos(t), catalog)

	id, err := svc.GetOrCreateMedia(context.Background(), 27205, model.KindMovie)
	require.NoError(t, err)
	media, err := svc.GetMedia(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, media.WatchProviders)
}

func TestGetOrCreateMediaDetailFailureIsFatal(t *testing.T) {
	repos := newTestRepos(t)
	svc := newTestCatalogService(repos, newFakeCatalog())

	_, err := svc.GetOrCreateMedia(context.Background(), 42, model.KindMovie)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.GetOrCreateMedia(context.Background(), 0, model.KindMovie)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.GetOrCreateMedia(context.Background(), 1, "person")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	media, err := repos.Media.FindByCatalogID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, media)
}
