package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/repository"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	db, err := repository.InitDB("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewRepositories(db)
}

func testConfig() *config.Config {
	return &config.Config{
		TMDBRegion:     "US",
		SearchCacheTTL: config.SearchCacheTTL,
	}
}

// fakeCatalog 记录调用次数的外部目录
type fakeCatalog struct {
	mu sync.Mutex

	results     []RawResult
	details     map[int]*RawDetail
	providers   map[int]*RawProviders
	searchErr   error
	providerErr error

	// searchStarted 非空时 SearchMulti 进入后发出信号，并阻塞到 releaseSearch 关闭
	searchStarted chan struct{}
	releaseSearch chan struct{}

	searchCalls   int
	detailCalls   int
	providerCalls int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		details:   make(map[int]*RawDetail),
		providers: make(map[int]*RawProviders),
	}
}

func (f *fakeCatalog) SearchMulti(ctx context.Context, _ string) ([]RawResult, error) {
	f.mu.Lock()
	f.searchCalls++
	started, release := f.searchStarted, f.releaseSearch
	results, searchErr := f.results, f.searchErr
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, apperr.Upstream(err, "媒体目录暂时不可用")
		}
	}
	if searchErr != nil {
		return nil, searchErr
	}
	return results, nil
}

func (f *fakeCatalog) FetchDetail(_ context.Context, catalogID int, _ string) (*RawDetail, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	d, ok := f.details[catalogID]
	if !ok {
		return nil, nil, apperr.NotFound("目录中不存在该条目")
	}
	return d, []byte(`{"id":1}`), nil
}

func (f *fakeCatalog) FetchWatchProviders(_ context.Context, catalogID int, _ string) (*RawProviders, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providerCalls++
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	return f.providers[catalogID], nil
}

func (f *fakeCatalog) calls() (search, detail, provider int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls, f.detailCalls, f.providerCalls
}

func movieDetail(id int, title string) *RawDetail {
	return &RawDetail{ID: id, Title: title, ReleaseDate: "2010-07-16", Runtime: 148, VoteAverage: 8.4}
}

func tvDetail(id int, name string, seasons ...int) *RawDetail {
	d := &RawDetail{ID: id, Name: name, FirstAirDate: "2011-04-17"}
	for _, n := range seasons {
		d.Seasons = append(d.Seasons, struct {
			SeasonNumber int    `json:"season_number"`
			EpisodeCount int    `json:"episode_count"`
			AirDate      string `json:"air_date"`
			Name         string `json:"name"`
		}{SeasonNumber: n, EpisodeCount: 10})
	}
	return d
}

func newTestCatalogService(repos *repository.Repositories, catalog Catalog) *CatalogService {
	svc := NewCatalogService(repos, catalog, testConfig())
	svc.now = func() time.Time { return testNow }
	return svc
}

func strPtr(v string) *string { return &v }
