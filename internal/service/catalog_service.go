package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/model"
	"github.com/user/cowatch/internal/repository"
	"github.com/user/cowatch/internal/utils"
	"github.com/user/cowatch/internal/validation"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CatalogService 目录搜索缓存与媒体去重
type CatalogService struct {
	repos    *repository.Repositories
	catalog  Catalog
	region   string
	ttl      time.Duration
	memo     *utils.SearchCache[[]model.MediaSummary]
	mediaIDs *cache.Cache
	sf       singleflight.Group
	timeout  time.Duration
	now      func() time.Time
	bg       sync.WaitGroup
}

// NewCatalogService 创建目录服务
func NewCatalogService(repos *repository.Repositories, catalog Catalog, cfg *config.Config) *CatalogService {
	ttl := cfg.SearchCacheTTL
	if ttl <= 0 {
		ttl = config.SearchCacheTTL
	}
	return &CatalogService{
		repos:    repos,
		catalog:  catalog,
		region:   cfg.TMDBRegion,
		ttl:      ttl,
		memo:     utils.NewSearchCache[[]model.MediaSummary](1000),
		mediaIDs: cache.New(30*time.Minute, time.Hour),
		timeout:  fetchTimeout(cfg.TMDBTimeout),
		now:      time.Now,
	}
}

// Search 搜索目录
// 1. 进程内 LRU
// 2. 数据库缓存（未过期）
// 3. 外部目录（singleflight 合并相同查询），写入缓存并异步清理过期行
func (s *CatalogService) Search(ctx context.Context, query string) ([]model.MediaSummary, error) {
	q, err := validation.SearchQuery(query)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if results, ok := s.memo.GetAt(q, now); ok {
		return results, nil
	}

	cached, err := s.repos.SearchCache.Find(ctx, q, now)
	if err != nil {
		utils.Logger.Warn().Err(err).Str("query", q).Msg("[CatalogService] 读取搜索缓存失败")
	} else if cached != nil {
		s.memo.SetUntil(q, cached.Results, cached.ExpiresAt)
		return cached.Results, nil
	}

	val, err, _ := s.sf.Do("search:"+q, func() (interface{}, error) {
		fctx, cancel := s.sharedContext(ctx)
		defer cancel()
		return s.fetchSearch(fctx, q)
	})
	if err != nil {
		return nil, err
	}
	return val.([]model.MediaSummary), nil
}

func (s *CatalogService) fetchSearch(ctx context.Context, q string) ([]model.MediaSummary, error) {
	raw, err := s.catalog.SearchMulti(ctx, q)
	if err != nil {
		return nil, err
	}
	results := toSummaries(raw)

	now := s.now()
	expiresAt := now.Add(s.ttl)
	if err := s.repos.SearchCache.Upsert(ctx, q, results, now, expiresAt); err != nil {
		utils.Logger.Warn().Err(err).Str("query", q).Msg("[CatalogService] 写入搜索缓存失败")
	}
	s.memo.SetUntil(q, results, expiresAt)
	s.cleanupAsync(now)

	utils.Logger.Debug().Str("query", q).Int("count", len(results)).Msg("[CatalogService] 目录搜索完成")
	return results, nil
}

// cleanupAsync 后台删除过期缓存行，调用方不等待，失败只记录日志
func (s *CatalogService) cleanupAsync(now time.Time) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer func() {
			if r := recover(); r != nil {
				utils.Logger.Error().Interface("panic", r).Msg("[CatalogService] 清理过期缓存发生恐慌")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		affected, err := s.repos.SearchCache.CleanExpired(ctx, now)
		if err != nil {
			utils.Logger.Warn().Err(err).Msg("[CatalogService] 清理过期缓存失败")
			return
		}
		if affected > 0 {
			utils.Logger.Info().Int64("count", affected).Msg("[CatalogService] 已清理过期搜索缓存")
		}
	}()
}

// sharedContext singleflight 内的请求为所有等待者服务，不随首个调用方取消
func (s *CatalogService) sharedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
}

// fetchTimeout 一次合并请求最多包含详情与平台两次调用，另留限流等待余量
func fetchTimeout(perRequest time.Duration) time.Duration {
	if perRequest <= 0 {
		perRequest = 10 * time.Second
	}
	return 3 * perRequest
}

// Wait 等待后台清理任务结束
func (s *CatalogService) Wait() {
	s.bg.Wait()
}

// GetOrCreateMedia 按目录 ID 获取媒体记录 ID，不存在时从外部目录拉取并写入
func (s *CatalogService) GetOrCreateMedia(ctx context.Context, catalogID int, kind string) (int, error) {
	if err := validation.CatalogID(catalogID); err != nil {
		return 0, err
	}
	if _, err := validation.Kind(kind); err != nil {
		return 0, err
	}

	key := strconv.Itoa(catalogID)
	if id, ok := s.mediaIDs.Get(key); ok {
		return id.(int), nil
	}

	existing, err := s.repos.Media.FindByCatalogID(ctx, catalogID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		s.mediaIDs.SetDefault(key, existing.ID)
		return existing.ID, nil
	}

	val, err, _ := s.sf.Do("media:"+key, func() (interface{}, error) {
		fctx, cancel := s.sharedContext(ctx)
		defer cancel()
		return s.createMedia(fctx, catalogID, kind)
	})
	if err != nil {
		return 0, err
	}
	id := val.(int)
	s.mediaIDs.SetDefault(key, id)
	return id, nil
}

func (s *CatalogService) createMedia(ctx context.Context, catalogID int, kind string) (int, error) {
	// singleflight 等待期间可能已被其他请求写入
	if existing, err := s.repos.Media.FindByCatalogID(ctx, catalogID); err != nil {
		return 0, err
	} else if existing != nil {
		return existing.ID, nil
	}

	media, err := s.fetchMedia(ctx, catalogID, kind)
	if err != nil {
		return 0, err
	}

	created, err := s.repos.Media.CreateIfAbsent(ctx, media)
	if err != nil {
		return 0, fmt.Errorf("保存媒体失败: %w", err)
	}
	if created {
		utils.Logger.Info().Int("catalog_id", catalogID).Str("kind", kind).Msg("[CatalogService] 新建媒体记录")
		return media.ID, nil
	}

	existing, err := s.repos.Media.FindByCatalogID(ctx, catalogID)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, apperr.NotFound("媒体不存在")
	}
	return existing.ID, nil
}

// fetchMedia 并发拉取详情与平台信息；平台信息失败不影响创建
func (s *CatalogService) fetchMedia(ctx context.Context, catalogID int, kind string) (*model.Media, error) {
	var (
		detail    *RawDetail
		raw       []byte
		providers []model.WatchProvider
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, body, err := s.catalog.FetchDetail(gctx, catalogID, kind)
		if err != nil {
			return err
		}
		detail, raw = d, body
		return nil
	})
	g.Go(func() error {
		p, err := s.catalog.FetchWatchProviders(gctx, catalogID, kind)
		if err != nil {
			utils.Logger.Warn().Err(err).Int("catalog_id", catalogID).Msg("[CatalogService] 获取播放平台失败，忽略")
			return nil
		}
		providers = regionProviders(p, s.region)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildMedia(catalogID, kind, detail, raw, providers), nil
}

// GetMedia 根据 ID 获取媒体
func (s *CatalogService) GetMedia(ctx context.Context, id int) (*model.Media, error) {
	media, err := s.repos.Media.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if media == nil {
		return nil, apperr.NotFound("媒体不存在")
	}
	return media, nil
}

// buildMedia 规范化详情：季号 > 0、空字符串转为缺省、汇总集数
func buildMedia(catalogID int, kind string, d *RawDetail, raw []byte, providers []model.WatchProvider) *model.Media {
	m := &model.Media{
		CatalogID:      catalogID,
		Kind:           kind,
		Title:          firstNonEmpty(d.Title, d.Name),
		Overview:       nonEmpty(d.Overview),
		Tagline:        nonEmpty(d.Tagline),
		PosterPath:     nonEmpty(d.PosterPath),
		BackdropPath:   nonEmpty(d.BackdropPath),
		WatchProviders: providers,
		RawPayload:     string(raw),
	}

	if kind == model.KindTV {
		m.ReleaseDate = nonEmpty(firstNonEmpty(d.FirstAirDate, d.ReleaseDate))
	} else {
		m.ReleaseDate = nonEmpty(firstNonEmpty(d.ReleaseDate, d.FirstAirDate))
	}

	for _, g := range d.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			m.Genres = append(m.Genres, name)
		}
	}

	if d.VoteAverage > 0 {
		v := d.VoteAverage
		m.VoteAverage = &v
	}

	switch {
	case d.Runtime > 0:
		m.Runtime = intPtr(d.Runtime)
	case len(d.EpisodeRunTime) > 0 && d.EpisodeRunTime[0] > 0:
		m.Runtime = intPtr(d.EpisodeRunTime[0])
	}

	if kind == model.KindTV {
		total := 0
		for _, season := range d.Seasons {
			if season.SeasonNumber <= 0 {
				continue
			}
			m.Seasons = append(m.Seasons, model.Season{
				SeasonNumber: season.SeasonNumber,
				EpisodeCount: season.EpisodeCount,
				AirDate:      nonEmpty(season.AirDate),
				Name:         season.Name,
			})
			total += season.EpisodeCount
		}
		m.SeasonCount = intPtr(len(m.Seasons))
		m.EpisodeCount = intPtr(total)
	}

	return m
}

// toSummaries 仅保留电影与剧集
func toSummaries(raw []RawResult) []model.MediaSummary {
	results := make([]model.MediaSummary, 0, len(raw))
	for _, r := range raw {
		if r.MediaType != model.KindMovie && r.MediaType != model.KindTV {
			continue
		}
		summary := model.MediaSummary{
			CatalogID:  r.ID,
			Kind:       r.MediaType,
			Title:      firstNonEmpty(r.Title, r.Name),
			PosterPath: nonEmpty(r.PosterPath),
			Overview:   nonEmpty(r.Overview),
		}
		if r.MediaType == model.KindTV {
			summary.ReleaseDate = nonEmpty(r.FirstAirDate)
		} else {
			summary.ReleaseDate = nonEmpty(r.ReleaseDate)
		}
		if r.VoteAverage > 0 {
			v := r.VoteAverage
			summary.VoteAverage = &v
		}
		results = append(results, summary)
	}
	return results
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intPtr(v int) *int {
	return &v
}
