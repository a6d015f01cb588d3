package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/utils"
	"golang.org/x/time/rate"
)

// Catalog 外部媒体目录
type Catalog interface {
	SearchMulti(ctx context.Context, query string) ([]RawResult, error)
	FetchDetail(ctx context.Context, catalogID int, kind string) (*RawDetail, []byte, error)
	FetchWatchProviders(ctx context.Context, catalogID int, kind string) (*RawProviders, error)
}

// RawResult search/multi 返回的单条结果
type RawResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type tmdbSearchResponse struct {
	Page    int         `json:"page"`
	Results []RawResult `json:"results"`
}

// RawDetail 电影/剧集详情
type RawDetail struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	FirstAirDate     string  `json:"first_air_date"` // 电视剧
	VoteAverage      float64 `json:"vote_average"`
	Runtime          int     `json:"runtime"`
	EpisodeRunTime   []int   `json:"episode_run_time"` // 电视剧
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	Genres           []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Seasons []struct {
		SeasonNumber int    `json:"season_number"`
		EpisodeCount int    `json:"episode_count"`
		AirDate      string `json:"air_date"`
		Name         string `json:"name"`
	} `json:"seasons"`
}

// RawProvider 平台条目
type RawProvider struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

// RawRegionProviders 某地区的平台列表
type RawRegionProviders struct {
	Link     string        `json:"link"`
	Flatrate []RawProvider `json:"flatrate"`
	Rent     []RawProvider `json:"rent"`
	Buy      []RawProvider `json:"buy"`
}

// RawProviders watch/providers 响应
type RawProviders struct {
	ID      int                           `json:"id"`
	Results map[string]RawRegionProviders `json:"results"`
}

// TMDBClient TMDB API 客户端
type TMDBClient struct {
	baseURL  string
	language string
	http     *utils.HTTPClient
	limiter  *rate.Limiter
}

// TMDBOption 客户端配置项
type TMDBOption func(*TMDBClient)

// WithTMDBBaseURL 自定义 API 地址（测试用）
func WithTMDBBaseURL(u string) TMDBOption {
	return func(c *TMDBClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTMDBHTTPClient 替换 http.Client
func WithTMDBHTTPClient(hc *http.Client) TMDBOption {
	return func(c *TMDBClient) {
		c.http.WithTransport(hc)
	}
}

// WithTMDBRateLimit 每秒请求数上限
func WithTMDBRateLimit(rps float64) TMDBOption {
	return func(c *TMDBClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

func NewTMDBClient(cfg *config.Config, opts ...TMDBOption) *TMDBClient {
	c := &TMDBClient{
		baseURL:  strings.TrimRight(cfg.TMDBBaseURL, "/"),
		language: cfg.TMDBLanguage,
		http: utils.NewHTTPClient(cfg.TMDBTimeout, map[string]string{
			"Authorization": "Bearer " + cfg.TMDBToken,
		}),
		limiter: rate.NewLimiter(rate.Limit(cfg.TMDBRateLimit), max(1, int(cfg.TMDBRateLimit))),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchMulti 综合搜索（电影/剧集/人物）
func (c *TMDBClient) SearchMulti(ctx context.Context, query string) ([]RawResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("language", c.language)
	params.Set("page", "1")

	var result tmdbSearchResponse
	if err := c.get(ctx, "/3/search/multi", params, &result, nil); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// FetchDetail 获取详情，同时返回原始响应体
func (c *TMDBClient) FetchDetail(ctx context.Context, catalogID int, kind string) (*RawDetail, []byte, error) {
	params := url.Values{}
	params.Set("language", c.language)

	var detail RawDetail
	var raw []byte
	if err := c.get(ctx, fmt.Sprintf("/3/%s/%d", kind, catalogID), params, &detail, &raw); err != nil {
		return nil, nil, err
	}
	return &detail, raw, nil
}

// FetchWatchProviders 获取各地区可观看平台
func (c *TMDBClient) FetchWatchProviders(ctx context.Context, catalogID int, kind string) (*RawProviders, error) {
	var providers RawProviders
	if err := c.get(ctx, fmt.Sprintf("/3/%s/%d/watch/providers", kind, catalogID), nil, &providers, nil); err != nil {
		return nil, err
	}
	return &providers, nil
}

func (c *TMDBClient) get(ctx context.Context, path string, params url.Values, target interface{}, raw *[]byte) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperr.Upstream(err, "TMDB 请求被限流")
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.http.GetJSON(ctx, u, target)
	if err != nil {
		var se *utils.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return apperr.NotFound("目录中不存在该条目")
		}
		utils.Logger.Warn().Err(err).Str("path", path).Msg("[TMDB] 请求失败")
		return apperr.Upstream(err, "媒体目录暂时不可用")
	}
	if raw != nil {
		*raw = body
	}
	return nil
}
