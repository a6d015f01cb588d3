package model

import (
	"time"
)

// 媒体类型
const (
	KindMovie = "movie"
	KindTV    = "tv"
)

// Media 目录媒体记录，每个 CatalogID 唯一
type Media struct {
	ID             int             `json:"id" db:"id"`
	CatalogID      int             `json:"catalog_id" db:"catalog_id" gorm:"uniqueIndex;not null"`
	Kind           string          `json:"kind" db:"kind" gorm:"size:8;not null"`
	Title          string          `json:"title" db:"title" gorm:"not null"`
	Overview       *string         `json:"overview,omitempty" db:"overview"`
	Tagline        *string         `json:"tagline,omitempty" db:"tagline"`
	PosterPath     *string         `json:"poster_path,omitempty" db:"poster_path"`
	BackdropPath   *string         `json:"backdrop_path,omitempty" db:"backdrop_path"`
	ReleaseDate    *string         `json:"release_date,omitempty" db:"release_date"`
	Genres         []string        `json:"genres,omitempty" db:"genres" gorm:"serializer:json;type:text"`
	VoteAverage    *float64        `json:"vote_average,omitempty" db:"vote_average"`
	Runtime        *int            `json:"runtime,omitempty" db:"runtime"`
	SeasonCount    *int            `json:"season_count,omitempty" db:"season_count"`
	EpisodeCount   *int            `json:"episode_count,omitempty" db:"episode_count"`
	Seasons        []Season        `json:"seasons,omitempty" db:"seasons" gorm:"serializer:json;type:text"`
	WatchProviders []WatchProvider `json:"watch_providers,omitempty" db:"watch_providers" gorm:"serializer:json;type:text"`
	RawPayload     string          `json:"-" db:"raw_payload" gorm:"type:text"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Season 季信息（仅保留季号 > 0）
type Season struct {
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      *string `json:"air_date,omitempty"`
	Name         string  `json:"name,omitempty"`
}

// WatchProvider 流媒体平台（仅订阅制）
type WatchProvider struct {
	ProviderID      int     `json:"provider_id"`
	ProviderName    string  `json:"provider_name"`
	LogoPath        *string `json:"logo_path,omitempty"`
	DisplayPriority int     `json:"display_priority"`
}

// SeasonNumbers 返回已知季号
func (m *Media) SeasonNumbers() []int {
	nums := make([]int, 0, len(m.Seasons))
	for _, s := range m.Seasons {
		nums = append(nums, s.SeasonNumber)
	}
	return nums
}

// HasSeason 季号是否存在于媒体记录
func (m *Media) HasSeason(n int) bool {
	for _, s := range m.Seasons {
		if s.SeasonNumber == n {
			return true
		}
	}
	return false
}

// MediaSummary 搜索结果条目
type MediaSummary struct {
	CatalogID   int      `json:"catalog_id"`
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	PosterPath  *string  `json:"poster_path,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Overview    *string  `json:"overview,omitempty"`
	VoteAverage *float64 `json:"vote_average,omitempty"`
}
