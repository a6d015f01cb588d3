package model

import (
	"time"
)

// SearchCache 目录搜索缓存，按规范化查询唯一
type SearchCache struct {
	ID        int            `json:"id" db:"id"`
	Query     string         `json:"query" db:"query" gorm:"uniqueIndex;size:200;not null"`
	Results   []MediaSummary `json:"results" db:"results" gorm:"serializer:json;type:text"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	ExpiresAt time.Time      `json:"expires_at" db:"expires_at" gorm:"index"`
}
