package model

import (
	"time"
)

// WatchStatus 观看状态
type WatchStatus string

const (
	StatusToWatch  WatchStatus = "to_watch"
	StatusWatching WatchStatus = "watching"
	StatusWatched  WatchStatus = "watched"
	StatusDropped  WatchStatus = "dropped"
)

// Valid 是否为合法状态
func (s WatchStatus) Valid() bool {
	switch s {
	case StatusToWatch, StatusWatching, StatusWatched, StatusDropped:
		return true
	}
	return false
}

// 优先级
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ListItem 片单条目
// 对剧集而言 Status 由 SeasonProgress 推导，仅允许直接设置为 dropped
type ListItem struct {
	ID             int              `json:"id" db:"id"`
	ListID         int              `json:"list_id" db:"list_id" gorm:"uniqueIndex:idx_list_media;index;not null"`
	MediaID        int              `json:"media_id" db:"media_id" gorm:"uniqueIndex:idx_list_media;not null"`
	Media          *Media           `json:"media,omitempty" gorm:"foreignKey:MediaID"`
	Status         WatchStatus      `json:"status" db:"status" gorm:"size:16;not null"`
	Rating         *int             `json:"rating,omitempty" db:"rating"`
	Notes          *string          `json:"notes,omitempty" db:"notes"`
	Priority       *string          `json:"priority,omitempty" db:"priority"`
	Tags           []string         `json:"tags,omitempty" db:"tags" gorm:"serializer:json;type:text"`
	StartedAt      *int64           `json:"started_at,omitempty" db:"started_at"`
	FinishedAt     *int64           `json:"finished_at,omitempty" db:"finished_at"`
	SeasonProgress []SeasonProgress `json:"season_progress,omitempty" db:"season_progress" gorm:"serializer:json;type:text"`
	AddedBy        string           `json:"added_by" db:"added_by" gorm:"size:255"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// SeasonProgress 单季进度，缺省即 to_watch
type SeasonProgress struct {
	SeasonNumber int         `json:"season_number"`
	Status       WatchStatus `json:"status"`
	Rating       *int        `json:"rating,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	StartedAt    *int64      `json:"started_at,omitempty"`
	FinishedAt   *int64      `json:"finished_at,omitempty"`
}

// Season 返回指定季的进度（不存在返回 nil）
func (i *ListItem) Season(n int) *SeasonProgress {
	for k := range i.SeasonProgress {
		if i.SeasonProgress[k].SeasonNumber == n {
			return &i.SeasonProgress[k]
		}
	}
	return nil
}

// ListView 片单及调用方角色
type ListView struct {
	List      *List  `json:"list"`
	Role      string `json:"role"`
	ItemCount int64  `json:"item_count"`
}

// MemberView 成员及其用户目录信息
type MemberView struct {
	Subject     string  `json:"subject"`
	Role        string  `json:"role"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// ListExport 导出投影（CSV 格式化在外部完成）
type ListExport struct {
	ListName string       `json:"list_name"`
	Items    []ExportItem `json:"items"`
}

// ExportItem 导出行
type ExportItem struct {
	Title          string      `json:"title"`
	Kind           string      `json:"kind"`
	Status         WatchStatus `json:"status"`
	Rating         *int        `json:"rating,omitempty"`
	Priority       *string     `json:"priority,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	Notes          *string     `json:"notes,omitempty"`
	StartedAt      *int64      `json:"started_at,omitempty"`
	FinishedAt     *int64      `json:"finished_at,omitempty"`
	ReleaseDate    *string     `json:"release_date,omitempty"`
	Genres         []string    `json:"genres,omitempty"`
	SeasonsWatched int         `json:"seasons_watched"`
	SeasonCount    int         `json:"season_count"`
}
