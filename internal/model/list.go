package model

import (
	"time"
)

// 成员角色（创建者不作为成员存储）
const (
	MemberRoleAdmin  = "admin"
	MemberRoleViewer = "viewer"
)

// 列表默认排序
const (
	SortAddedDesc    = "added_desc"
	SortAddedAsc     = "added_asc"
	SortTitleAsc     = "title_asc"
	SortTitleDesc    = "title_desc"
	SortReleaseDesc  = "release_desc"
	SortReleaseAsc   = "release_asc"
	SortRatingDesc   = "rating_desc"
	SortPriorityDesc = "priority_desc"
)

// SortOptions 合法排序值
var SortOptions = []string{
	SortAddedDesc, SortAddedAsc, SortTitleAsc, SortTitleDesc,
	SortReleaseDesc, SortReleaseAsc, SortRatingDesc, SortPriorityDesc,
}

// List 共享片单
type List struct {
	ID           int          `json:"id" db:"id"`
	Name         string       `json:"name" db:"name" gorm:"size:100;not null"`
	Description  *string      `json:"description,omitempty" db:"description"`
	OwnerSubject string       `json:"owner_subject" db:"owner_subject" gorm:"index;size:255;not null"`
	DefaultSort  string       `json:"default_sort" db:"default_sort" gorm:"size:32;not null"`
	Members      []ListMember `json:"members" gorm:"foreignKey:ListID"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at" gorm:"index"`
}

// ListMember 片单成员
type ListMember struct {
	ID        int       `json:"-" db:"id"`
	ListID    int       `json:"-" db:"list_id" gorm:"uniqueIndex:idx_list_member;not null"`
	Subject   string    `json:"subject" db:"subject" gorm:"uniqueIndex:idx_list_member;index;size:255;not null"`
	Role      string    `json:"role" db:"role" gorm:"size:16;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MemberOf 返回成员记录（不存在返回 nil）
func (l *List) MemberOf(subject string) *ListMember {
	for i := range l.Members {
		if l.Members[i].Subject == subject {
			return &l.Members[i]
		}
	}
	return nil
}
