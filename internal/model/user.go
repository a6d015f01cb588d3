package model

import (
	"time"
)

// User 用户目录记录（由身份提供方同步）
type User struct {
	ID          int       `json:"id" db:"id"`
	Subject     string    `json:"subject" db:"subject" gorm:"uniqueIndex;size:255;not null"`
	Email       string    `json:"email" db:"email" gorm:"index;size:254;not null"`
	DisplayName *string   `json:"display_name,omitempty" db:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Identity 已认证调用方（从 Bearer Token 解析）
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}
