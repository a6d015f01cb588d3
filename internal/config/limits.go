package config

import "time"

// 业务限制常量，供校验层统一引用
const (
	MaxListMembers           = 50
	MaxTags                  = 20
	MaxTagLength             = 50
	MaxNotesLength           = 2000
	MaxListNameLength        = 100
	MaxListDescriptionLength = 500
	MaxDisplayNameLength     = 100
	MaxEmailLength           = 254
	MaxSubjectLength         = 255
	MaxQueryLength           = 200

	MinRating = 1
	MaxRating = 10

	// 允许客户端时钟偏差导致的"未来"日期
	FutureDateSkew = 24 * time.Hour

	UserSearchLimit = 10

	// SearchCacheTTL 搜索缓存有效期
	SearchCacheTTL = 6 * time.Hour
)

// MinDateMillis 日期下限：1900-01-01
const MinDateMillis int64 = -2208988800000
