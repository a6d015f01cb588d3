package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// SearchCache 搜索结果缓存封装（进程内 LRU，数据库缓存之前的一层）
// 过期时间由写入方给出，与数据库缓存行保持一致
type SearchCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
}

// NewSearchCache 初始化，size 是最大缓存条数（如 1000）
func NewSearchCache[T any](size int) *SearchCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &SearchCache[T]{storage: c}
}

// SetUntil 写入并指定过期时间
func (c *SearchCache[T]) SetUntil(key string, value T, expiredAt time.Time) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: expiredAt,
	})
}

// GetAt 以指定时间做过期检查，仅当 now 早于过期时间时命中
func (c *SearchCache[T]) GetAt(key string, now time.Time) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if !now.Before(item.ExpiredAt) {
		c.storage.Remove(key) // 过期删除
		return zero, false
	}

	return item.Value, true
}
