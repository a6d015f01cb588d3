package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/cowatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SearchCacheRepository struct {
	db *gorm.DB
}

func NewSearchCacheRepository(db *gorm.DB) *SearchCacheRepository {
	return &SearchCacheRepository{db: db}
}

// Find 查找缓存（未过期），now 由调用方提供
func (r *SearchCacheRepository) Find(ctx context.Context, query string, now time.Time) (*model.SearchCache, error) {
	var cache model.SearchCache
	err := r.db.WithContext(ctx).
		Where("query = ? AND expires_at > ?", query, now).
		First(&cache).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cache, nil
}

// Upsert 创建或更新缓存（按 query 唯一）
func (r *SearchCacheRepository) Upsert(ctx context.Context, query string, results []model.MediaSummary, now, expiresAt time.Time) error {
	cache := &model.SearchCache{
		Query:     query,
		Results:   results,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "query"}},
		DoUpdates: clause.AssignmentColumns([]string{"results", "created_at", "expires_at"}),
	}).Create(cache).Error
}

// CleanExpired 清理过期缓存
func (r *SearchCacheRepository) CleanExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.SearchCache{})
	return result.RowsAffected, result.Error
}

// Count 缓存条数
func (r *SearchCacheRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SearchCache{}).Count(&count).Error
	return count, err
}
