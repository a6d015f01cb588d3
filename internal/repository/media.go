package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/cowatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// FindByCatalogID 根据目录 ID 查找媒体
func (r *MediaRepository) FindByCatalogID(ctx context.Context, catalogID int) (*model.Media, error) {
	var media model.Media
	err := r.db.WithContext(ctx).Where("catalog_id = ?", catalogID).First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// FindByID 根据 ID 查找媒体
func (r *MediaRepository) FindByID(ctx context.Context, id int) (*model.Media, error) {
	var media model.Media
	err := r.db.WithContext(ctx).First(&media, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// CreateIfAbsent 插入媒体，catalog_id 已存在时不做修改
// 返回 true 表示本次写入了新记录
func (r *MediaRepository) CreateIfAbsent(ctx context.Context, media *model.Media) (bool, error) {
	media.CreatedAt = time.Now()
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "catalog_id"}}, DoNothing: true}).
		Create(media)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
