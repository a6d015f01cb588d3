package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/cowatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListItemRepository struct {
	db *gorm.DB
}

func NewListItemRepository(db *gorm.DB) *ListItemRepository {
	return &ListItemRepository{db: db}
}

// Create 新增条目，(list_id, media_id) 冲突时返回 gorm.ErrDuplicatedKey
func (r *ListItemRepository) Create(ctx context.Context, item *model.ListItem) error {
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error
}

// FindByID 根据 ID 查找条目（含媒体）
func (r *ListItemRepository) FindByID(ctx context.Context, id int) (*model.ListItem, error) {
	var item model.ListItem
	err := r.db.WithContext(ctx).Preload("Media").First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Exists 同一片单是否已有该媒体
func (r *ListItemRepository) Exists(ctx context.Context, listID, mediaID int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ListItem{}).
		Where("list_id = ? AND media_id = ?", listID, mediaID).
		Count(&count).Error
	return count > 0, err
}

// ListByList 片单下所有条目（含媒体）
func (r *ListItemRepository) ListByList(ctx context.Context, listID int) ([]*model.ListItem, error) {
	var items []*model.ListItem
	err := r.db.WithContext(ctx).Preload("Media").
		Where("list_id = ?", listID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	return items, err
}

// CountByLists 批量统计条目数
func (r *ListItemRepository) CountByLists(ctx context.Context, listIDs []int) (map[int]int64, error) {
	counts := make(map[int]int64, len(listIDs))
	if len(listIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ListID int
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.ListItem{}).
		Select("list_id, COUNT(*) AS count").
		Where("list_id IN ?", listIDs).
		Group("list_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ListID] = row.Count
	}
	return counts, nil
}

// Update 写回条目的指定列（nil 值同样写入）并刷新 updated_at
func (r *ListItemRepository) Update(ctx context.Context, item *model.ListItem, columns ...string) error {
	item.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")
	return r.db.WithContext(ctx).Model(item).Select(columns).Updates(item).Error
}

// Delete 删除条目（不影响媒体记录）
func (r *ListItemRepository) Delete(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Delete(&model.ListItem{}, id).Error
}

// DeleteByList 删除片单下所有条目
func (r *ListItemRepository) DeleteByList(ctx context.Context, listID int) (int64, error) {
	result := r.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&model.ListItem{})
	return result.RowsAffected, result.Error
}
