package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/cowatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create 创建片单（不含成员）
func (r *ListRepository) Create(ctx context.Context, list *model.List) error {
	now := time.Now()
	list.CreatedAt = now
	list.UpdatedAt = now
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(list).Error
}

// FindByID 根据 ID 查找片单（含成员）
func (r *ListRepository) FindByID(ctx context.Context, id int) (*model.List, error) {
	var list model.List
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&list, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// ListVisibleTo 返回 subject 创建的或作为成员加入的片单
func (r *ListRepository) ListVisibleTo(ctx context.Context, subject string) ([]*model.List, error) {
	var lists []*model.List
	memberOf := r.db.Model(&model.ListMember{}).Select("list_id").Where("subject = ?", subject)
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("owner_subject = ?", subject).
		Or("id IN (?)", memberOf).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&lists).Error
	return lists, err
}

// Update 更新片单字段并刷新 updated_at
func (r *ListRepository) Update(ctx context.Context, id int, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&model.List{}).Where("id = ?", id).Updates(fields).Error
}

// Touch 片单或其条目变更时刷新 updated_at
func (r *ListRepository) Touch(ctx context.Context, id int) error {
	return r.db.WithContext(ctx).Model(&model.List{}).Where("id = ?", id).
		UpdateColumn("updated_at", time.Now()).Error
}

// Delete 删除片单及成员记录（条目由调用方在同一事务中删除）
func (r *ListRepository) Delete(ctx context.Context, id int) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("list_id = ?", id).Delete(&model.ListMember{}).Error; err != nil {
		return err
	}
	return db.Delete(&model.List{}, id).Error
}

// AddMember 添加成员
func (r *ListRepository) AddMember(ctx context.Context, member *model.ListMember) error {
	member.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(member).Error
}

// RemoveMember 移除成员
func (r *ListRepository) RemoveMember(ctx context.Context, listID int, subject string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("list_id = ? AND subject = ?", listID, subject).
		Delete(&model.ListMember{})
	return result.RowsAffected, result.Error
}

// UpdateMemberRole 修改成员角色
func (r *ListRepository) UpdateMemberRole(ctx context.Context, listID int, subject, role string) error {
	return r.db.WithContext(ctx).Model(&model.ListMember{}).
		Where("list_id = ? AND subject = ?", listID, subject).
		Update("role", role).Error
}

// CountMembers 成员数（不含创建者）
func (r *ListRepository) CountMembers(ctx context.Context, listID int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ListMember{}).Where("list_id = ?", listID).Count(&count).Error
	return count, err
}
