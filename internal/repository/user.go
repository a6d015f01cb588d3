package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/user/cowatch/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert 按 subject 创建或更新用户
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "display_name", "avatar_url", "updated_at"}),
	}).Create(user).Error
}

// FindBySubject 根据身份标识查找用户
func (r *UserRepository) FindBySubject(ctx context.Context, subject string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("subject = ?", subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByEmail 根据邮箱查找用户（大小写不敏感）
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindBySubjects 批量查找，缺失的 subject 不返回
func (r *UserRepository) FindBySubjects(ctx context.Context, subjects []string) ([]*model.User, error) {
	var users []*model.User
	if len(subjects) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("subject IN ?", subjects).Find(&users).Error
	return users, err
}

// SearchByEmailPrefix 邮箱前缀搜索（大小写不敏感）
func (r *UserRepository) SearchByEmailPrefix(ctx context.Context, prefix, excludeSubject string, limit int) ([]*model.User, error) {
	var users []*model.User
	q := r.db.WithContext(ctx).
		Where("LOWER(email) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	if excludeSubject != "" {
		q = q.Where("subject <> ?", excludeSubject)
	}
	err := q.Order("email ASC").Limit(limit).Find(&users).Error
	return users, err
}

// DeleteBySubject 删除用户目录记录
func (r *UserRepository) DeleteBySubject(ctx context.Context, subject string) (int64, error) {
	result := r.db.WithContext(ctx).Where("subject = ?", subject).Delete(&model.User{})
	return result.RowsAffected, result.Error
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
