package service

import (
	"context"

	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/model"
	"github.com/user/cowatch/internal/repository"
	"github.com/user/cowatch/internal/utils"
	"github.com/user/cowatch/internal/validation"
)

// UserDirectory 身份提供方用户的本地目录
type UserDirectory struct {
	repos *repository.Repositories
}

func NewUserDirectory(repos *repository.Repositories) *UserDirectory {
	return &UserDirectory{repos: repos}
}

// SyncUser 按 subject 幂等写入用户，返回本地用户 ID
func (d *UserDirectory) SyncUser(ctx context.Context, subject, email string, name, avatarURL *string) (int, error) {
	sub, err := validation.Subject(subject)
	if err != nil {
		return 0, err
	}
	mail, err := validation.Email(email)
	if err != nil {
		return 0, err
	}
	displayName, err := validation.DisplayName(name)
	if err != nil {
		return 0, err
	}
	avatar, err := validation.AvatarURL(avatarURL)
	if err != nil {
		return 0, err
	}

	user := &model.User{Subject: sub, Email: mail, DisplayName: displayName, AvatarURL: avatar}
	if err := d.repos.User.Upsert(ctx, user); err != nil {
		return 0, err
	}

	// ON CONFLICT 更新时部分驱动不回填主键
	stored, err := d.repos.User.FindBySubject(ctx, sub)
	if err != nil {
		return 0, err
	}
	if stored == nil {
		return 0, apperr.NotFound("用户不存在")
	}
	utils.Logger.Debug().Str("subject", sub).Int("user_id", stored.ID).Msg("[UserDirectory] 同步用户")
	return stored.ID, nil
}

// DeleteUser 删除目录记录，片单与成员关系保留
func (d *UserDirectory) DeleteUser(ctx context.Context, subject string) error {
	sub, err := validation.Subject(subject)
	if err != nil {
		return err
	}
	affected, err := d.repos.User.DeleteBySubject(ctx, sub)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("用户不存在")
	}
	utils.Logger.Info().Str("subject", sub).Msg("[UserDirectory] 删除用户")
	return nil
}

func (d *UserDirectory) FindBySubject(ctx context.Context, subject string) (*model.User, error) {
	user, err := d.repos.User.FindBySubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("用户不存在")
	}
	return user, nil
}

// SearchByEmail 邮箱前缀搜索，排除调用方本人
func (d *UserDirectory) SearchByEmail(ctx context.Context, prefix, caller string) ([]*model.User, error) {
	p, err := validation.EmailPrefix(prefix)
	if err != nil {
		return nil, err
	}
	return d.repos.User.SearchByEmailPrefix(ctx, p, caller, config.UserSearchLimit)
}
