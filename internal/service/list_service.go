package service

import (
	"context"
	"errors"
	"strings"

	"github.com/user/cowatch/internal/access"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/model"
	"github.com/user/cowatch/internal/repository"
	"github.com/user/cowatch/internal/utils"
	"github.com/user/cowatch/internal/validation"
	"gorm.io/gorm"
)

// ListService 片单与成员管理
type ListService struct {
	repos *repository.Repositories
}

func NewListService(repos *repository.Repositories) *ListService {
	return &ListService{repos: repos}
}

// ListUpdate 片单可修改字段，nil 表示不修改
type ListUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DefaultSort *string `json:"default_sort"`
}

// ListsVisibleTo 返回调用方创建或加入的片单，按最近更新排序
func (s *ListService) ListsVisibleTo(ctx context.Context, subject string) ([]model.ListView, error) {
	lists, err := s.repos.List.ListVisibleTo(ctx, subject)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(lists))
	for _, l := range lists {
		ids = append(ids, l.ID)
	}
	counts, err := s.repos.ListItem.CountByLists(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]model.ListView, 0, len(lists))
	for _, l := range lists {
		views = append(views, model.ListView{
			List:      l,
			Role:      access.RoleOf(l, subject).String(),
			ItemCount: counts[l.ID],
		})
	}
	return views, nil
}

// GetList 单个片单及调用方角色
func (s *ListService) GetList(ctx context.Context, listID int, subject string) (*model.ListView, error) {
	list, role, err := loadList(ctx, s.repos, listID, subject, false)
	if err != nil {
		return nil, err
	}
	counts, err := s.repos.ListItem.CountByLists(ctx, []int{listID})
	if err != nil {
		return nil, err
	}
	return &model.ListView{List: list, Role: role.String(), ItemCount: counts[listID]}, nil
}

// CreateList 创建片单，调用方成为创建者
func (s *ListService) CreateList(ctx context.Context, subject, name string, description *string, defaultSort string) (*model.List, error) {
	if _, err := validation.Subject(subject); err != nil {
		return nil, err
	}
	n, err := validation.ListName(name)
	if err != nil {
		return nil, err
	}
	var desc *string
	if description != nil {
		if desc, err = validation.Description(*description); err != nil {
			return nil, err
		}
	}
	sortBy, err := validation.Sort(defaultSort)
	if err != nil {
		return nil, err
	}

	list := &model.List{
		Name:         n,
		Description:  desc,
		OwnerSubject: subject,
		DefaultSort:  sortBy,
		Members:      []model.ListMember{},
	}
	if err := s.repos.List.Create(ctx, list); err != nil {
		return nil, err
	}
	utils.Logger.Info().Int("list_id", list.ID).Str("owner", subject).Msg("[ListService] 创建片单")
	return list, nil
}

// UpdateList 修改名称、描述、默认排序（创建者或管理员）
func (s *ListService) UpdateList(ctx context.Context, listID int, subject string, update ListUpdate) (*model.List, error) {
	var updated *model.List
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, _, err := loadList(ctx, tx, listID, subject, true); err != nil {
			return err
		}

		fields := make(map[string]interface{})
		if update.Name != nil {
			n, err := validation.ListName(*update.Name)
			if err != nil {
				return err
			}
			fields["name"] = n
		}
		if update.Description != nil {
			d, err := validation.Description(*update.Description)
			if err != nil {
				return err
			}
			fields["description"] = d
		}
		if update.DefaultSort != nil {
			sortBy, err := validation.Sort(*update.DefaultSort)
			if err != nil {
				return err
			}
			fields["default_sort"] = sortBy
		}
		if len(fields) > 0 {
			if err := tx.List.Update(ctx, listID, fields); err != nil {
				return err
			}
		}

		list, err := tx.List.FindByID(ctx, listID)
		if err != nil {
			return err
		}
		updated = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteList 删除片单及其条目（仅创建者）
func (s *ListService) DeleteList(ctx context.Context, listID int, subject string) error {
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		list, role, err := loadList(ctx, tx, listID, subject, false)
		if err != nil {
			return err
		}
		if role != access.RoleCreator {
			return apperr.Unauthorized("只有创建者可以删除片单")
		}
		if _, err := tx.ListItem.DeleteByList(ctx, list.ID); err != nil {
			return err
		}
		return tx.List.Delete(ctx, list.ID)
	})
	if err != nil {
		return err
	}
	utils.Logger.Info().Int("list_id", listID).Str("subject", subject).Msg("[ListService] 删除片单")
	return nil
}

// AddMember 添加成员，target 可以是用户标识或邮箱
func (s *ListService) AddMember(ctx context.Context, listID int, subject, target, role string) (*model.ListMember, error) {
	var member *model.ListMember
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		list, _, err := loadList(ctx, tx, listID, subject, true)
		if err != nil {
			return err
		}
		r, err := validation.MemberRole(role)
		if err != nil {
			return err
		}
		targetSubject, err := resolveTarget(ctx, tx, target)
		if err != nil {
			return err
		}
		if targetSubject == list.OwnerSubject {
			return apperr.Validation("不能修改创建者的成员身份")
		}
		if list.MemberOf(targetSubject) != nil {
			return apperr.Conflict("该用户已是成员")
		}
		if len(list.Members) >= config.MaxListMembers {
			return apperr.Validation("成员数量不能超过 %d", config.MaxListMembers)
		}

		member = &model.ListMember{ListID: listID, Subject: targetSubject, Role: r}
		if err := tx.List.AddMember(ctx, member); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("该用户已是成员")
			}
			return err
		}
		return tx.List.Touch(ctx, listID)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember 移除成员（创建者或管理员）
func (s *ListService) RemoveMember(ctx context.Context, listID int, subject, target string) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		list, _, err := loadList(ctx, tx, listID, subject, true)
		if err != nil {
			return err
		}
		if target == list.OwnerSubject {
			return apperr.Validation("不能移除创建者")
		}
		return removeMember(ctx, tx, list, target)
	})
}

// UpdateMemberRole 修改成员角色（创建者或管理员）
func (s *ListService) UpdateMemberRole(ctx context.Context, listID int, subject, target, role string) (*model.ListMember, error) {
	var member *model.ListMember
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		list, _, err := loadList(ctx, tx, listID, subject, true)
		if err != nil {
			return err
		}
		r, err := validation.MemberRole(role)
		if err != nil {
			return err
		}
		if target == list.OwnerSubject {
			return apperr.Validation("不能修改创建者的角色")
		}
		existing := list.MemberOf(target)
		if existing == nil {
			return apperr.NotFound("该用户不是成员")
		}
		if err := tx.List.UpdateMemberRole(ctx, listID, target, r); err != nil {
			return err
		}
		existing.Role = r
		member = existing
		return tx.List.Touch(ctx, listID)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// LeaveList 成员退出片单，创建者不能退出
func (s *ListService) LeaveList(ctx context.Context, listID int, subject string) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		list, role, err := loadList(ctx, tx, listID, subject, false)
		if err != nil {
			return err
		}
		if role == access.RoleCreator {
			return apperr.Validation("创建者不能退出片单")
		}
		return removeMember(ctx, tx, list, subject)
	})
}

// ListMembers 成员列表（创建者在首位），尚未登录过的用户不返回
func (s *ListService) ListMembers(ctx context.Context, listID int, subject string) ([]model.MemberView, error) {
	list, _, err := loadList(ctx, s.repos, listID, subject, false)
	if err != nil {
		return nil, err
	}

	subjects := []string{list.OwnerSubject}
	for _, m := range list.Members {
		subjects = append(subjects, m.Subject)
	}
	users, err := s.repos.User.FindBySubjects(ctx, subjects)
	if err != nil {
		return nil, err
	}
	bySubject := make(map[string]*model.User, len(users))
	for _, u := range users {
		bySubject[u.Subject] = u
	}

	views := make([]model.MemberView, 0, len(subjects))
	for i, sub := range subjects {
		u, ok := bySubject[sub]
		if !ok {
			continue
		}
		role := access.RoleCreator.String()
		if i > 0 {
			role = list.Members[i-1].Role
		}
		views = append(views, model.MemberView{
			Subject:     sub,
			Role:        role,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			AvatarURL:   u.AvatarURL,
		})
	}
	return views, nil
}

func removeMember(ctx context.Context, tx *repository.Repositories, list *model.List, target string) error {
	affected, err := tx.List.RemoveMember(ctx, list.ID, target)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFound("该用户不是成员")
	}
	return tx.List.Touch(ctx, list.ID)
}

// resolveTarget 邮箱经用户目录解析为用户标识
func resolveTarget(ctx context.Context, repos *repository.Repositories, target string) (string, error) {
	if !strings.Contains(target, "@") {
		return validation.Subject(target)
	}
	email, err := validation.Email(target)
	if err != nil {
		return "", err
	}
	user, err := repos.User.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", apperr.NotFound("没有使用该邮箱的用户")
	}
	return user.Subject, nil
}
