// Package access 计算调用方在片单上的角色，供所有片单/条目操作做权限判断。
package access

import "github.com/user/cowatch/internal/model"

// Role 片单角色，RoleNone 表示无访问权限
type Role int

const (
	RoleNone Role = iota
	RoleViewer
	RoleAdmin
	RoleCreator
)

func (r Role) String() string {
	switch r {
	case RoleCreator:
		return "creator"
	case RoleAdmin:
		return model.MemberRoleAdmin
	case RoleViewer:
		return model.MemberRoleViewer
	default:
		return "none"
	}
}

// RoleOf 计算 subject 在片单上的角色
func RoleOf(list *model.List, subject string) Role {
	if list == nil || subject == "" {
		return RoleNone
	}
	if list.OwnerSubject == subject {
		return RoleCreator
	}
	if m := list.MemberOf(subject); m != nil {
		if r, ok := ParseMemberRole(m.Role); ok {
			return r
		}
	}
	return RoleNone
}

// CanView 是否可查看
func CanView(r Role) bool {
	return r != RoleNone
}

// CanEdit 是否可编辑（创建者或管理员）
func CanEdit(r Role) bool {
	return r == RoleCreator || r == RoleAdmin
}

// ParseMemberRole 解析可存储的成员角色（admin/viewer）
func ParseMemberRole(s string) (Role, bool) {
	switch s {
	case model.MemberRoleAdmin:
		return RoleAdmin, true
	case model.MemberRoleViewer:
		return RoleViewer, true
	}
	return RoleNone, false
}
