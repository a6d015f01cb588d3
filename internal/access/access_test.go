package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/cowatch/internal/model"
)

func TestRoleOf(t *testing.T) {
	list := &model.List{
		OwnerSubject: "owner",
		Members: []model.ListMember{
			{Subject: "adm", Role: model.MemberRoleAdmin},
			{Subject: "view", Role: model.MemberRoleViewer},
			{Subject: "weird", Role: "superuser"},
		},
	}

	tests := []struct {
		subject string
		want    Role
	}{
		{"owner", RoleCreator},
		{"adm", RoleAdmin},
		{"view", RoleViewer},
		{"weird", RoleNone},
		{"stranger", RoleNone},
		{"", RoleNone},
	}
	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleOf(list, tt.subject))
		})
	}

	assert.Equal(t, RoleNone, RoleOf(nil, "owner"))
}

func TestPredicates(t *testing.T) {
	assert.False(t, CanView(RoleNone))
	assert.True(t, CanView(RoleViewer))
	assert.True(t, CanView(RoleAdmin))
	assert.True(t, CanView(RoleCreator))

	assert.False(t, CanEdit(RoleNone))
	assert.False(t, CanEdit(RoleViewer))
	assert.True(t, CanEdit(RoleAdmin))
	assert.True(t, CanEdit(RoleCreator))
}

func TestParseMemberRole(t *testing.T) {
	r, ok := ParseMemberRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	// creator 不可作为成员角色存储
	_, ok = ParseMemberRole("creator")
	assert.False(t, ok)
	assert.Equal(t, "creator", RoleCreator.String())
}
