package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/model"
)

func TestTeamMembership(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.userRepo.UpsertFromTelegram(env.ctx, 2002, "Colleague", "colleague")
	require.NoError(t, err)

	member, err := env.teamSvc.AddByUsername(env.ctx, env.user, "colleague", model.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, member.Role)

	// Duplicates and unknown users are rejected.
	_, err = env.teamSvc.AddByUsername(env.ctx, env.user, "colleague", model.RoleViewer)
	assert.Error(t, err)
	_, err = env.teamSvc.AddByUsername(env.ctx, env.user, "stranger", model.RoleMember)
	assert.Error(t, err)
	_, err = env.teamSvc.AddByUsername(env.ctx, env.user, "colleague", "owner")
	assert.Error(t, err)

	members, err := env.teamSvc.List(env.ctx, env.user)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.NotNil(t, members[0].Member)
	assert.Equal(t, "Colleague", members[0].Member.Name)

	require.NoError(t, env.teamSvc.UpdateRole(env.ctx, env.user, member.MemberID, model.RoleAdmin))
	members, err = env.teamSvc.List(env.ctx, env.user)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, members[0].Role)

	require.NoError(t, env.teamSvc.Remove(env.ctx, env.user, member.MemberID))
	members, err = env.teamSvc.List(env.ctx, env.user)
	require.NoError(t, err)
	assert.Empty(t, members)
}
