package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLifecycle(t *testing.T) {
	env := newTestEnv(t)
	client, project := env.clientWithProject(t, "Acme", "Website")

	found, err := env.clientSvc.Get(env.ctx, env.user, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", found.Name)
	require.Len(t, found.Projects, 1)
	assert.Equal(t, project.ID, found.Projects[0].ID)

	require.NoError(t, env.clientSvc.Delete(env.ctx, env.user, client.ID))

	_, err = env.clientSvc.Get(env.ctx, env.user, client.ID)
	assert.Error(t, err)
	clients, err := env.clientSvc.List(env.ctx, env.user)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestClientCreateDefaults(t *testing.T) {
	env := newTestEnv(t)

	client, err := env.clientSvc.Create(env.ctx, env.user, "Globex", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "🏢", client.Emoji)
	assert.Equal(t, "#6b7280", client.Color)
	assert.Empty(t, client.TagList())

	_, err = env.clientSvc.Create(env.ctx, env.user, "", "", "", nil)
	assert.Error(t, err)
}
