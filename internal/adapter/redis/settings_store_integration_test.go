package redis

import (
	"context"
	"testing"
	"time"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Connects(t *testing.T) {
	client := setupTestClient(t)
	require.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://not-a-url")
	assert.Error(t, err)
}

func TestSettingsStore_LoadMaterializesDefault(t *testing.T) {
	client := setupTestClient(t)
	store := NewSettingsStore(client)
	ctx := context.Background()

	settings, err := store.Load(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGuildSettings(), settings)

	raw, err := client.Get(ctx, "fortify:guild_settings:123").Result()
	require.NoError(t, err)
	want, err := domain.MarshalDocument(domain.DefaultGuildSettings())
	require.NoError(t, err)
	assert.Equal(t, string(want), raw)

	ttl, err := client.TTL(ctx, "fortify:guild_settings:123").Result()
	require.NoError(t, err)
	assert.Less(t, ttl, time.Duration(0), "settings keys must not expire")
}

func TestSettingsStore_SecondLoadKeepsDocument(t *testing.T) {
	client := setupTestClient(t)
	store := NewSettingsStore(client)
	ctx := context.Background()

	custom := domain.DefaultGuildSettings()
	custom.Backup.Channels = 8
	require.NoError(t, store.Save(ctx, "123", custom))

	loaded, err := store.Load(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Backup.Channels)
}

func TestSettingsStore_SaveLoadRoundTrip(t *testing.T) {
	client := setupTestClient(t)
	store := NewSettingsStore(client)
	ctx := context.Background()

	saved := &domain.GuildSettings{
		SpamProtection: domain.SpamProtection{Enabled: true, Limit: 3, WhitelistRoles: []string{"1"}, WhitelistUsers: []string{"2", "3"}},
		JoinRaid:       domain.JoinRaid{Enabled: true},
		Backup:         domain.Backup{Categories: 4, Channels: 5, Roles: 6, LastBackup: "2024-01-01"},
	}
	require.NoError(t, store.Save(ctx, "555", saved))

	loaded, err := store.Load(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestSettingsStore_CorruptDocument(t *testing.T) {
	client := setupTestClient(t)
	store := NewSettingsStore(client)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "fortify:guild_settings:9", "{broken", 0).Err())

	_, err := store.Load(ctx, "9")
	assert.ErrorIs(t, err, domain.ErrStorage)

	raw, err := client.Get(ctx, "fortify:guild_settings:9").Result()
	require.NoError(t, err)
	assert.Equal(t, "{broken", raw)
}

func TestSettingsStore_Ping(t *testing.T) {
	client := setupTestClient(t)
	assert.NoError(t, NewSettingsStore(client).Ping(context.Background()))
}
