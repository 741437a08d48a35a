package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_LoadMaterializesDefault(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSettingsRepo(pool)
	ctx := context.Background()

	settings, err := repo.Load(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGuildSettings(), settings)

	var count int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM guild_settings WHERE guild_id = $1", "123").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSettingsRepo_SecondLoadKeepsDocument(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSettingsRepo(pool)
	ctx := context.Background()

	_, err := repo.Load(ctx, "123")
	require.NoError(t, err)

	var before, after string
	require.NoError(t, pool.QueryRow(ctx, "SELECT updated_at::text FROM guild_settings WHERE guild_id = $1", "123").Scan(&before))

	second, err := repo.Load(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultGuildSettings(), second)

	require.NoError(t, pool.QueryRow(ctx, "SELECT updated_at::text FROM guild_settings WHERE guild_id = $1", "123").Scan(&after))
	assert.Equal(t, before, after)
}

func TestSettingsRepo_SaveLoadRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSettingsRepo(pool)
	ctx := context.Background()

	saved := domain.DefaultGuildSettings()
	saved.SpamProtection.Enabled = true
	saved.SpamProtection.WhitelistUsers = []string{"42"}
	saved.Backup.Channels = 11
	require.NoError(t, repo.Save(ctx, "555", saved))

	loaded, err := repo.Load(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	saved.JoinRaid.Enabled = true
	require.NoError(t, repo.Save(ctx, "555", saved))

	loaded, err = repo.Load(ctx, "555")
	require.NoError(t, err)
	assert.True(t, loaded.JoinRaid.Enabled)
}

func TestSettingsRepo_CorruptDocument(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSettingsRepo(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO guild_settings (guild_id, document) VALUES ($1, '"not an object"'::jsonb)`, "9")
	require.NoError(t, err)

	_, err = repo.Load(ctx, "9")
	assert.ErrorIs(t, err, domain.ErrStorage)
}

func TestSettingsRepo_ConcurrentFirstLoad(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewSettingsRepo(pool)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Load(ctx, "1000")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestSettingsRepo_MigrationsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	require.NoError(t, MigrateSchema(context.Background(), pool))
	require.NoError(t, NewSettingsRepo(pool).Ping(context.Background()))
}

func TestSettingsRepo_ConcurrentMigrations(t *testing.T) {
	pool := setupTestDB(t)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = MigrateSchema(context.Background(), pool)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}
