package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
)

const (
	insertDefaultSQL = `INSERT INTO guild_settings (guild_id, document)
VALUES ($1, $2)
ON CONFLICT (guild_id) DO NOTHING`

	selectDocumentSQL = `SELECT document FROM guild_settings WHERE guild_id = $1`

	upsertDocumentSQL = `INSERT INTO guild_settings (guild_id, document)
VALUES ($1, $2)
ON CONFLICT (guild_id) DO UPDATE
SET document = EXCLUDED.document, updated_at = now()`
)

// SettingsRepo is a domain.SettingsStore storing each document as JSONB keyed by guild ID.
type SettingsRepo struct {
	pool *pgxpool.Pool
}

func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

func (r *SettingsRepo) Load(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return nil, err
	}

	defaults, err := domain.MarshalDocument(domain.DefaultGuildSettings())
	if err != nil {
		return nil, domain.NewStorageError("encode", guildID, err)
	}

	// The insert is a no-op when a document exists, so first readers agree on one row.
	if _, err := r.pool.Exec(ctx, insertDefaultSQL, guildID, string(defaults)); err != nil {
		return nil, domain.NewStorageError("create", guildID, fmt.Errorf("failed to insert default settings: %w", err))
	}

	var raw []byte
	if err := r.pool.QueryRow(ctx, selectDocumentSQL, guildID).Scan(&raw); err != nil {
		return nil, domain.NewStorageError("read", guildID, fmt.Errorf("failed to select settings: %w", err))
	}

	settings, err := domain.UnmarshalDocument(raw)
	if err != nil {
		return nil, domain.NewStorageError("decode", guildID, err)
	}
	return settings, nil
}

func (r *SettingsRepo) Save(ctx context.Context, guildID string, settings *domain.GuildSettings) error {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return err
	}

	data, err := domain.MarshalDocument(settings)
	if err != nil {
		return domain.NewStorageError("encode", guildID, err)
	}

	if _, err := r.pool.Exec(ctx, upsertDocumentSQL, guildID, string(data)); err != nil {
		return domain.NewStorageError("write", guildID, fmt.Errorf("failed to upsert settings: %w", err))
	}
	return nil
}

func (r *SettingsRepo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
