package redis

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
)

const settingsKeyPrefix = "fortify:guild_settings:"

func settingsKey(guildID string) string {
	return settingsKeyPrefix + guildID
}

// SettingsStore is a domain.SettingsStore keeping each document as a JSON string
// under fortify:guild_settings:<guildID>. Keys never expire.
type SettingsStore struct {
	rdb goredis.Cmdable
}

func NewSettingsStore(rdb goredis.Cmdable) *SettingsStore {
	return &SettingsStore{rdb: rdb}
}

func (s *SettingsStore) Load(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return nil, err
	}
	key := settingsKey(guildID)

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		raw, err = s.createDefault(ctx, key)
	}
	if err != nil {
		return nil, domain.NewStorageError("read", guildID, err)
	}

	settings, err := domain.UnmarshalDocument(raw)
	if err != nil {
		return nil, domain.NewStorageError("decode", guildID, err)
	}
	return settings, nil
}

// createDefault uses SETNX so racing first readers all end up reading the same value.
func (s *SettingsStore) createDefault(ctx context.Context, key string) ([]byte, error) {
	defaults, err := domain.MarshalDocument(domain.DefaultGuildSettings())
	if err != nil {
		return nil, err
	}

	if err := s.rdb.SetNX(ctx, key, defaults, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}

	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to read settings after create: %w", err)
	}
	return raw, nil
}

func (s *SettingsStore) Save(ctx context.Context, guildID string, settings *domain.GuildSettings) error {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return err
	}

	data, err := domain.MarshalDocument(settings)
	if err != nil {
		return domain.NewStorageError("encode", guildID, err)
	}

	if err := s.rdb.Set(ctx, settingsKey(guildID), data, 0).Err(); err != nil {
		return domain.NewStorageError("write", guildID, fmt.Errorf("failed to set settings: %w", err))
	}
	return nil
}

func (s *SettingsStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
