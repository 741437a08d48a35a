// Package memory is an in-process domain.SettingsStore for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
)

// Store keeps serialized documents keyed by guild ID. Documents are stored in
// their persisted JSON form so callers never share memory with the store and
// the behavior matches the file-backed store byte for byte.
type Store struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) Load(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.docs[guildID]
	if !ok {
		var err error
		data, err = domain.MarshalDocument(domain.DefaultGuildSettings())
		if err != nil {
			return nil, domain.NewStorageError("encode", guildID, err)
		}
		s.docs[guildID] = data
	}

	settings, err := domain.UnmarshalDocument(data)
	if err != nil {
		return nil, domain.NewStorageError("decode", guildID, err)
	}
	return settings, nil
}

func (s *Store) Save(ctx context.Context, guildID string, settings *domain.GuildSettings) error {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := domain.MarshalDocument(settings)
	if err != nil {
		return domain.NewStorageError("encode", guildID, err)
	}

	s.mu.Lock()
	s.docs[guildID] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
