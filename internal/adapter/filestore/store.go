// Package filestore keeps one pretty-printed JSON document per guild in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/KJ87SAT/Fortify-DashBoard/internal/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a domain.SettingsStore backed by <dir>/<guildID>.json files.
// Writes go through a temp file and a rename, so readers see either the old or
// the new document, never a torn one. There is no locking between writers.
type Store struct {
	dir string
}

// New creates dir if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create settings directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(guildID string) string {
	return filepath.Join(s.dir, guildID+".json")
}

func (s *Store) Load(ctx context.Context, guildID string) (*domain.GuildSettings, error) {
	if err := domain.ValidateGuildID(guildID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path(guildID)

	created, err := s.createDefault(path)
	if err != nil {
		return nil, domain.NewStorageError("create", guildID, err)
	}
	if created {
		slog.InfoContext(ctx, "Created default guild settings", "guild_id", guildID, "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewStorageError("read", guildID, err)
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

	tmp, err := s.writeTemp(guildID, data)
	if err != nil {
		return domain.NewStorageError("write", guildID, err)
	}
	if err := os.Rename(tmp, s.path(guildID)); err != nil {
		_ = os.Remove(tmp)
		return domain.NewStorageError("write", guildID, err)
	}
	return nil
}

// Ping checks that the settings directory is still reachable.
func (s *Store) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("settings directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("settings path %s is not a directory", s.dir)
	}
	return nil
}

// createDefault publishes the default document at path unless a document already
// exists. The fully written temp file is hard-linked into place, which fails with
// fs.ErrExist instead of overwriting, so racing first readers agree on one file.
func (s *Store) createDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	data, err := domain.MarshalDocument(domain.DefaultGuildSettings())
	if err != nil {
		return false, err
	}

	tmp, err := s.writeTemp(filepath.Base(path), data)
	if err != nil {
		return false, err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Store) writeTemp(prefix string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, "."+prefix+".*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Chmod(filePerm); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}
