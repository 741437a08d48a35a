package domain

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"fmt"
)

// Default values for a freshly materialized settings document.
const (
	DefaultSpamLimit = 5
	NeverBackedUp    = "None"
)

// GuildSettings is the per-guild moderation document. Its JSON shape is the
// on-disk format and must stay stable.
type GuildSettings struct {
	SpamProtection SpamProtection `json:"spam_protection"`
	JoinRaid       JoinRaid       `json:"join_raid"`
	Backup         Backup         `json:"backup"`
}

type SpamProtection struct {
	Enabled        bool     `json:"enabled"`
	Limit          int      `json:"limit"`
	WhitelistRoles []string `json:"whitelist_roles"`
	WhitelistUsers []string `json:"whitelist_users"`
}

type JoinRaid struct {
	Enabled bool `json:"enabled"`
}

// Backup is written by the bot; the dashboard only displays it.
type Backup struct {
	Categories int    `json:"categories"`
	Channels   int    `json:"channels"`
	Roles      int    `json:"roles"`
	LastBackup string `json:"last_backup"`
}

// DefaultGuildSettings returns the document created on first access to a guild.
func DefaultGuildSettings() *GuildSettings {
	return &GuildSettings{
		SpamProtection: SpamProtection{
			Enabled:        false,
			Limit:          DefaultSpamLimit,
			WhitelistRoles: []string{},
			WhitelistUsers: []string{},
		},
		JoinRaid: JoinRaid{Enabled: false},
		Backup: Backup{
			LastBackup: NeverBackedUp,
		},
	}
}

// Normalize replaces nil whitelists with empty ones so documents always
// serialize them as [] rather than null.
func (s *GuildSettings) Normalize() {
	if s.SpamProtection.WhitelistRoles == nil {
		s.SpamProtection.WhitelistRoles = []string{}
	}
	if s.SpamProtection.WhitelistUsers == nil {
		s.SpamProtection.WhitelistUsers = []string{}
	}
}

// Clone returns a deep copy.
func (s *GuildSettings) Clone() *GuildSettings {
	c := *s
	c.SpamProtection.WhitelistRoles = append([]string{}, s.SpamProtection.WhitelistRoles...)
	c.SpamProtection.WhitelistUsers = append([]string{}, s.SpamProtection.WhitelistUsers...)
	return &c
}

// MarshalDocument renders the document in its persisted form: 4-space indented JSON.
func MarshalDocument(s *GuildSettings) ([]byte, error) {
	doc := s.Clone()
	doc.Normalize()
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode guild settings: %w", err)
	}
	return data, nil
}

// UnmarshalDocument parses a persisted document. Corrupt input is an error;
// it is never replaced with defaults. The top level must be a JSON object, so
// a literal null is corrupt rather than a zero-valued document.
func UnmarshalDocument(data []byte) (*GuildSettings, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("failed to decode guild settings: document is not a JSON object")
	}

	var s GuildSettings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode guild settings: %w", err)
	}
	s.Normalize()
	return &s, nil
}

// SettingsStore persists one GuildSettings document per guild ID.
//
// Load materializes and persists the default document when none exists.
// Save replaces the whole document unconditionally; concurrent writers to the
// same guild race and the last write wins.
// Both return a *StorageError when the medium fails or holds corrupt data.
type SettingsStore interface {
	Load(ctx context.Context, guildID string) (*GuildSettings, error)
	Save(ctx context.Context, guildID string, settings *GuildSettings) error
}
