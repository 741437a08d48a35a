package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage marks failures of the settings medium: unreadable, unwritable, or corrupt data.
	ErrStorage = errors.New("settings storage failure")
	// ErrBotNotInGuild is returned when the bot account is not a member of the requested guild.
	ErrBotNotInGuild = errors.New("bot is not in this guild")
	// ErrUpstream marks failed or rejected calls to the Discord API.
	ErrUpstream = errors.New("discord upstream failure")
	// ErrInvalidGuildID is returned for guild IDs that are not Discord snowflakes.
	ErrInvalidGuildID = errors.New("invalid guild id")
)

// StorageError carries the guild and operation of a failed store call.
// errors.Is(err, ErrStorage) holds for every StorageError.
type StorageError struct {
	GuildID string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("settings storage: %s guild %s: %v", e.Op, e.GuildID, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// NewStorageError wraps err for the given operation ("load", "save", "decode", ...).
func NewStorageError(op, guildID string, err error) *StorageError {
	return &StorageError{GuildID: guildID, Op: op, Err: err}
}
