// Package correlation tags log records with the request and guild they
// belong to, so one dashboard action can be followed through every layer.
package correlation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Header carries a caller-supplied request ID through a reverse proxy.
const Header = "X-Correlation-ID"

const (
	maxIncomingIDLen = 64

	requestIDKey = "correlation_id"
	guildIDKey   = "guild_id"
)

type tags struct {
	requestID string
	guildID   string
}

type tagsKey struct{}

func tagsFrom(ctx context.Context) tags {
	t, _ := ctx.Value(tagsKey{}).(tags)
	return t
}

// NewID returns 8 random hex characters.
func NewID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// FromHeader accepts value as the request ID when it is 1 to 64 characters of
// [A-Za-z0-9_-]; anything else is replaced by a fresh ID so log lines cannot
// be forged.
func FromHeader(value string) string {
	if value == "" || len(value) > maxIncomingIDLen {
		return NewID()
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return NewID()
		}
	}
	return value
}

func WithID(ctx context.Context, id string) context.Context {
	t := tagsFrom(ctx)
	t.requestID = id
	return context.WithValue(ctx, tagsKey{}, t)
}

func ID(ctx context.Context) (string, bool) {
	id := tagsFrom(ctx).requestID
	return id, id != ""
}

// WithGuild marks ctx as acting on guildID. The request ID, if any, is kept.
func WithGuild(ctx context.Context, guildID string) context.Context {
	t := tagsFrom(ctx)
	t.guildID = guildID
	return context.WithValue(ctx, tagsKey{}, t)
}

func Guild(ctx context.Context) (string, bool) {
	id := tagsFrom(ctx).guildID
	return id, id != ""
}

// LogHandler adds correlation_id and guild_id from the context to every
// record. A guild_id the caller logged explicitly is not repeated.
type LogHandler struct {
	next slog.Handler
}

func NewLogHandler(next slog.Handler) *LogHandler {
	return &LogHandler{next: next}
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	t := tagsFrom(ctx)
	if t.requestID != "" {
		r.AddAttrs(slog.String(requestIDKey, t.requestID))
	}
	if t.guildID != "" && !hasAttr(r, guildIDKey) {
		r.AddAttrs(slog.String(guildIDKey, t.guildID))
	}
	if err := h.next.Handle(ctx, r); err != nil {
		return fmt.Errorf("correlation handler: %w", err)
	}
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{next: h.next.WithAttrs(attrs)}
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{next: h.next.WithGroup(name)}
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		found = a.Key == key
		return !found
	})
	return found
}
