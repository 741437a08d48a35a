// Package session signs and verifies the OAuth access token carried in the
// browser's session cookie.
//
// Blobs are HMAC-SHA256 signed, not encrypted, and carry no expiry: a blob stays
// valid until the cookie is cleared or the signing secret changes.
package session

import (
	"errors"
	"fmt"

	"github.com/gorilla/securecookie"
)

// CookieName is both the cookie name and the name bound into every signature,
// so a blob minted for another cookie never verifies here.
const CookieName = "session"

// ErrInvalidSignature is returned when a blob was tampered with, truncated, or
// signed under a different key.
var ErrInvalidSignature = errors.New("session: invalid signature")

// Codec is safe for concurrent use; it holds no mutable state after construction.
type Codec struct {
	sc *securecookie.SecureCookie
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: signing secret must not be empty")
	}

	sc := securecookie.New(secret, nil).
		MaxAge(0).
		SetSerializer(securecookie.JSONEncoder{})

	return &Codec{sc: sc}, nil
}

func (c *Codec) Encode(token string) (string, error) {
	blob, err := c.sc.Encode(CookieName, token)
	if err != nil {
		return "", fmt.Errorf("session: failed to sign token: %w", err)
	}
	return blob, nil
}

func (c *Codec) Decode(blob string) (string, error) {
	if blob == "" {
		return "", ErrInvalidSignature
	}

	var token string
	if err := c.sc.Decode(CookieName, blob, &token); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return token, nil
}
