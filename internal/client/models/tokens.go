// Package models defines the data exchanged with the sales API and persisted
// in the local key/value store.
package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ExpirySkew is how early a token is considered expired.
const ExpirySkew = 5 * time.Second

// Tokens is the bearer token bundle of one session.
// Expiry instants are epoch milliseconds; zero means unknown (never expires).
type Tokens struct {
	Token                 string `json:"token"`
	RefreshToken          string `json:"refreshToken"`
	AccessTokenExpiresAt  int64  `json:"accessTokenExpiresAt,omitempty"`
	RefreshTokenExpiresAt int64  `json:"refreshTokenExpiresAt,omitempty"`
}

// AccessExpired reports whether the access token is within ExpirySkew of its
// expiry at now.
func (t *Tokens) AccessExpired(now time.Time) bool {
	return expired(t.AccessTokenExpiresAt, now)
}

// RefreshExpired reports whether the refresh token is within ExpirySkew of
// its expiry at now.
func (t *Tokens) RefreshExpired(now time.Time) bool {
	return expired(t.RefreshTokenExpiresAt, now)
}

func expired(atMillis int64, now time.Time) bool {
	if atMillis == 0 {
		return false
	}
	return now.UnixMilli() >= atMillis-ExpirySkew.Milliseconds()
}

// ExpiresAt converts a lifetime reported by the server into an absolute
// epoch-millisecond instant. A zero lifetime yields zero.
func ExpiresAt(now time.Time, lifetime Millis) int64 {
	if lifetime <= 0 {
		return 0
	}
	return now.UnixMilli() + int64(lifetime)
}

// Millis is a duration in milliseconds as sent by the API. It accepts both
// JSON numbers and numeric strings.
type Millis int64

func (m *Millis) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*m = Millis(f)
	return nil
}

func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(m))
}
