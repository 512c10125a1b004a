// Package credentials persists the access/refresh token pair between runs.
package credentials

import (
	"context"
	"errors"
)

// Storage key names shared by every backend.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refreshToken"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("credentials: unknown backend")

// Tokens is the persisted credential pair. Absent values are empty strings.
type Tokens struct {
	AccessToken  string `json:"token,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Empty reports whether no access token is held.
func (t Tokens) Empty() bool {
	return t.AccessToken == ""
}

// Store is a key-value token store. Put writes both tokens or neither.
type Store interface {
	Put(ctx context.Context, accessToken, refreshToken string) error
	Read(ctx context.Context) (Tokens, error)
	Clear(ctx context.Context) error
}
