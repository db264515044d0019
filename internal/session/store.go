// Package session persists per-session values. Every value lives under a
// (session id, key) pair; sessions never see each other's data.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrNoSession = errors.New("session id is required")

// Store is the persistence adapter behind the wizard and the validation
// tracker. Values are JSON encoded.
type Store interface {
	// Load decodes the value into dst. found is false when nothing is stored.
	Load(ctx context.Context, sessionID, key string, dst any) (found bool, err error)
	Save(ctx context.Context, sessionID, key string, v any) error
	Delete(ctx context.Context, sessionID, key string) error
	Close() error
}

const keyPrefix = "storycraft"

func storageKey(sessionID, key string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrNoSession
	}
	return fmt.Sprintf("%s:%s:%s", keyPrefix, sessionID, key), nil
}
