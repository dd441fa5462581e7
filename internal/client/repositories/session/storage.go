// Package session persists the authenticated session across restarts.
//
// The session is stored as a single JSON blob under StorageKey:
//
//	{"state":{"user":{...},"token":"...","isAuthenticated":true},"version":0}
//
// Both implementations also act as a client.TokenSource, so the HTTP client
// picks up whatever token was persisted last.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/spotlight/internal/client/models"
)

// StorageKey is the key the session blob is stored under.
const StorageKey = "auth-storage-v2"

// Storage is the durable side of the session store.
type Storage interface {
	// Load returns an empty session when nothing has been persisted.
	Load(ctx context.Context) (models.Session, error)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}

type persistedState struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token,omitempty"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

type envelope struct {
	State   persistedState `json:"state"`
	Version int            `json:"version"`
}

func encode(s models.Session, version int) ([]byte, error) {
	b, err := json.Marshal(envelope{
		State: persistedState{
			User:            s.User,
			Token:           s.Token,
			IsAuthenticated: s.IsAuthenticated(),
		},
		Version: version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return b, nil
}

// decode returns the stored session and blob version. A blob holding a
// token without a user (or the reverse) decodes to an empty session.
func decode(b []byte) (models.Session, int, error) {
	if len(b) == 0 {
		return models.Session{}, 0, nil
	}
	var e envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return models.Session{}, 0, fmt.Errorf("failed to decode session: %w", err)
	}
	s := models.Session{User: e.State.User, Token: e.State.Token}
	if !s.Consistent() {
		return models.Session{}, e.Version, nil
	}
	return s, e.Version, nil
}
