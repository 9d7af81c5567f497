// Package store keeps the client's session state (tokens and the current
// conversation id) in a small Pebble database under the profile directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	pebble "github.com/cockroachdb/pebble"
)

const (
	keyAccessToken    = "access_token"
	keyRefreshToken   = "refresh_token"
	keyConversationID = "conversation_id"
)

// ErrNoSession is returned when a conversation id is saved without a
// stored access token.
var ErrNoSession = errors.New("no session")

// Tokens is the persisted auth pair.
type Tokens struct {
	Access  string
	Refresh string
}

// expiring wraps a value with an absolute expiry.
type expiring struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Store struct {
	db *pebble.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tokens returns the stored auth pair. Missing values are empty strings.
func (s *Store) Tokens() (Tokens, error) {
	access, err := s.get(keyAccessToken)
	if err != nil {
		return Tokens{}, err
	}
	refresh, err := s.get(keyRefreshToken)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: string(access), Refresh: string(refresh)}, nil
}

// SaveTokens replaces both tokens in one batch.
func (s *Store) SaveTokens(t Tokens) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := setOrDelete(b, keyAccessToken, t.Access); err != nil {
		return err
	}
	if err := setOrDelete(b, keyRefreshToken, t.Refresh); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

// ClearSession drops the tokens and the conversation id together. Used on
// logout and when the backend rejects the token.
func (s *Store) ClearSession() error {
	b := s.db.NewBatch()
	defer b.Close()
	for _, k := range []string{keyAccessToken, keyRefreshToken, keyConversationID} {
		if err := b.Delete([]byte(k), nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// ConversationID returns the stored conversation id if it has not expired
// and an access token is present. Otherwise any stale id is removed and ""
// is returned.
func (s *Store) ConversationID(now time.Time) (string, error) {
	access, err := s.get(keyAccessToken)
	if err != nil {
		return "", err
	}
	raw, err := s.get(keyConversationID)
	if err != nil || raw == nil {
		return "", err
	}
	var e expiring
	if err := json.Unmarshal(raw, &e); err != nil || len(access) == 0 || !now.Before(e.ExpiresAt) {
		return "", s.ClearConversation()
	}
	return e.Value, nil
}

// SaveConversationID stores id until now+ttl. An access token must be
// stored first.
func (s *Store) SaveConversationID(id string, ttl time.Duration, now time.Time) error {
	if id == "" {
		return errors.New("save conversation: empty id")
	}
	access, err := s.get(keyAccessToken)
	if err != nil {
		return err
	}
	if len(access) == 0 {
		return fmt.Errorf("save conversation: %w", ErrNoSession)
	}
	data, err := json.Marshal(expiring{Value: id, ExpiresAt: now.Add(ttl).UTC()})
	if err != nil {
		return err
	}
	return s.db.Set([]byte(keyConversationID), data, pebble.Sync)
}

func (s *Store) ClearConversation() error {
	return s.db.Delete([]byte(keyConversationID), pebble.Sync)
}

// get returns a copy of the value, or nil when the key is absent.
func (s *Store) get(key string) ([]byte, error) {
	v, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store get %s: %w", key, err)
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func setOrDelete(b *pebble.Batch, key, value string) error {
	if value == "" {
		return b.Delete([]byte(key), nil)
	}
	return b.Set([]byte(key), []byte(value), nil)
}
