// ABOUTME: Local auth session storage backed by BadgerDB
// ABOUTME: Persists token, user id, expiry and session id and exposes them as an oauth2 TokenSource
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// AppName names the data directory.
const AppName = "tiddle"

var ErrNoSession = errors.New("no session: run 'tiddle login'")

// Keys the session is stored under.
var (
	keyToken     = []byte("token")
	keyUserID    = []byte("user_id")
	keyExpiresAt = []byte("expires_at")
	keySessionID = []byte("session_id")
	keyEmail     = []byte("email")
)

// Session is what a successful login leaves behind.
type Session struct {
	ID        string
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry. A zero expiry
// never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store keeps one session in a badger database.
type Store struct {
	mu sync.Mutex
	db *badger.DB
}

// DefaultDir is $XDG_DATA_HOME/tiddle/session.
func DefaultDir() string {
	return filepath.Join(xdg.DataHome, AppName, "session")
}

// Open opens (creating if needed) the session database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a session store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory session store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored session. A new session id is assigned when
// sess.ID is empty; the saved session is returned.
func (s *Store) Save(sess Session) (Session, error) {
	if sess.Token == "" {
		return Session{}, errors.New("session token is required")
	}
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}

	var expires []byte
	if !sess.ExpiresAt.IsZero() {
		var err error
		expires, err = sess.ExpiresAt.UTC().MarshalText()
		if err != nil {
			return Session{}, fmt.Errorf("failed to encode expiry: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		values := map[string][]byte{
			string(keyToken):     []byte(sess.Token),
			string(keyUserID):    []byte(sess.UserID),
			string(keySessionID): []byte(sess.ID),
			string(keyEmail):     []byte(sess.Email),
			string(keyExpiresAt): expires,
		}
		for k, v := range values {
			if len(v) == 0 {
				if err := txn.Delete([]byte(k)); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// Load returns the stored session or ErrNoSession.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess Session
	err := s.db.View(func(txn *badger.Txn) error {
		get := func(key []byte) (string, error) {
			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				return "", nil
			}
			if err != nil {
				return "", err
			}
			v, err := item.ValueCopy(nil)
			return string(v), err
		}

		var err error
		if sess.Token, err = get(keyToken); err != nil {
			return err
		}
		if sess.UserID, err = get(keyUserID); err != nil {
			return err
		}
		if sess.ID, err = get(keySessionID); err != nil {
			return err
		}
		if sess.Email, err = get(keyEmail); err != nil {
			return err
		}
		expires, err := get(keyExpiresAt)
		if err != nil {
			return err
		}
		if expires != "" {
			if err := sess.ExpiresAt.UnmarshalText([]byte(expires)); err != nil {
				return fmt.Errorf("invalid stored expiry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}
	return sess, nil
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, k := range [][]byte{keyToken, keyUserID, keyExpiresAt, keySessionID, keyEmail} {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// TokenSource serves the stored token to oauth2-aware clients. The
// token carries the stored expiry so expired sessions read as invalid.
func (s *Store) TokenSource() oauth2.TokenSource {
	return tokenSource{s}
}

type tokenSource struct {
	store *Store
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	sess, err := ts.store.Load()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer", Expiry: sess.ExpiresAt}, nil
}
