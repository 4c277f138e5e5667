// Package session persists the clubctl operator session as a single
// JSON record on disk. Load fails soft: a missing or corrupt file means
// "not signed in", never an error the caller has to handle.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const fileName = "session.json"

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    int64     `json:"expires_at"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
}

// Store reads and writes the session record under a fixed directory.
type Store struct {
	dir string
}

// NewStore uses dir when given, otherwise ~/.config/clubctl.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "clubctl")
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, fileName)
}

func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("cannot create session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode session: %w", err)
	}

	// 0600: the record holds live tokens.
	if err := os.WriteFile(s.path(), data, 0o600); err != nil {
		return fmt.Errorf("cannot write session file: %w", err)
	}
	return nil
}

// Load returns the stored session, or (nil, nil) when there is none or
// the file cannot be decoded.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, nil
	}
	if sess.AccessToken == "" {
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cannot remove session file: %w", err)
	}
	return nil
}
