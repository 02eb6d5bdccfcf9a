package credentials

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// DefaultTokenFile is the token cache file name used in the working directory.
const DefaultTokenFile = "bearer-token.json"

// CachedToken is a bearer token persisted between runs.
type CachedToken struct {
	Token          string
	ExpirationDate time.Time
	UserID         string
}

// Valid reports whether the token is set and expires after now.
func (t *CachedToken) Valid(now time.Time) bool {
	return t != nil && t.Token != "" && t.ExpirationDate.After(now)
}

type cachedTokenJSON struct {
	Token          string          `json:"token"`
	ExpirationDate string          `json:"expiration_date"`
	UserID         json.RawMessage `json:"user_id"`
}

// MarshalJSON writes the expiration date as ISO-8601 with the local offset
// and the user id as a number when it is numeric.
func (t CachedToken) MarshalJSON() ([]byte, error) {
	var userID json.RawMessage
	if _, err := strconv.ParseInt(t.UserID, 10, 64); err == nil {
		userID = json.RawMessage(t.UserID)
	} else {
		b, err := json.Marshal(t.UserID)
		if err != nil {
			return nil, err
		}
		userID = b
	}
	return json.Marshal(cachedTokenJSON{
		Token:          t.Token,
		ExpirationDate: t.ExpirationDate.Format(time.RFC3339),
		UserID:         userID,
	})
}

// UnmarshalJSON accepts numeric or string user ids.
func (t *CachedToken) UnmarshalJSON(data []byte) error {
	var raw cachedTokenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	exp, err := time.Parse(time.RFC3339, raw.ExpirationDate)
	if err != nil {
		return fmt.Errorf("invalid expiration_date %q: %w", raw.ExpirationDate, err)
	}

	userID, err := rawID(raw.UserID)
	if err != nil {
		return fmt.Errorf("invalid user_id: %w", err)
	}

	*t = CachedToken{Token: raw.Token, ExpirationDate: exp, UserID: userID}
	return nil
}

func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// TokenStore loads and saves the cached bearer token.
type TokenStore interface {
	// Load returns the cached token, or nil when nothing usable is stored.
	Load() (*CachedToken, error)

	// Save persists the token.
	Save(token *CachedToken) error
}

// FileTokenStore keeps the token in a JSON file.
type FileTokenStore struct {
	Path string
}

// NewFileTokenStore creates a file-backed token store.
func NewFileTokenStore(path string) *FileTokenStore {
	if path == "" {
		path = DefaultTokenFile
	}
	return &FileTokenStore{Path: path}
}

// Load implements TokenStore. A missing or unreadable file yields (nil, nil).
func (s *FileTokenStore) Load() (*CachedToken, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file %s: %w", s.Path, err)
	}

	var token CachedToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", s.Path, err)
	}
	return &token, nil
}

// Save implements TokenStore.
func (s *FileTokenStore) Save(token *CachedToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create token directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token in memory. Useful when caching is disabled.
type MemoryTokenStore struct {
	token *CachedToken
}

// Load implements TokenStore.
func (s *MemoryTokenStore) Load() (*CachedToken, error) {
	return s.token, nil
}

// Save implements TokenStore.
func (s *MemoryTokenStore) Save(token *CachedToken) error {
	s.token = token
	return nil
}
