package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no Google token has been stored yet.
var ErrNoToken = errors.New("no Google OAuth token found, run 'ocslots google-auth' first")

// TokenProvider is an interface for providing OAuth tokens for Google APIs
type TokenProvider interface {
	// Token returns the stored token.
	Token(ctx context.Context) (*oauth2.Token, error)

	// Save replaces the stored token.
	Save(token *oauth2.Token) error

	// HasToken reports whether a token is stored.
	HasToken() bool
}

// FileTokenProvider stores the token as JSON on disk.
type FileTokenProvider struct {
	Path string
}

// NewFileTokenProvider creates a provider for path. An empty path selects
// DefaultTokenPath.
func NewFileTokenProvider(path string) *FileTokenProvider {
	if path == "" {
		path = DefaultTokenPath()
	}
	return &FileTokenProvider{Path: path}
}

// DefaultTokenPath is google-token.json in the ocslots user cache directory.
func DefaultTokenPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ocslots", "google-token.json")
}

// Token implements TokenProvider.
func (p *FileTokenProvider) Token(_ context.Context) (*oauth2.Token, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var t oauth2.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", p.Path, err)
	}
	if t.AccessToken == "" && t.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no token", p.Path)
	}
	return &t, nil
}

// Save implements TokenProvider.
func (p *FileTokenProvider) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(p.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// HasToken implements TokenProvider.
func (p *FileTokenProvider) HasToken() bool {
	_, err := os.Stat(p.Path)
	return err == nil
}
