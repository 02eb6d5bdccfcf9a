package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestEnvSource(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Credentials
		wantErr bool
	}{
		{
			name: "both set",
			env:  map[string]string{EnvUsername: "jane", EnvPassword: "s3cret"},
			want: Credentials{Username: "jane", Password: "s3cret"},
		},
		{
			name:    "password missing",
			env:     map[string]string{EnvUsername: "jane"},
			wantErr: true,
		},
		{
			name:    "nothing set",
			env:     map[string]string{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &EnvSource{Lookup: envLookup(tt.env)}
			got, err := src.Credentials(context.Background())
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNoCredentials))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		src := NewFileSource(filepath.Join(dir, "missing.txt"), nil)
		_, err := src.Credentials(context.Background())
		assert.True(t, errors.Is(err, ErrNoCredentials))
	})

	t.Run("two lines", func(t *testing.T) {
		path := filepath.Join(dir, "creds.txt")
		require.NoError(t, os.WriteFile(path, []byte("jane\ns3cret\n"), 0600))

		got, err := NewFileSource(path, nil).Credentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Credentials{Username: "jane", Password: "s3cret"}, got)
	})

	t.Run("extra fields ignored", func(t *testing.T) {
		path := filepath.Join(dir, "extra.txt")
		require.NoError(t, os.WriteFile(path, []byte("  jane  s3cret\nleftover\n"), 0600))

		got, err := NewFileSource(path, nil).Credentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "jane", got.Username)
		assert.Equal(t, "s3cret", got.Password)
	})

	t.Run("single field", func(t *testing.T) {
		path := filepath.Join(dir, "single.txt")
		require.NoError(t, os.WriteFile(path, []byte("jane\n"), 0600))

		_, err := NewFileSource(path, nil).Credentials(context.Background())
		assert.True(t, errors.Is(err, ErrNoCredentials))
	})

	t.Run("save round trip", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "saved.txt")
		src := NewFileSource(path, nil)
		require.NoError(t, src.Save(Credentials{Username: "joe", Password: "pw"}))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		got, err := src.Credentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, Credentials{Username: "joe", Password: "pw"}, got)
	})
}

func TestPromptSource(t *testing.T) {
	dir := t.TempDir()
	store := NewFileSource(filepath.Join(dir, "creds.txt"), nil)

	var out strings.Builder
	src := &PromptSource{
		In:    strings.NewReader("jane\n"),
		Out:   &out,
		Store: store,
		ReadPassword: func() (string, error) {
			return "s3cret", nil
		},
	}

	got, err := src.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "jane", Password: "s3cret"}, got)
	assert.Contains(t, out.String(), "Username: ")
	assert.Contains(t, out.String(), "Password: ")

	saved, err := store.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, got, saved)
}

func TestPromptSource_PlainReader(t *testing.T) {
	src := &PromptSource{
		In:  strings.NewReader("jane\ns3cret"),
		Out: &strings.Builder{},
	}

	got, err := src.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Credentials{Username: "jane", Password: "s3cret"}, got)
}

func TestPromptSource_Empty(t *testing.T) {
	src := &PromptSource{In: strings.NewReader("\n\n"), Out: &strings.Builder{}}
	_, err := src.Credentials(context.Background())
	assert.True(t, errors.Is(err, ErrNoCredentials))
}

func TestChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.txt")
	require.NoError(t, os.WriteFile(path, []byte("file-user file-pass"), 0600))

	t.Run("environment wins", func(t *testing.T) {
		chain := Chain{
			&EnvSource{Lookup: envLookup(map[string]string{EnvUsername: "env-user", EnvPassword: "env-pass"})},
			NewFileSource(path, nil),
		}
		got, err := chain.Credentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "env-user", got.Username)
	})

	t.Run("falls through to file", func(t *testing.T) {
		chain := Chain{
			&EnvSource{Lookup: envLookup(nil)},
			NewFileSource(path, nil),
		}
		got, err := chain.Credentials(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "file-user", got.Username)
	})

	t.Run("nothing available", func(t *testing.T) {
		chain := Chain{
			&EnvSource{Lookup: envLookup(nil)},
			NewFileSource(filepath.Join(dir, "missing"), nil),
		}
		_, err := chain.Credentials(context.Background())
		assert.True(t, errors.Is(err, ErrNoCredentials))
	})
}

func TestFileTokenStore(t *testing.T) {
	dir := t.TempDir()
	zone := time.FixedZone("CET", 3600)

	t.Run("missing file is not an error", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(dir, "missing.json"))
		token, err := store.Load()
		assert.NoError(t, err)
		assert.Nil(t, token)
	})

	t.Run("save and load", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(dir, "token.json"))
		exp := time.Date(2024, time.March, 6, 15, 28, 20, 0, zone)
		require.NoError(t, store.Save(&CachedToken{Token: "abc", ExpirationDate: exp, UserID: "1234"}))

		data, err := os.ReadFile(store.Path)
		require.NoError(t, err)
		var raw map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, "abc", raw["token"])
		assert.Equal(t, "2024-03-06T15:28:20+01:00", raw["expiration_date"])
		assert.Equal(t, float64(1234), raw["user_id"])

		token, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, token)
		assert.Equal(t, "abc", token.Token)
		assert.Equal(t, "1234", token.UserID)
		assert.True(t, exp.Equal(token.ExpirationDate))
	})

	t.Run("python style document", func(t *testing.T) {
		path := filepath.Join(dir, "legacy.json")
		doc := `{"token": "xyz", "expiration_date": "2024-03-06T15:28:20.123456+01:00", "user_id": "u-42"}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

		token, err := NewFileTokenStore(path).Load()
		require.NoError(t, err)
		assert.Equal(t, "u-42", token.UserID)
		assert.Equal(t, 123456000, token.ExpirationDate.Nanosecond())
	})

	t.Run("corrupt document", func(t *testing.T) {
		path := filepath.Join(dir, "corrupt.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := NewFileTokenStore(path).Load()
		assert.Error(t, err)
	})

	t.Run("nil token", func(t *testing.T) {
		assert.Error(t, NewFileTokenStore(filepath.Join(dir, "nil.json")).Save(nil))
	})
}

func TestCachedToken_Valid(t *testing.T) {
	now := time.Date(2024, time.March, 6, 12, 0, 0, 0, time.UTC)

	var nilToken *CachedToken
	assert.False(t, nilToken.Valid(now))
	assert.False(t, (&CachedToken{Token: "", ExpirationDate: now.Add(time.Hour)}).Valid(now))
	assert.False(t, (&CachedToken{Token: "a", ExpirationDate: now.Add(-time.Second)}).Valid(now))
	assert.True(t, (&CachedToken{Token: "a", ExpirationDate: now.Add(time.Second)}).Valid(now))
}

func TestMemoryTokenStore(t *testing.T) {
	store := &MemoryTokenStore{}
	token, err := store.Load()
	assert.NoError(t, err)
	assert.Nil(t, token)

	require.NoError(t, store.Save(&CachedToken{Token: "abc"}))
	token, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token.Token)
}
