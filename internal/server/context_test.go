package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ocslots/internal/credentials"
	"github.com/teemow/ocslots/internal/oc"
)

type fakeSession struct {
	cached    bool
	password  string
	authed    bool
	logins    []credentials.Credentials
	authError error

	// clock and lifetime make the token expire; a nil clock never expires.
	clock    func() time.Time
	lifetime time.Duration
	expires  time.Time
}

func (f *fakeSession) Login(ctx context.Context, src credentials.Source, _ bool) error {
	if f.authError != nil {
		return f.authError
	}
	if f.cached {
		f.authed = true
		return nil
	}
	creds, err := src.Credentials(ctx)
	if err != nil {
		return err
	}
	f.logins = append(f.logins, creds)
	f.authed = creds.Password == f.password
	if !f.authed {
		return oc.ErrLoginRejected
	}
	if f.clock != nil {
		f.expires = f.clock().Add(f.lifetime)
	}
	return nil
}

func (f *fakeSession) Authenticated() bool {
	if f.clock != nil && !f.clock().Before(f.expires) {
		return false
	}
	return f.authed
}

func (f *fakeSession) UserID() string           { return "42" }
func (f *fakeSession) Location() *time.Location { return time.UTC }

func (f *fakeSession) Events(context.Context) ([]oc.Event, error) { return nil, nil }

func (f *fakeSession) Availabilities(context.Context) ([]oc.Availability, error) {
	return nil, nil
}

func (f *fakeSession) CreateAvailability(context.Context, time.Time, time.Time) error { return nil }

func (f *fakeSession) DeleteAvailability(context.Context, string) error { return nil }

type staticSource struct {
	creds credentials.Credentials
	calls int
}

func (s *staticSource) Credentials(context.Context) (credentials.Credentials, error) {
	s.calls++
	if !s.creds.Complete() {
		return credentials.Credentials{}, credentials.ErrNoCredentials
	}
	return s.creds, nil
}

func TestNewServerContext_Validation(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil, &staticSource{})
	assert.Error(t, err)

	_, err = NewServerContext(context.Background(), &fakeSession{}, nil)
	assert.Error(t, err)
}

func TestSession_UsesCachedToken(t *testing.T) {
	src := &staticSource{}
	sc, err := NewServerContext(context.Background(), &fakeSession{cached: true}, src)
	require.NoError(t, err)

	s, err := sc.Session(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", s.UserID())
	assert.Equal(t, 0, src.calls, "credentials must not be requested when a cached token is valid")
}

func TestSession_LogsInOnce(t *testing.T) {
	session := &fakeSession{password: "secret"}
	src := &staticSource{creds: credentials.Credentials{Username: "me", Password: "secret"}}
	sc, err := NewServerContext(context.Background(), session, src)
	require.NoError(t, err)

	_, err = sc.Session(context.Background())
	require.NoError(t, err)
	_, err = sc.Session(context.Background())
	require.NoError(t, err)

	assert.Len(t, session.logins, 1)
	assert.Equal(t, 1, src.calls)
}

func TestSession_LogsInAgainAfterExpiry(t *testing.T) {
	now := time.Date(2024, time.March, 6, 14, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	session := &fakeSession{password: "secret", clock: clock, lifetime: oc.TokenLifetime}
	src := &staticSource{creds: credentials.Credentials{Username: "me", Password: "secret"}}
	sc, err := NewServerContext(context.Background(), session, src, WithClock(clock))
	require.NoError(t, err)

	_, err = sc.Session(context.Background())
	require.NoError(t, err)
	now = now.Add(30 * time.Minute)
	_, err = sc.Session(context.Background())
	require.NoError(t, err)
	assert.Len(t, session.logins, 1)

	now = now.Add(2 * time.Hour)
	s, err := sc.Session(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Len(t, session.logins, 2)
	assert.Equal(t, 2, src.calls)
}

func TestSession_Failures(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
		src     *staticSource
		wantErr error
	}{
		{
			name:    "wrong password",
			session: &fakeSession{password: "secret"},
			src:     &staticSource{creds: credentials.Credentials{Username: "me", Password: "nope"}},
			wantErr: ErrAuthenticationFailed,
		},
		{
			name:    "no credentials",
			session: &fakeSession{},
			src:     &staticSource{},
			wantErr: credentials.ErrNoCredentials,
		},
		{
			name:    "network error",
			session: &fakeSession{authError: errors.New("connection refused")},
			src:     &staticSource{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := NewServerContext(context.Background(), tt.session, tt.src)
			require.NoError(t, err)

			_, err = sc.Session(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRunner(t *testing.T) {
	sc, err := NewServerContext(context.Background(), &fakeSession{cached: true}, &staticSource{})
	require.NoError(t, err)

	runner, err := sc.Runner(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runner.API)
	assert.Equal(t, time.UTC, runner.Engine.Location())
}

func TestShutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), &fakeSession{cached: true}, &staticSource{})
	require.NoError(t, err)

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	_, err = sc.Session(context.Background())
	assert.ErrorIs(t, err, ErrShutdown)
}
