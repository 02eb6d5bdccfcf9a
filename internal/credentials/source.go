package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

const (
	// EnvUsername is the environment variable holding the login name.
	EnvUsername = "OC_USERNAME"

	// EnvPassword is the environment variable holding the password.
	EnvPassword = "OC_PASSWORD"

	// DefaultCredentialsFile is the credentials file name used in the working directory.
	DefaultCredentialsFile = "oc-credentials.txt"
)

// ErrNoCredentials is returned when no source could supply a username and password.
var ErrNoCredentials = errors.New("no username / password provided")

// Credentials holds a plaintext login.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both username and password are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Source supplies credentials. Implementations return ErrNoCredentials
// (possibly wrapped) when they have nothing to offer.
type Source interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// EnvSource reads credentials from environment variables.
type EnvSource struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(key string) (string, bool)
}

// NewEnvSource creates a source backed by the process environment.
func NewEnvSource() *EnvSource {
	return &EnvSource{Lookup: os.LookupEnv}
}

// Credentials implements Source.
func (s *EnvSource) Credentials(_ context.Context) (Credentials, error) {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	user, _ := lookup(EnvUsername)
	pass, _ := lookup(EnvPassword)

	creds := Credentials{Username: strings.TrimSpace(user), Password: pass}
	if !creds.Complete() {
		return Credentials{}, fmt.Errorf("%w: %s/%s not set", ErrNoCredentials, EnvUsername, EnvPassword)
	}
	return creds, nil
}

// FileSource reads credentials from a text file holding the username and the
// password as the first two whitespace-separated fields.
type FileSource struct {
	Path   string
	Logger *slog.Logger
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if path == "" {
		path = DefaultCredentialsFile
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{Path: path, Logger: logger}
}

// Credentials implements Source.
func (s *FileSource) Credentials(_ context.Context) (Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return Credentials{}, fmt.Errorf("%w: %s unavailable", ErrNoCredentials, s.Path)
		}
		return Credentials{}, fmt.Errorf("failed to read credentials file %s: %w", s.Path, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) < 2 {
		s.Logger.Warn("cannot find credentials in file", "path", s.Path, "fields", len(fields))
		return Credentials{}, fmt.Errorf("%w: expected two fields (username and password) in %s; got %d fields",
			ErrNoCredentials, s.Path, len(fields))
	}

	return Credentials{Username: fields[0], Password: fields[1]}, nil
}

// Save writes credentials to the file with 0600 permissions.
func (s *FileSource) Save(creds Credentials) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}
	content := creds.Username + "\n" + creds.Password + "\n"
	if err := os.WriteFile(s.Path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// PromptSource asks for credentials interactively and stores them through Store.
type PromptSource struct {
	In    io.Reader
	Out   io.Writer
	Store *FileSource

	// ReadPassword reads a line without echo. Defaults to term.ReadPassword on
	// stdin when In is a terminal, or a plain line read otherwise.
	ReadPassword func() (string, error)
}

// NewPromptSource creates a source prompting on stdin/stdout.
func NewPromptSource(store *FileSource) *PromptSource {
	return &PromptSource{In: os.Stdin, Out: os.Stdout, Store: store}
}

// Credentials implements Source.
func (s *PromptSource) Credentials(_ context.Context) (Credentials, error) {
	if s.In == nil || s.Out == nil {
		return Credentials{}, fmt.Errorf("%w: no terminal available", ErrNoCredentials)
	}
	if f, ok := s.In.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return Credentials{}, fmt.Errorf("%w: stdin is not a terminal", ErrNoCredentials)
	}

	reader := bufio.NewReader(s.In)

	fmt.Fprint(s.Out, "Username: ")
	user, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Credentials{}, fmt.Errorf("failed to read username: %w", err)
	}

	fmt.Fprint(s.Out, "Password: ")
	var pass string
	if s.ReadPassword != nil {
		pass, err = s.ReadPassword()
	} else if f, ok := s.In.(*os.File); ok {
		var raw []byte
		raw, err = term.ReadPassword(int(f.Fd()))
		pass = string(raw)
	} else {
		pass, err = reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	fmt.Fprintln(s.Out)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	creds := Credentials{Username: strings.TrimSpace(user), Password: strings.TrimSpace(pass)}
	if !creds.Complete() {
		return Credentials{}, fmt.Errorf("%w: empty username or password", ErrNoCredentials)
	}

	if s.Store != nil {
		if err := s.Store.Save(creds); err != nil {
			return Credentials{}, err
		}
	}
	return creds, nil
}

// Chain tries each source in order and returns the first complete credentials.
type Chain []Source

// Credentials implements Source.
func (c Chain) Credentials(ctx context.Context) (Credentials, error) {
	for _, src := range c {
		creds, err := src.Credentials(ctx)
		if err == nil {
			return creds, nil
		}
		if !errors.Is(err, ErrNoCredentials) {
			return Credentials{}, err
		}
	}
	return Credentials{}, ErrNoCredentials
}
