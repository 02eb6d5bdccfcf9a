// Package config loads ocslots settings from an optional YAML file, an
// optional .env file and the environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teemow/ocslots/internal/credentials"
	"github.com/teemow/ocslots/internal/oc"
)

const (
	// DefaultConfigFile is read from the working directory when no path is given.
	DefaultConfigFile = "ocslots.yaml"

	// DefaultEnvFile is loaded into the environment when present.
	DefaultEnvFile = ".env"
)

// Environment variables overriding the file settings.
const (
	EnvSiteURL          = "OC_SITE_URL"
	EnvAPIURL           = "OC_API_URL"
	EnvTimezone         = "OC_TIMEZONE"
	EnvTokenFile        = "OC_TOKEN_FILE"
	EnvCredentialsFile  = "OC_CREDENTIALS_FILE"
	EnvSaveToken        = "OC_SAVE_TOKEN"
	EnvGoogleCalendarID = "OC_GOOGLE_CALENDAR_ID"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogFormat        = "LOG_FORMAT"
)

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// GoogleConfig holds the calendar export settings.
type GoogleConfig struct {
	// CalendarID is the default target of events --google-calendar.
	CalendarID string `yaml:"calendar_id"`

	// TokenFile overrides the cached Google OAuth token location.
	TokenFile string `yaml:"token_file"`
}

// Config is the complete ocslots configuration.
type Config struct {
	SiteURL string `yaml:"site_url"`
	APIURL  string `yaml:"api_url"`

	// Timezone is the IANA zone slots are expressed in. Empty means the system zone.
	Timezone string `yaml:"timezone"`

	TokenFile       string `yaml:"token_file"`
	CredentialsFile string `yaml:"credentials_file"`

	// SaveToken writes a freshly obtained token to TokenFile.
	SaveToken bool `yaml:"save_token"`

	LoginDelay time.Duration `yaml:"login_delay"`
	Timeout    time.Duration `yaml:"timeout"`

	Log    LogConfig    `yaml:"log"`
	Google GoogleConfig `yaml:"google"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		SiteURL:         oc.DefaultSiteURL,
		APIURL:          oc.DefaultAPIURL,
		TokenFile:       credentials.DefaultTokenFile,
		CredentialsFile: credentials.DefaultCredentialsFile,
		SaveToken:       true,
		LoginDelay:      oc.DefaultLoginDelay,
		Timeout:         oc.DefaultTimeout,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. An explicit path must exist; without one
// DefaultConfigFile is used when present. DefaultEnvFile is loaded into the
// process environment first, without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the environment. A
// missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	stringVars := map[string]*string{
		EnvSiteURL:          &c.SiteURL,
		EnvAPIURL:           &c.APIURL,
		EnvTimezone:         &c.Timezone,
		EnvTokenFile:        &c.TokenFile,
		EnvCredentialsFile:  &c.CredentialsFile,
		EnvGoogleCalendarID: &c.Google.CalendarID,
		EnvLogLevel:         &c.Log.Level,
		EnvLogFormat:        &c.Log.Format,
	}
	for key, dst := range stringVars {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(EnvSaveToken); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSaveToken, v, err)
		}
		c.SaveToken = b
	}
	return nil
}

// Validate checks URLs, the time zone and the log settings.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"site_url": c.SiteURL, "api_url": c.APIURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an absolute URL", name, raw)
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.TokenFile == "" {
		return errors.New("token_file must not be empty")
	}
	if c.LoginDelay < 0 || c.Timeout < 0 {
		return errors.New("login_delay and timeout must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be one of: text, json", c.Log.Format)
	}
	return nil
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ClientConfig returns the session endpoints.
func (c *Config) ClientConfig() oc.Config {
	return oc.Config{
		SiteURL:   c.SiteURL,
		APIURL:    c.APIURL,
		SaveToken: c.SaveToken,
	}
}

// NewLogger builds a slog logger writing to w.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(c.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}
