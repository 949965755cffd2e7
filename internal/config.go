package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var classNameRe = regexp.MustCompile(`^[A-Za-z_-][A-Za-z0-9_-]*$`)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Highlight HighlightConfig   `yaml:"highlight"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Highlight.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// Overlap policies.
const (
	OverlapFirst = "first"
	OverlapAll   = "all"
)

// HighlightConfig controls how unlinked references are marked.
//
// Overlap selects what happens when two matches overlap: "first" keeps the
// earlier one, "all" keeps both. NudgeDelay, when positive, sends a
// view.nudge event that long after each new decoration set.
type HighlightConfig struct {
	ClassName       string        `yaml:"class_name"`
	Overlap         string        `yaml:"overlap"`
	NudgeDelay      time.Duration `yaml:"nudge_delay"`
	CatalogThrottle time.Duration `yaml:"catalog_throttle"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"`
}

// Validate validates the highlight configuration.
func (c *HighlightConfig) Validate() error {
	if c.Overlap == "" {
		c.Overlap = OverlapFirst
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.ClassName, validation.Required, validation.Match(classNameRe)),
		validation.Field(&c.Overlap, validation.In(OverlapFirst, OverlapAll)),
		validation.Field(&c.NudgeDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.CatalogThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.WatchDebounce, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./tether.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Highlight: HighlightConfig{
			ClassName:       "tether-unlinked",
			Overlap:         OverlapFirst,
			NudgeDelay:      100 * time.Millisecond,
			CatalogThrottle: 2 * time.Second,
			WatchDebounce:   200 * time.Millisecond,
		},
	}
}
