package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/shelf/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Library LibraryConfig     `yaml:"library"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Backup  BackupConfig      `yaml:"backup"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Backup.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
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

var extensionRe = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// LibraryConfig locates the record directories.
//
// Each store lives in a <kind> subdirectory of ExternalDir, the user-visible
// area. When that cannot be created the store falls back to PrivateDir.
// Covers always live under PrivateDir.
type LibraryConfig struct {
	ExternalDir string `yaml:"external_dir"`
	PrivateDir  string `yaml:"private_dir"`
	ExportDir   string `yaml:"export_dir"`
	Extension   string `yaml:"extension"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	if c.Extension == "" {
		c.Extension = storage.DefaultExt
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.PrivateDir, validation.Required),
		validation.Field(&c.Extension, validation.Match(extensionRe)),
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
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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

// BackupConfig schedules periodic exports. An empty Schedule disables them.
type BackupConfig struct {
	Schedule    string `yaml:"schedule"`
	Destination string `yaml:"destination"`
}

// Enabled reports whether scheduled backups are configured.
func (c *BackupConfig) Enabled() bool { return c.Schedule != "" }

// Validate validates the backup configuration.
func (c *BackupConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Destination, validation.When(c.Enabled(), validation.Required)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Library: LibraryConfig{
			ExternalDir: "./library",
			PrivateDir:  "./.shelf",
			ExportDir:   "./exports",
			Extension:   storage.DefaultExt,
		},
		SQLite: SQLiteConfig{
			Path: "./.shelf/index.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Backup: BackupConfig{
			Destination: "./backups",
		},
	}
}
