package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/zettpub/internal/page"
	"github.com/starford/zettpub/internal/parser"
	"github.com/starford/zettpub/internal/reconcile"
	"github.com/starford/zettpub/internal/watch"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// DefaultSubpath is the pages directory inside the destination repository.
const DefaultSubpath = "z"

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Source  SourceConfig      `yaml:"source"`
	Repo    RepoConfig        `yaml:"repo"`
	Pages   PagesConfig       `yaml:"pages"`
	History HistoryConfig     `yaml:"history"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	if err := c.Repo.Validate(); err != nil {
		return err
	}
	if err := c.Pages.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level    `yaml:"log_level"`
	HTTP     HTTPConfig    `yaml:"http"`
	Debounce time.Duration `yaml:"watch_debounce"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds the status API configuration. Port 0 disables it.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Enabled reports whether the status API should be served.
func (c *HTTPConfig) Enabled() bool {
	return c.Port > 0
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
}

// SourceConfig points at the note directory.
type SourceConfig struct {
	Path      string `yaml:"path"`
	Extension string `yaml:"extension"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extension, validation.Required, validation.By(dotExtension)),
	)
}

// RepoConfig describes the destination git repository.
type RepoConfig struct {
	Path   string `yaml:"path"`
	Remote string `yaml:"remote"`
	Branch string `yaml:"branch"`
	Push   bool   `yaml:"push"`
}

// Validate validates the repository configuration.
func (c *RepoConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	if c.Branch != "" && c.Remote == "" {
		return fmt.Errorf("repo: branch %q needs a remote", c.Branch)
	}
	return nil
}

// PagesConfig controls what gets published and how pages look.
type PagesConfig struct {
	Subpath    string `yaml:"subpath"`
	Tag        string `yaml:"tag"`
	Layout     string `yaml:"layout"`
	Exclude    bool   `yaml:"exclude"`
	IgnoreFile string `yaml:"ignore_file"`
}

// Validate validates the pages configuration. The tag must pass the marker
// self-test.
func (c *PagesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Subpath, validation.Required, validation.By(relativeSubpath)),
		validation.Field(&c.Tag, validation.Required, validation.By(markerTag)),
		validation.Field(&c.Layout, validation.Required),
		validation.Field(&c.IgnoreFile, validation.Required),
	)
}

// Dir returns the pages directory for the repository root.
func (c *PagesConfig) Dir(repoRoot string) string {
	return filepath.Join(repoRoot, c.Subpath)
}

// HistoryConfig locates the publish history database. An empty path
// disables history.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether runs are recorded.
func (c *HistoryConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds status API authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
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

func dotExtension(v any) error {
	s, _ := v.(string)
	if s != "" && (!strings.HasPrefix(s, ".") || strings.ContainsAny(s, `/\`)) {
		return errors.New("must look like .md")
	}
	return nil
}

func relativeSubpath(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	clean := filepath.Clean(s)
	if filepath.IsAbs(clean) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return errors.New("must be a directory inside the repository")
	}
	return nil
}

func markerTag(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	_, err := parser.NewMarker(s)
	return err
}

// NewDefaultConfig returns a new Config with sensible default values.
// Source and repository paths have no default.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Debounce: watch.DefaultDebounce,
		},
		Source: SourceConfig{
			Extension: reconcile.DefaultNoteExt,
		},
		Repo: RepoConfig{
			Push: true,
		},
		Pages: PagesConfig{
			Subpath:    DefaultSubpath,
			Tag:        parser.DefaultTag,
			Layout:     page.DefaultLayout,
			IgnoreFile: reconcile.DefaultIgnoreFile,
		},
		History: HistoryConfig{
			Path: "./zettpub.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
