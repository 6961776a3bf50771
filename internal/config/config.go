package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"habitline/internal/backend"
	"habitline/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. HABITLINE_WEBDAV_URL.
const EnvPrefix = "HABITLINE"

// Config models ~/.habitline/config.yaml.
type Config struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path,omitempty"`
	WebDAV  WebDAV `mapstructure:"webdav" yaml:"webdav"`
	Dir     Dir    `mapstructure:"dir" yaml:"dir"`
	Theme   string `mapstructure:"theme" yaml:"theme"`
	HTTP    HTTP   `mapstructure:"http" yaml:"http"`
	Sync    Sync   `mapstructure:"sync" yaml:"sync"`
}

type WebDAV struct {
	URL      string `mapstructure:"url" yaml:"url,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
}

type Dir struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

type HTTP struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Sync holds sync preferences and the timestamps of the last push and pull.
type Sync struct {
	Auto            bool   `mapstructure:"auto" yaml:"auto"`
	LastSyncTime    string `mapstructure:"last_sync_time" yaml:"last_sync_time,omitempty"`
	LastRestoreTime string `mapstructure:"last_restore_time" yaml:"last_restore_time,omitempty"`
}

func Default() *Config {
	return &Config{
		Backend: string(backend.KindSQLite),
		Theme:   domain.ThemeLight,
		HTTP:    HTTP{Addr: "127.0.0.1:8420"},
	}
}

// HomeDir returns ~/.habitline.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".habitline"), nil
}

func DefaultPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// SetDefaults registers every key so environment overrides apply on Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("backend", d.Backend)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("webdav.url", "")
	v.SetDefault("webdav.username", "")
	v.SetDefault("webdav.password", "")
	v.SetDefault("dir.path", "")
	v.SetDefault("theme", d.Theme)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("sync.auto", false)
	v.SetDefault("sync.last_sync_time", "")
	v.SetDefault("sync.last_restore_time", "")
}

// Load merges defaults, the YAML file at path (when it exists), HABITLINE_*
// environment variables and whatever flags the caller bound on v.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, fs.ErrNotExist)
}

func (c *Config) Validate() error {
	if _, err := backend.ParseKind(c.Backend); err != nil {
		return domain.ValidationError{Field: "backend", Reason: err.Error()}
	}
	switch c.Theme {
	case "", domain.ThemeLight, domain.ThemeDark:
	default:
		return domain.ValidationError{Field: "theme", Reason: fmt.Sprintf("must be light or dark, got %q", c.Theme)}
	}
	return nil
}

func (c *Config) Kind() backend.Kind {
	k, _ := backend.ParseKind(c.Backend)
	return k
}

// BackendOptions maps the config onto backend.Open options.
func (c *Config) BackendOptions() backend.Options {
	return backend.Options{
		DBPath: c.DBPath,
		WebDAV: backend.WebDAVConfig{
			URL:      c.WebDAV.URL,
			Username: c.WebDAV.Username,
			Password: c.WebDAV.Password,
		},
		Dir: c.Dir.Path,
	}
}

// FromYAML decodes and validates config bytes.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ToYAML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes cfg to path with owner-only permissions, creating the parent
// directory.
func Save(path string, cfg *Config) error {
	data, err := ToYAML(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// SyncRecorder stores the last push/pull time in the config file. Only the
// sync fields are rewritten; env and flag overrides never reach the file.
type SyncRecorder struct {
	Path string

	mu sync.Mutex
}

func NewSyncRecorder(path string) *SyncRecorder {
	return &SyncRecorder{Path: path}
}

func (r *SyncRecorder) RecordSync(t time.Time) error {
	return r.update(func(s *Sync) { s.LastSyncTime = domain.FormatTimestamp(t) })
}

func (r *SyncRecorder) RecordRestore(t time.Time) error {
	return r.update(func(s *Sync) { s.LastRestoreTime = domain.FormatTimestamp(t) })
}

// RecordTheme stores a theme restored from a sync document.
func (r *SyncRecorder) RecordTheme(theme string) error {
	if theme != domain.ThemeLight && theme != domain.ThemeDark {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return r.rewrite(func(cfg *Config) { cfg.Theme = theme })
}

func (r *SyncRecorder) update(fn func(*Sync)) error {
	return r.rewrite(func(cfg *Config) { fn(&cfg.Sync) })
}

func (r *SyncRecorder) rewrite(fn func(*Config)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, err := readFile(r.Path)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	fn(cfg)
	return Save(r.Path, cfg)
}
