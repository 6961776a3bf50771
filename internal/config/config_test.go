package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"habitline/internal/backend"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kind() != backend.KindSQLite || cfg.Theme != "light" || cfg.HTTP.Addr == "" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "backend: webdav\nwebdav:\n  url: https://dav.example.com\n  username: alice\ntheme: dark\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("HABITLINE_WEBDAV_PASSWORD", "s3cret")
	t.Setenv("HABITLINE_DIR_PATH", "/backups")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kind() != backend.KindWebDAV || cfg.Theme != "dark" {
		t.Fatalf("cfg=%+v", cfg)
	}
	opts := cfg.BackendOptions()
	if opts.WebDAV.URL != "https://dav.example.com" || opts.WebDAV.Username != "alice" || opts.WebDAV.Password != "s3cret" {
		t.Fatalf("webdav=%+v", opts.WebDAV)
	}
	if opts.Dir != "/backups" {
		t.Fatalf("dir=%q, want /backups", opts.Dir)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backend: s3\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(viper.New(), path); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestFromYAMLRejectsBadTheme(t *testing.T) {
	if _, err := FromYAML([]byte("theme: neon\n")); err == nil {
		t.Fatalf("expected error for bad theme")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Backend = "dir"
	cfg.Dir.Path = "/tmp/backups"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "backend: dir") {
		t.Fatalf("yaml=%s", data)
	}
	got, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if got.Dir.Path != "/tmp/backups" || got.Kind() != backend.KindDir {
		t.Fatalf("got=%+v", got)
	}
}

func TestSyncRecorderOnlyTouchesSyncFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.WebDAV.URL = "https://dav.example.com"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	r := NewSyncRecorder(path)
	when := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if err := r.RecordSync(when); err != nil {
		t.Fatalf("RecordSync: %v", err)
	}
	if err := r.RecordRestore(when.Add(time.Hour)); err != nil {
		t.Fatalf("RecordRestore: %v", err)
	}

	data, _ := os.ReadFile(path)
	got, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if got.Sync.LastSyncTime != "2024-03-01T08:00:00.000Z" || got.Sync.LastRestoreTime != "2024-03-01T09:00:00.000Z" {
		t.Fatalf("sync=%+v", got.Sync)
	}
	if got.WebDAV.URL != "https://dav.example.com" {
		t.Fatalf("webdav url lost: %+v", got.WebDAV)
	}
}

func TestSyncRecorderCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := NewSyncRecorder(path).RecordSync(time.Now()); err != nil {
		t.Fatalf("RecordSync: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestSyncRecorderRecordTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	r := NewSyncRecorder(path)
	if err := r.RecordTheme("dark"); err != nil {
		t.Fatalf("RecordTheme: %v", err)
	}
	if err := r.RecordTheme("neon"); err == nil {
		t.Fatalf("expected error for unknown theme")
	}

	data, _ := os.ReadFile(path)
	got, err := FromYAML(data)
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if got.Theme != "dark" {
		t.Fatalf("theme=%q, want dark", got.Theme)
	}
}
