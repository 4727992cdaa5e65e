package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("default db path is empty")
	}
	if cfg.DefaultFilter != "all" {
		t.Errorf("default filter %q, want all", cfg.DefaultFilter)
	}
	if cfg.Keys.Add != "a" || cfg.Keys.AddSubtask != "s" || cfg.Keys.Quit != "q" {
		t.Errorf("unexpected default keymap: %+v", cfg.Keys)
	}
}

func TestLoadOrCreateReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `db_path = "custom.db"
default_filter = "pending"

[keys]
quit = "x"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DBPath != "custom.db" {
		t.Errorf("db path %q, want custom.db", cfg.DBPath)
	}
	if cfg.DefaultFilter != "pending" {
		t.Errorf("filter %q, want pending", cfg.DefaultFilter)
	}
	if cfg.Keys.Quit != "x" {
		t.Errorf("quit key %q, want x", cfg.Keys.Quit)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Keys.Add != "a" {
		t.Errorf("add key %q, want default a", cfg.Keys.Add)
	}
}

func TestLoadOrCreateFillsEmptyDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("db_path = \"\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("empty db path not replaced with default")
	}
}

func TestLoadOrCreateRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("db_path = [broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadOrCreate(path); err == nil {
		t.Fatal("want parse error")
	}
}
