package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasktree.db"

	appDirName = "tasktree"
)

type Keymap struct {
	Quit       string `toml:"quit"`
	Add        string `toml:"add"`
	AddSubtask string `toml:"add_subtask"`
	Edit       string `toml:"edit"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Toggle     string `toml:"toggle"`
	Expand     string `toml:"expand"`
	Delete     string `toml:"delete"`
	DeleteAll  string `toml:"delete_all"`
	Search     string `toml:"search"`
	Filter     string `toml:"filter"`
	Theme      string `toml:"theme"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
}

type Config struct {
	DBPath        string `toml:"db_path"`
	DefaultFilter string `toml:"default_filter"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath prefers the user config dir, falling back to a
// file in the working directory when that dir is unavailable.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultDBName
	}
	return filepath.Join(dir, appDirName, DefaultDBName)
}

func defaultConfig() Config {
	return Config{
		DBPath:        defaultDBPath(),
		DefaultFilter: "all",
		Keys: Keymap{
			Quit:       "q",
			Add:        "a",
			AddSubtask: "s",
			Edit:       "e",
			Up:         "k",
			Down:       "j",
			Toggle:     " ",
			Expand:     "tab",
			Delete:     "d",
			DeleteAll:  "D",
			Search:     "/",
			Filter:     "f",
			Theme:      "t",
			Confirm:    "enter",
			Cancel:     "esc",
		},
	}
}
