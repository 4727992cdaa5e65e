package main

import (
	"fmt"
	"os"

	"tasktree/internal/config"
	"tasktree/internal/storage"
	"tasktree/internal/ui"
)

func main() {
	configPath := config.ResolveConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := ui.Run(db, cfg); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
