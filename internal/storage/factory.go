package storage

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/poseidonvest/globe/internal/config"
	"github.com/poseidonvest/globe/internal/database"
	"github.com/poseidonvest/globe/internal/storage/gormstore"
	"github.com/poseidonvest/globe/internal/storage/memory"
)

// NewBackend opens the backend named by cfg.Type: "memory", "sqlite" or
// "postgres". The SQL backends are not migrated until Init.
func NewBackend(cfg config.StorageConfig, db config.DatabaseConfig, log zerolog.Logger) (Backend, error) {
	if cfg.Type == "memory" {
		return memory.New(cfg.Memory), nil
	}

	mgr := database.NewManager(log)
	mgr.DumpPath = cfg.SQLite.DumpPath

	var err error
	switch cfg.Type {
	case "sqlite":
		err = mgr.UseSQLite(cfg.SQLite.Path)
	case "postgres":
		err = mgr.Connect(db)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return gormstore.New(mgr), nil
}
