package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/database"
	"github.com/jon4hz/subgen/internal/database/mongostore"
)

// openStore connects to the credential store selected in the configuration.
// Opening the store also runs migrations or creates indexes.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (database.CredentialStore, error) {
	switch cfg.Type {
	case config.DatabaseTypeSQLite:
		log.Debug("opening sqlite database", "path", cfg.Path)
		return database.New(cfg.Path)
	case config.DatabaseTypeMongo:
		log.Debug("connecting to mongo", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
		return mongostore.New(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown database type %q", cfg.Type)
	}
}
