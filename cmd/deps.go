package cmd

import (
	"context"
	"fmt"

	"treediff/core/changelog"
	"treediff/core/config"
	"treediff/core/database"
	"treediff/core/snapshot"
	"treediff/core/storage"
	"treediff/feature/activation"
	"treediff/feature/integrity"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// backends holds the connections shared by the features.
type backends struct {
	client storage.Client
	db     *gorm.DB
	deps   activation.Dependencies
}

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func integrityTarget(cfg *config.Config) integrity.Target {
	target := integrity.Target{Bucket: cfg.Storage.Bucket, Region: cfg.Storage.Region}
	if cfg.Diff.Archive {
		target.ArchivePrefix = cfg.Diff.ArchivePrefix
	}
	return target
}

// buildDependencies wires the optional backends. A failing database only
// disables the changelog; storage clients connect lazily.
func buildDependencies(ctx context.Context, cfg *config.Config, l *zap.Logger, withChangelog bool) (*backends, error) {
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	b := &backends{client: client}
	b.deps.Loader = snapshot.NewLoader(client, cfg.Storage.Bucket, cfg.Diff.CacheTTL())
	if cfg.Diff.Archive {
		b.deps.Archiver = snapshot.NewArchiver(client, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Diff.ArchivePrefix)
	}

	if !withChangelog || !cfg.Diff.PersistChangelog {
		return b, nil
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		l.Warn("Changelog database unavailable, persistence disabled", zap.Error(err))
		return b, nil
	}
	b.db = db

	store := changelog.NewStore(db)
	added, err := store.Prepare(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare changelog table: %w", err)
	}
	if len(added) > 0 {
		l.Info("Changelog table updated", zap.Strings("columns", added))
	}
	b.deps.Store = store
	l.Info("Connected to changelog database", zap.String("driver", cfg.Database.Driver))
	return b, nil
}
