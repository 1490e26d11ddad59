package cmd

import (
	"context"
	"fmt"

	"treediff/core/database"
	"treediff/core/logger"
	"treediff/core/storage"
	"treediff/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the storage bucket and the changelog schema",
	Long:  `Verifies that the snapshot bucket exists and that the changelog table carries every column. Use --fix to create or migrate what is missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, true)
	},
}

var storageCheckCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check the snapshot bucket and run archives",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), true, false)
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "schema",
	Short: "Check the changelog table schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), false, true)
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(storageCheckCmd)
	integrityCmd.AddCommand(schemaCheckCmd)
	integrityCmd.PersistentFlags().BoolVar(&fixFlag, "fix", false, "Create the bucket or migrate the changelog table when needed")
}

func runIntegrityChecks(ctx context.Context, checkStorage, checkSchema bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Sync()

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	// The schema check needs the table as it is, so no Prepare here.
	var db *gorm.DB
	if checkSchema {
		db, err = database.Connect(cfg.Database)
		if err != nil {
			return fmt.Errorf("database connection required: %w", err)
		}
	}

	svc := integrity.NewService(client, integrityTarget(cfg), db, logg)

	if checkStorage {
		if err := storageCheck(ctx, svc, logg); err != nil {
			return err
		}
	}
	if checkSchema {
		if err := schemaCheck(ctx, svc, logg); err != nil {
			return err
		}
	}
	return nil
}

func storageCheck(ctx context.Context, svc *integrity.Service, l *zap.Logger) error {
	report, err := svc.CheckStorage(ctx)
	if err != nil {
		return fmt.Errorf("storage check failed: %w", err)
	}

	if report.Exists {
		l.Info("Storage check passed",
			zap.String("bucket", report.Bucket),
			zap.String("prefix", report.Prefix),
			zap.Int("archives", report.Archives),
		)
		return nil
	}

	l.Warn("Bucket does not exist", zap.String("bucket", report.Bucket))
	if !fixFlag {
		l.Info("Run with --fix to create the bucket")
		return nil
	}
	if err := svc.FixStorage(ctx); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	l.Info("Bucket created", zap.String("bucket", report.Bucket))
	return nil
}

func schemaCheck(ctx context.Context, svc *integrity.Service, l *zap.Logger) error {
	report, err := svc.CheckSchema(ctx)
	if err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}

	for _, msg := range report.Errors {
		l.Warn("Schema inspection error", zap.String("error", msg))
	}
	for table, tbl := range report.Tables {
		if tbl.Status == "ok" {
			l.Info("Table matches model", zap.String("table", table))
			continue
		}
		l.Warn("Table does not match model",
			zap.String("table", table),
			zap.Strings("missing_columns", tbl.MissingColumns),
		)
	}

	if report.Matched {
		return nil
	}
	if !fixFlag {
		l.Info("Run with --fix to migrate the changelog table")
		return nil
	}
	if err := svc.FixSchema(ctx); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	l.Info("Changelog schema migrated")
	return nil
}
