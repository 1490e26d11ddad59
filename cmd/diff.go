package cmd

import (
	"context"
	"fmt"
	"os"

	"treediff/core/logger"
	"treediff/core/reconcile"
	"treediff/feature/activation"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the diff command
	diffEquality   string
	diffDryRun     bool
	diffRejectDups bool
	diffOutput     string
)

// diffCmd diffs two activation control snapshots.
var diffCmd = &cobra.Command{
	Use:   "diff <existing> <calculated>",
	Short: "Diff two activation control snapshots",
	Long: `Diff an existing activation control snapshot against a calculated one.

Snapshots are JSON documents given as file paths or s3://bucket/object
references (s3:///object uses the configured bucket). The report is written
as JSON; the operation log is persisted to the changelog unless --dry-run.

Examples:
  # Report only
  diff existing.json calculated.json --dry-run

  # Reflective equality, strict keys, report to a file
  diff s3:///controls/existing.json s3:///controls/calculated.json \
    --equality reflect --reject-duplicates --output report.json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffEquality, "equality", "", "Equality mode (precompiled, reflect); defaults to DIFF_EQUALITY")
	diffCmd.Flags().BoolVar(&diffDryRun, "dry-run", false, "Compute the diff without persisting or archiving it")
	diffCmd.Flags().BoolVar(&diffRejectDups, "reject-duplicates", false, "Fail when a collection holds duplicate keys")
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "", "Write the JSON report to a file instead of stdout")

	RootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	b, err := buildDependencies(ctx, cfg, l, !diffDryRun)
	if err != nil {
		return err
	}

	feature, err := activation.NewFeature(b.deps, cfg.Diff, l)
	if err != nil {
		return fmt.Errorf("failed to configure activation feature: %w", err)
	}

	req := activation.SnapshotRequest{
		RunOptions: activation.RunOptions{Equality: diffEquality, DryRun: diffDryRun},
		Existing:   args[0],
		Calculated: args[1],
	}
	if cmd.Flags().Changed("reject-duplicates") {
		req.RejectDuplicateKeys = &diffRejectDups
	}

	report, err := feature.Service().DiffSnapshots(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to diff snapshots: %w", err)
	}

	printDiffReport(l, report.RunID, report.Summary, report.Operations)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if diffOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	}
	if err := os.WriteFile(diffOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	l.Info("Report written", zap.String("path", diffOutput))
	return nil
}

// printDiffReport logs the summary and a sample of the operation log.
func printDiffReport(l *zap.Logger, runID string, s reconcile.PlanSummary, ops []reconcile.Operation) {
	l.Info("Diff report",
		zap.String("run_id", runID),
		zap.Int("inserts", s.Inserts),
		zap.Int("updates", s.Updates),
		zap.Int("deletes", s.Deletes),
		zap.Int("field_changes", s.FieldChanges),
	)

	maxShow := min(5, len(ops))
	for _, op := range ops[:maxShow] {
		l.Info("Sample operation",
			zap.String("type", string(op.Type)),
			zap.String("entity", op.EntityName),
			zap.String("keys", op.KeyString()),
			zap.Int("changes", len(op.Changes)),
		)
	}
	if len(ops) > maxShow {
		l.Info("Additional operations not shown", zap.Int("count", len(ops)-maxShow))
	}
}
