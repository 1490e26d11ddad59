package cmd

import (
	"fmt"
	"os"
	"time"

	"treediff/feature/activation"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	sampleDay    string
	sampleStatus string
	sampleShape  activation.Shape
)

// sampleCmd writes a generated activation control snapshot.
var sampleCmd = &cobra.Command{
	Use:   "sample <file>",
	Short: "Write a generated activation control snapshot",
	Long: `Writes a deterministic activation control snapshot, useful to try the
diff command or to benchmark large graphs. Two samples of the same day and
shape are identical.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		day, err := time.Parse(time.DateOnly, sampleDay)
		if err != nil {
			return fmt.Errorf("invalid --day: %w", err)
		}

		ac := activation.Sample(day, sampleShape, activation.Status(sampleStatus))
		data, err := json.Marshal(ac)
		if err != nil {
			return fmt.Errorf("failed to encode sample: %w", err)
		}
		if err := os.WriteFile(args[0], data, 0o644); err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", args[0], len(data))
		return nil
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleDay, "day", time.Now().UTC().Format(time.DateOnly), "Delivery day (YYYY-MM-DD)")
	sampleCmd.Flags().StringVar(&sampleStatus, "status", string(activation.StatusCalculated), "Control status")
	sampleCmd.Flags().IntVar(&sampleShape.Details, "details", activation.FullDay.Details, "Quarter hours per control")
	sampleCmd.Flags().IntVar(&sampleShape.DpDetails, "delivery-points", activation.FullDay.DpDetails, "Delivery points per quarter hour")
	sampleCmd.Flags().IntVar(&sampleShape.Timestamps, "timestamps", activation.FullDay.Timestamps, "Measurements per quarter hour")

	RootCmd.AddCommand(sampleCmd)
}
