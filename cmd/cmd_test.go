package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"treediff/core/database"
	"treediff/core/reconcile"
	"treediff/core/storage/mocks"
	"treediff/feature/activation"
	"treediff/feature/integrity"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSampleAndDiffCommands(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.json")
	calculated := filepath.Join(dir, "calculated.json")
	report := filepath.Join(dir, "report.json")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_NAME", ":memory:")

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	t.Cleanup(func() { RootCmd.SetOut(nil); RootCmd.SetArgs(nil) })

	RootCmd.SetArgs([]string{"sample", existing, "--day", "2024-05-01", "--details", "2", "--delivery-points", "1", "--timestamps", "3", "--status", "validated"})
	require.NoError(t, RootCmd.Execute())
	RootCmd.SetArgs([]string{"sample", calculated, "--day", "2024-05-01", "--details", "3", "--delivery-points", "1", "--timestamps", "3", "--status", "calculated"})
	require.NoError(t, RootCmd.Execute())
	assert.Contains(t, out.String(), "wrote "+existing)

	RootCmd.SetArgs([]string{"diff", existing, calculated, "--dry-run", "--output", report})
	require.NoError(t, RootCmd.Execute())

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var got activation.Report[*activation.ActivationControl]
	require.NoError(t, json.Unmarshal(data, &got))

	// one quarter hour with 3 timestamps and 1 delivery point of 3 timestamps
	assert.Equal(t, 8, got.Summary.Inserts)
	assert.Equal(t, 0, got.Summary.Updates)
	assert.Equal(t, activation.StatusCalculated, got.Merged.Status)
	require.Len(t, got.Merged.Details, 1)
	assert.Equal(t, reconcile.PersistInsert, got.Merged.Details[0].PersistChange)
}

func TestSampleCommand_InvalidDay(t *testing.T) {
	RootCmd.SetArgs([]string{"sample", filepath.Join(t.TempDir(), "x.json"), "--day", "yesterday"})
	t.Cleanup(func() { RootCmd.SetArgs(nil) })
	assert.ErrorContains(t, RootCmd.Execute(), "invalid --day")
}

func TestPrintDiffReport(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ops := make([]reconcile.Operation, 7)
	for i := range ops {
		ops[i] = reconcile.Operation{Type: reconcile.OperationDelete, EntityName: "Detail"}
	}

	printDiffReport(zap.New(core), "run-1", reconcile.Summarize(ops), ops)

	assert.Equal(t, 1, logs.FilterMessage("Diff report").Len())
	assert.Equal(t, 5, logs.FilterMessage("Sample operation").Len())
	assert.Equal(t, int64(2), logs.FilterMessage("Additional operations not shown").All()[0].ContextMap()["count"])
}

func TestSchemaCheck(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	svc := integrity.NewService(new(mocks.Client), integrity.Target{Bucket: "diffs"}, db, zap.NewNop())

	core, logs := observer.New(zapcore.InfoLevel)
	l := zap.New(core)
	t.Cleanup(func() { fixFlag = false })

	fixFlag = false
	require.NoError(t, schemaCheck(context.Background(), svc, l))
	assert.Equal(t, 1, logs.FilterMessage("Table does not match model").Len())
	assert.Equal(t, 1, logs.FilterMessage("Run with --fix to migrate the changelog table").Len())

	fixFlag = true
	require.NoError(t, schemaCheck(context.Background(), svc, l))
	assert.Equal(t, 1, logs.FilterMessage("Changelog schema migrated").Len())

	require.NoError(t, schemaCheck(context.Background(), svc, l))
	assert.Equal(t, 1, logs.FilterMessage("Table matches model").Len())
}
