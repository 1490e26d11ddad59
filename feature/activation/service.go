package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"treediff/core/changelog"
	"treediff/core/config"
	"treediff/core/logger"
	"treediff/core/reconcile"
	"treediff/core/snapshot"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrChangelogDisabled is returned when no changelog store is configured.
	ErrChangelogDisabled = errors.New("changelog persistence is not configured")
	// ErrArchiveDisabled is returned when no archiver is configured.
	ErrArchiveDisabled = errors.New("archiving is not configured")
	// ErrSnapshotsDisabled is returned when no snapshot loader is configured.
	ErrSnapshotsDisabled = errors.New("snapshot loading is not configured")
)

// Dependencies are the optional backends of the service. Nil members disable
// the matching capability.
type Dependencies struct {
	Store    *changelog.Store
	Loader   *snapshot.Loader
	Archiver *snapshot.Archiver
}

// RunOptions tune a single run on top of the configured defaults.
type RunOptions struct {
	Equality            string `json:"equality,omitempty" validate:"omitempty,oneof=precompiled reflect"`
	RejectDuplicateKeys *bool  `json:"reject_duplicate_keys,omitempty"`
	// DryRun computes the diff without persisting or archiving it.
	DryRun bool `json:"dry_run,omitempty"`
}

// DiffRequest diffs one control.
type DiffRequest struct {
	RunOptions
	Existing   *ActivationControl `json:"existing"`
	Calculated *ActivationControl `json:"calculated"`
}

// DiffManyRequest diffs collections of controls matched by day and contract.
type DiffManyRequest struct {
	RunOptions
	Existing   []*ActivationControl `json:"existing"`
	Calculated []*ActivationControl `json:"calculated"`
}

// SnapshotRequest diffs two stored snapshots, given as file paths or
// s3://bucket/object references.
type SnapshotRequest struct {
	RunOptions
	Existing   string `json:"existing" validate:"required"`
	Calculated string `json:"calculated" validate:"required"`
}

// Report is the outcome of a run. M is the merged tree type.
type Report[M any] struct {
	RunID      string                `json:"run_id"`
	Changed    bool                  `json:"changed"`
	Summary    reconcile.PlanSummary `json:"summary"`
	Operations []reconcile.Operation `json:"operations"`
	Persisted  int                   `json:"persisted"`
	Archive    string                `json:"archive,omitempty"`
	Merged     M                     `json:"merged"`
}

// Service runs activation control diffs and records their outcome.
type Service struct {
	engine   *reconcile.Engine
	deps     Dependencies
	cfg      config.DiffConfig
	logger   *zap.Logger
	validate *validator.Validate

	newRunID func() string
	now      func() time.Time
}

// NewService creates a new activation service.
func NewService(engine *reconcile.Engine, deps Dependencies, cfg config.DiffConfig, logger *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		deps:     deps,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
		newRunID: uuid.NewString,
		now:      time.Now,
	}
}

func (s *Service) options(run RunOptions) (reconcile.DiffOptions, error) {
	if err := s.validate.Struct(run); err != nil {
		return reconcile.DiffOptions{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	cfg := s.cfg
	if run.Equality != "" {
		cfg.Equality = run.Equality
	}
	if run.RejectDuplicateKeys != nil {
		cfg.RejectDuplicateKeys = *run.RejectDuplicateKeys
	}
	return cfg.Options()
}

// Diff reconciles one existing control with its calculated counterpart.
func (s *Service) Diff(ctx context.Context, req DiffRequest) (*Report[*ActivationControl], error) {
	opts, err := s.options(req.RunOptions)
	if err != nil {
		return nil, err
	}

	result, err := reconcile.DiffOne(s.engine, req.Existing, req.Calculated, opts)
	if err != nil {
		return nil, err
	}

	report := &Report[*ActivationControl]{
		RunID:      s.newRunID(),
		Changed:    result.Changed(),
		Summary:    reconcile.Summarize(result.Operations),
		Operations: result.Operations,
		Merged:     result.Entity,
	}
	report.Persisted, report.Archive, err = s.record(ctx, report.RunID, req.DryRun, report.Changed, report.Summary, report.Operations, report.Merged)
	return report, err
}

// DiffMany reconciles collections of controls.
func (s *Service) DiffMany(ctx context.Context, req DiffManyRequest) (*Report[[]*ActivationControl], error) {
	opts, err := s.options(req.RunOptions)
	if err != nil {
		return nil, err
	}

	result, err := reconcile.DiffMany(s.engine, req.Existing, req.Calculated, opts)
	if err != nil {
		return nil, err
	}

	report := &Report[[]*ActivationControl]{
		RunID:      s.newRunID(),
		Changed:    result.Changed(),
		Summary:    reconcile.Summarize(result.Operations),
		Operations: result.Operations,
		Merged:     result.Entities,
	}
	report.Persisted, report.Archive, err = s.record(ctx, report.RunID, req.DryRun, report.Changed, report.Summary, report.Operations, report.Merged)
	return report, err
}

// DiffSnapshots loads both controls from snapshots and diffs them.
func (s *Service) DiffSnapshots(ctx context.Context, req SnapshotRequest) (*Report[*ActivationControl], error) {
	if s.deps.Loader == nil {
		return nil, ErrSnapshotsDisabled
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	existing, err := snapshot.LoadJSON[*ActivationControl](ctx, s.deps.Loader, req.Existing)
	if err != nil {
		return nil, err
	}
	calculated, err := snapshot.LoadJSON[*ActivationControl](ctx, s.deps.Loader, req.Calculated)
	if err != nil {
		return nil, err
	}

	return s.Diff(ctx, DiffRequest{RunOptions: req.RunOptions, Existing: existing, Calculated: calculated})
}

// record persists the operation log and archives the merged tree of a run.
// Returns the number of persisted operations and the archive object name.
func (s *Service) record(ctx context.Context, runID string, dryRun, changed bool, summary reconcile.PlanSummary, ops []reconcile.Operation, merged any) (int, string, error) {
	l := logger.WithRun(s.logger, runID, "ActivationControl")
	l.Info("Diff completed",
		zap.Bool("changed", changed),
		zap.Bool("dry_run", dryRun),
		zap.Int("inserts", summary.Inserts),
		zap.Int("updates", summary.Updates),
		zap.Int("deletes", summary.Deletes),
		zap.Int("field_changes", summary.FieldChanges))

	if dryRun || !changed {
		return 0, "", nil
	}

	persisted := 0
	if s.cfg.PersistChangelog && s.deps.Store != nil && len(ops) > 0 {
		n, err := reconcile.Apply(ctx, s.deps.Store.Writer(runID), ops)
		if err != nil {
			l.Error("Failed to persist changelog", zap.Error(err))
			return n, "", err
		}
		persisted = n
	}

	if !s.cfg.Archive || s.deps.Archiver == nil {
		return persisted, "", nil
	}

	name, err := s.deps.Archiver.Save(ctx, snapshot.Archive{
		RunID:      runID,
		Entity:     "ActivationControl",
		CreatedAt:  s.now().UTC(),
		Summary:    summary,
		Operations: ops,
	}, merged)
	if err != nil {
		l.Error("Failed to archive run", zap.Error(err))
		return persisted, "", err
	}
	return persisted, name, nil
}

// History returns persisted changelog entries.
func (s *Service) History(ctx context.Context, f changelog.Filter) ([]changelog.Entry, error) {
	if s.deps.Store == nil {
		return nil, ErrChangelogDisabled
	}
	if err := s.validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.deps.Store.List(ctx, f)
}

// Archives lists archived runs, newest first.
func (s *Service) Archives(ctx context.Context) ([]snapshot.ArchiveInfo, error) {
	if s.deps.Archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.deps.Archiver.List(ctx)
}

// Archive returns the archived outcome of a run.
func (s *Service) Archive(ctx context.Context, runID string) (*snapshot.Archive, error) {
	if s.deps.Archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.deps.Archiver.Get(ctx, runID)
}
