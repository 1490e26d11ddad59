package changelog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"treediff/core/database"
	"treediff/core/reconcile"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
	batchSize    = 500
)

var expectedColumns = []string{
	"id", "run_id", "sequence", "change_type", "entity_name",
	"keys", "field_name", "old_value", "new_value", "created_at",
}

// Filter narrows a history query. Zero fields match everything.
type Filter struct {
	RunID      string `query:"run_id"`
	EntityName string `query:"entity"`
	ChangeType string `query:"type" validate:"omitempty,oneof=insert update delete"`
	Limit      int    `query:"limit" validate:"gte=0"`
}

// Store persists operation logs with GORM.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store over an open connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates or updates the changelog table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", TableName, err)
	}
	return nil
}

// Prepare makes sure the table exists with every column and returns the
// columns that had to be added.
func (s *Store) Prepare(ctx context.Context) ([]string, error) {
	db := s.db.WithContext(ctx)
	if !db.Migrator().HasTable(&Entry{}) {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return expectedColumns, nil
	}

	missing, err := database.MissingColumns(db, TableName, expectedColumns...)
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return nil, nil
	}
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return missing, nil
}

// Writer returns a sink recording operations under runID.
func (s *Store) Writer(runID string) *Writer {
	return &Writer{store: s, runID: runID}
}

// List returns entries matching the filter, newest run first and in log order
// within a run.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	q := s.db.WithContext(ctx).Model(&Entry{})
	if f.RunID != "" {
		q = q.Where("run_id = ?", f.RunID)
	}
	if f.EntityName != "" {
		q = q.Where("entity_name = ?", f.EntityName)
	}
	if f.ChangeType != "" {
		q = q.Where("change_type = ?", f.ChangeType)
	}

	var entries []Entry
	err := q.Order("created_at DESC").Order("sequence ASC").Order("field_name ASC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list changelog: %w", err)
	}
	return entries, nil
}

// Writer records the operations of one run. It implements reconcile.Sink
// and reconcile.BatchSink.
type Writer struct {
	store *Store
	runID string

	mu  sync.Mutex
	seq int
}

// RunID returns the run the writer records.
func (w *Writer) RunID() string {
	return w.runID
}

// Insert records an insert operation.
func (w *Writer) Insert(ctx context.Context, op reconcile.Operation) error {
	return w.write(ctx, []reconcile.Operation{op})
}

// Update records an update operation.
func (w *Writer) Update(ctx context.Context, op reconcile.Operation) error {
	return w.write(ctx, []reconcile.Operation{op})
}

// Delete records a delete operation.
func (w *Writer) Delete(ctx context.Context, op reconcile.Operation) error {
	return w.write(ctx, []reconcile.Operation{op})
}

// ApplyBatch records a whole operation log in one transaction.
func (w *Writer) ApplyBatch(ctx context.Context, ops []reconcile.Operation) error {
	return w.write(ctx, ops)
}

func (w *Writer) write(ctx context.Context, ops []reconcile.Operation) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	at := w.store.now().UTC()
	var rows []Entry
	for i, op := range ops {
		entries, err := entriesFor(w.runID, w.seq+i, op, uuid.NewString, at)
		if err != nil {
			return fmt.Errorf("failed to encode keys of %s %s: %w", op.EntityName, op.KeyString(), err)
		}
		rows = append(rows, entries...)
	}
	if len(rows) == 0 {
		return nil
	}

	err := w.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(rows, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}

	w.seq += len(ops)
	return nil
}
