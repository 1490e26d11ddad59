package integrity

import (
	"context"

	"treediff/core/changelog"
	"treediff/core/storage"
	"treediff/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Target names the storage locations the checks verify.
type Target struct {
	Bucket        string
	Region        string
	ArchivePrefix string
}

// Service handles integrity checks.
type Service struct {
	client storage.Client
	target Target
	db     *gorm.DB
	models []any
	logger *zap.Logger
}

// NewService creates a new integrity service. db may be nil when no
// changelog database is configured.
func NewService(client storage.Client, target Target, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		target: target,
		db:     db,
		models: []any{&changelog.Entry{}},
		logger: logger,
	}
}

// CheckStorage reports on the bucket and its run archives.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	return checks.CheckStorage(ctx, s.client, s.target.Bucket, s.target.ArchivePrefix)
}

// FixStorage creates the bucket when missing.
func (s *Service) FixStorage(ctx context.Context) error {
	return checks.FixStorage(ctx, s.client, s.target.Bucket, s.target.Region)
}

// CheckSchema compares the changelog tables with their models.
func (s *Service) CheckSchema(ctx context.Context) (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.withContext(ctx), s.models...)
}

// FixSchema migrates the changelog tables.
func (s *Service) FixSchema(ctx context.Context) error {
	return checks.FixSchema(s.withContext(ctx), s.models...)
}

func (s *Service) withContext(ctx context.Context) *gorm.DB {
	if s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx)
}
