// Package storage wraps the MinIO Go client behind a small Client interface.
//
// Snapshots are read from and diff archives written to an S3-compatible
// bucket. The interface keeps storage mockable in unit tests (see
// core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
