package checks

import (
	"context"
	"fmt"
	"strings"

	"treediff/core/storage"

	"github.com/minio/minio-go/v7"
)

// StorageReport is the result of a storage check.
type StorageReport struct {
	Bucket   string `json:"bucket"`
	Exists   bool   `json:"exists"`
	Prefix   string `json:"prefix,omitempty"`
	Archives int    `json:"archives"`
	Status   string `json:"status"` // "ok", "missing"
}

// CheckStorage verifies the bucket exists and counts the run archives under prefix.
// An empty prefix skips the count.
func CheckStorage(ctx context.Context, client storage.Client, bucket, prefix string) (*StorageReport, error) {
	report := &StorageReport{Bucket: bucket, Prefix: prefix, Status: "missing"}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return report, nil
	}
	report.Exists = true
	report.Status = "ok"

	if prefix == "" {
		return report, nil
	}

	opts := minio.ListObjectsOptions{
		Prefix:    strings.TrimSuffix(prefix, "/") + "/",
		Recursive: true,
	}
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archives: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, ".json") {
			report.Archives++
		}
	}
	return report, nil
}

// FixStorage creates the bucket when it is missing.
func FixStorage(ctx context.Context, client storage.Client, bucket, region string) error {
	return storage.EnsureBucket(ctx, client, bucket, region)
}
