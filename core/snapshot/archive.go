package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"treediff/core/reconcile"
	"treediff/core/storage"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
)

// Archive is the document stored for every diff run.
type Archive struct {
	RunID      string                `json:"run_id"`
	Entity     string                `json:"entity"`
	CreatedAt  time.Time             `json:"created_at"`
	Summary    reconcile.PlanSummary `json:"summary"`
	Operations []reconcile.Operation `json:"operations"`
	Merged     json.RawMessage       `json:"merged"`
}

// ArchiveInfo describes a stored archive without loading it.
type ArchiveInfo struct {
	RunID        string    `json:"run_id"`
	Object       string    `json:"object"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Archiver stores diff results as JSON objects under bucket/prefix/<run-id>.json.
type Archiver struct {
	client storage.Client
	bucket string
	region string
	prefix string
}

// NewArchiver creates an Archiver.
func NewArchiver(client storage.Client, bucket, region, prefix string) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		region: region,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (a *Archiver) objectName(runID string) string {
	return path.Join(a.prefix, runID+".json")
}

// Save marshals merged into the archive and uploads it. Returns the object name.
func (a *Archiver) Save(ctx context.Context, archive Archive, merged any) (string, error) {
	if archive.RunID == "" {
		return "", fmt.Errorf("archive run id is required")
	}
	if merged != nil {
		raw, err := json.Marshal(merged)
		if err != nil {
			return "", fmt.Errorf("failed to marshal merged tree: %w", err)
		}
		archive.Merged = raw
	}

	body, err := json.Marshal(archive)
	if err != nil {
		return "", fmt.Errorf("failed to marshal archive: %w", err)
	}

	if err := storage.EnsureBucket(ctx, a.client, a.bucket, a.region); err != nil {
		return "", err
	}

	name := a.objectName(archive.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive %s: %w", name, err)
	}
	return name, nil
}

// Get downloads and decodes the archive of a run.
func (a *Archiver) Get(ctx context.Context, runID string) (*Archive, error) {
	name := a.objectName(runID)
	obj, err := a.client.GetObject(ctx, a.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get archive %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", name, err)
	}

	var archive Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return nil, fmt.Errorf("failed to parse archive %s: %w", name, err)
	}
	return &archive, nil
}

// List returns the stored archives, newest first.
func (a *Archiver) List(ctx context.Context) ([]ArchiveInfo, error) {
	prefix := a.prefix
	if prefix != "" {
		prefix += "/"
	}

	var infos []ArchiveInfo
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archives: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		infos = append(infos, ArchiveInfo{
			RunID:        strings.TrimSuffix(path.Base(obj.Key), ".json"),
			Object:       obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastModified.After(infos[j].LastModified)
	})
	return infos, nil
}

// Delete removes the archive of a run.
func (a *Archiver) Delete(ctx context.Context, runID string) error {
	name := a.objectName(runID)
	if err := a.client.RemoveObject(ctx, a.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete archive %s: %w", name, err)
	}
	return nil
}
