package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"treediff/core/storage"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/singleflight"
)

// Source identifies a snapshot document: either a local file or an object.
type Source struct {
	Path   string
	Bucket string
	Object string
}

// ParseSource parses a snapshot reference. "s3://bucket/object" addresses an
// object, "s3:///object" an object in defaultBucket; anything else is a file path.
func ParseSource(ref, defaultBucket string) (Source, error) {
	if ref == "" {
		return Source{}, fmt.Errorf("empty snapshot reference")
	}
	rest, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return Source{Path: ref}, nil
	}

	bucket, object, _ := strings.Cut(rest, "/")
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" || object == "" {
		return Source{}, fmt.Errorf("invalid object reference %q", ref)
	}
	return Source{Bucket: bucket, Object: object}, nil
}

// String returns the canonical reference, used as cache key.
func (s Source) String() string {
	if s.Path != "" {
		return s.Path
	}
	return "s3://" + s.Bucket + "/" + s.Object
}

// cacheEntry holds the raw bytes of a loaded snapshot.
type cacheEntry struct {
	data   []byte
	loaded time.Time
}

// Loader reads snapshot documents and caches their raw bytes for a TTL.
// Concurrent loads of the same source are collapsed with singleflight.
type Loader struct {
	client        storage.Client
	defaultBucket string
	ttl           time.Duration

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	sf      singleflight.Group
	now     func() time.Time
}

// NewLoader creates a Loader. client may be nil when only local files are used.
// A zero ttl disables caching.
func NewLoader(client storage.Client, defaultBucket string, ttl time.Duration) *Loader {
	return &Loader{
		client:        client,
		defaultBucket: defaultBucket,
		ttl:           ttl,
		entries:       make(map[string]*cacheEntry),
		now:           time.Now,
	}
}

func (l *Loader) fresh(e *cacheEntry) bool {
	return l.ttl > 0 && l.now().Sub(e.loaded) <= l.ttl
}

// Load returns the raw bytes of the referenced snapshot.
func (l *Loader) Load(ctx context.Context, ref string) ([]byte, error) {
	src, err := ParseSource(ref, l.defaultBucket)
	if err != nil {
		return nil, err
	}
	key := src.String()

	// Fast path: fresh cache entry
	l.mu.RLock()
	entry, exists := l.entries[key]
	l.mu.RUnlock()
	if exists && l.fresh(entry) {
		return entry.data, nil
	}

	// Slow path: read once per key even under concurrent callers
	result, err, _ := l.sf.Do(key, func() (any, error) {
		l.mu.RLock()
		entry, exists := l.entries[key]
		l.mu.RUnlock()
		if exists && l.fresh(entry) {
			return entry.data, nil
		}

		data, err := l.read(ctx, src)
		if err != nil {
			return nil, err
		}

		if l.ttl > 0 {
			l.mu.Lock()
			l.entries[key] = &cacheEntry{data: data, loaded: l.now()}
			l.mu.Unlock()
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (l *Loader) read(ctx context.Context, src Source) ([]byte, error) {
	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot %s: %w", src.Path, err)
		}
		return data, nil
	}

	if l.client == nil {
		return nil, fmt.Errorf("snapshot %s: object storage not configured", src)
	}
	obj, err := l.client.GetObject(ctx, src.Bucket, src.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", src, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", src, err)
	}
	return data, nil
}

// Invalidate drops the cached bytes of ref.
func (l *Loader) Invalidate(ref string) {
	src, err := ParseSource(ref, l.defaultBucket)
	if err != nil {
		return
	}
	l.mu.Lock()
	delete(l.entries, src.String())
	l.mu.Unlock()
}

// LoadJSON loads ref and decodes it into a new T. Each call decodes a fresh
// value, so callers may mutate the result.
func LoadJSON[T any](ctx context.Context, l *Loader, ref string) (T, error) {
	var out T
	data, err := l.Load(ctx, ref)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse snapshot %s: %w", ref, err)
	}
	return out, nil
}
