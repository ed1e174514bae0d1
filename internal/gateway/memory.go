package gateway

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"tmx-go/internal/tmx"
)

type memObject struct {
	data     []byte
	etag     string
	metadata map[string]string
}

// MemoryGateway is an in-memory StoreGateway for testing.
// ETags are md5 hex digests of the content, matching single-part S3
// uploads, and are returned quoted the way S3 formats them.
type MemoryGateway struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memObject
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{buckets: make(map[string]map[string]memObject)}
}

func (g *MemoryGateway) BucketExists(_ context.Context, bucket string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.buckets[bucket]
	return ok, nil
}

func (g *MemoryGateway) MakeBucket(_ context.Context, bucket string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.buckets[bucket]; !ok {
		g.buckets[bucket] = make(map[string]memObject)
	}
	return nil
}

func (g *MemoryGateway) ListObjects(_ context.Context, bucket, prefix string, recursive bool) ([]tmx.ObjectInfo, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	objects, ok := g.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("bucket does not exist: %s", bucket)
	}

	var infos []tmx.ObjectInfo
	folders := make(map[string]struct{})

	for key, obj := range objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if recursive {
			infos = append(infos, tmx.ObjectInfo{Key: key, ETag: obj.etag, Size: int64(len(obj.data))})
			continue
		}
		rest := key[len(prefix):]
		if idx := strings.Index(rest, tmx.KeySeparator); idx >= 0 {
			// Deeper object: surface its first-level folder once.
			folders[prefix+rest[:idx+1]] = struct{}{}
			continue
		}
		infos = append(infos, tmx.ObjectInfo{Key: key, ETag: obj.etag, Size: int64(len(obj.data))})
	}

	for folder := range folders {
		infos = append(infos, tmx.ObjectInfo{Key: folder})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (g *MemoryGateway) StatObject(_ context.Context, bucket, key string) (*tmx.ObjectStat, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	objects, ok := g.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("bucket does not exist: %s", bucket)
	}
	obj, ok := objects[key]
	if !ok {
		return nil, fmt.Errorf("object does not exist: %s/%s", bucket, key)
	}

	meta := make(map[string]string, len(obj.metadata))
	for k, v := range obj.metadata {
		meta[k] = v
	}
	return &tmx.ObjectStat{ETag: obj.etag, Size: int64(len(obj.data)), Metadata: meta}, nil
}

func (g *MemoryGateway) GetObject(_ context.Context, bucket, key, destPath string) error {
	g.mu.RLock()
	objects, ok := g.buckets[bucket]
	if !ok {
		g.mu.RUnlock()
		return fmt.Errorf("bucket does not exist: %s", bucket)
	}
	obj, ok := objects[key]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("object does not exist: %s/%s", bucket, key)
	}

	if err := os.WriteFile(destPath, obj.data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}

func (g *MemoryGateway) PutObject(_ context.Context, bucket, key, srcPath string, metadata map[string]string) (string, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", srcPath, err)
	}

	sum := md5.Sum(data)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	objects, ok := g.buckets[bucket]
	if !ok {
		return "", fmt.Errorf("bucket does not exist: %s", bucket)
	}
	objects[key] = memObject{data: data, etag: etag, metadata: meta}
	return etag, nil
}

func (g *MemoryGateway) RemoveObject(_ context.Context, bucket, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	objects, ok := g.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket does not exist: %s", bucket)
	}
	delete(objects, key)
	return nil
}
