package testutil

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

type mockObject struct {
	data     []byte
	etag     string
	metadata map[string]string
}

// MockGateway is an in-memory tmx.StoreGateway for tests. It supports
// direct seeding of buckets and objects, counts storage calls, and can
// inject failures or block inside PutObject to exercise concurrency paths.
type MockGateway struct {
	mu      sync.Mutex
	buckets map[string]map[string]mockObject

	ListCalls   int
	StatCalls   int
	PutCalls    int
	RemoveCalls int

	// FailList and FailPut, when non-nil, are returned by the
	// corresponding call instead of performing it.
	FailList error
	FailPut  error

	// PutRelease, when non-nil, makes PutObject block until the channel
	// is closed. PutStarted, when also non-nil, is closed once the first
	// PutObject has entered the blocking section.
	PutRelease chan struct{}
	PutStarted chan struct{}

	startOnce sync.Once
}

// NewMockGateway creates an empty MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{buckets: make(map[string]map[string]mockObject)}
}

// AddBucket seeds an empty bucket.
func (g *MockGateway) AddBucket(bucket string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.buckets[bucket]; !ok {
		g.buckets[bucket] = make(map[string]mockObject)
	}
}

// AddObject seeds an object with the given content and metadata, creating
// the bucket if needed. The ETag is the quoted md5 of the content. Returns
// the ETag for use in assertions.
func (g *MockGateway) AddObject(bucket, key string, content []byte, metadata map[string]string) string {
	g.AddBucket(bucket)

	sum := md5.Sum(content)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.buckets[bucket][key] = mockObject{data: content, etag: etag, metadata: meta}
	return etag
}

// ObjectMetadata returns the stored metadata of an object, or nil when it
// does not exist.
func (g *MockGateway) ObjectMetadata(bucket, key string) map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	obj, ok := g.buckets[bucket][key]
	if !ok {
		return nil
	}
	return obj.metadata
}

// HasObject reports whether the object exists.
func (g *MockGateway) HasObject(bucket, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.buckets[bucket][key]
	return ok
}

func (g *MockGateway) BucketExists(_ context.Context, bucket string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.buckets[bucket]
	return ok, nil
}

func (g *MockGateway) MakeBucket(_ context.Context, bucket string) error {
	g.AddBucket(bucket)
	return nil
}

func (g *MockGateway) ListObjects(_ context.Context, bucket, prefix string, recursive bool) ([]tmx.ObjectInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ListCalls++

	if g.FailList != nil {
		return nil, g.FailList
	}
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

func (g *MockGateway) StatObject(_ context.Context, bucket, key string) (*tmx.ObjectStat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.StatCalls++

	obj, ok := g.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("object does not exist: %s/%s", bucket, key)
	}

	meta := make(map[string]string, len(obj.metadata))
	for k, v := range obj.metadata {
		meta[k] = v
	}
	return &tmx.ObjectStat{ETag: obj.etag, Size: int64(len(obj.data)), Metadata: meta}, nil
}

func (g *MockGateway) GetObject(_ context.Context, bucket, key, destPath string) error {
	g.mu.Lock()
	obj, ok := g.buckets[bucket][key]
	g.mu.Unlock()
	if !ok {
		return fmt.Errorf("object does not exist: %s/%s", bucket, key)
	}
	return os.WriteFile(destPath, obj.data, 0644)
}

func (g *MockGateway) PutObject(_ context.Context, bucket, key, srcPath string, metadata map[string]string) (string, error) {
	if g.PutRelease != nil {
		if g.PutStarted != nil {
			g.startOnce.Do(func() { close(g.PutStarted) })
		}
		<-g.PutRelease
	}

	g.mu.Lock()
	g.PutCalls++
	failPut := g.FailPut
	g.mu.Unlock()
	if failPut != nil {
		return "", failPut
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", srcPath, err)
	}
	return g.AddObject(bucket, key, data, metadata), nil
}

func (g *MockGateway) RemoveObject(_ context.Context, bucket, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.RemoveCalls++

	objects, ok := g.buckets[bucket]
	if !ok {
		return fmt.Errorf("bucket does not exist: %s", bucket)
	}
	delete(objects, key)
	return nil
}
