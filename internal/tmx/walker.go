package tmx

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// NamespaceWalker materializes the virtual folder tree over a flat key
// namespace. Children are computed from a one-level listing and cached per
// (bucket, prefix); the cache is invalidated explicitly after any upload or
// delete rather than being left to go stale mid-session.
type NamespaceWalker struct {
	gw     StoreGateway
	logger Logger

	mu    sync.Mutex
	cache map[string][]string // "<bucket>\x00<prefix>" -> prettified children
}

// NewNamespaceWalker creates a walker over the given gateway.
func NewNamespaceWalker(gw StoreGateway, logger Logger) *NamespaceWalker {
	return &NamespaceWalker{
		gw:     gw,
		logger: logger,
		cache:  make(map[string][]string),
	}
}

// ListChildren returns the distinct, sorted, prettified first-level folder
// labels under prefix. An absent bucket yields an empty result with no
// error. A storage failure yields an empty result AND a non-nil error:
// callers must check the error to tell "truly empty" from "listing failed"
// and must never cache or act on the empty result alone.
func (w *NamespaceWalker) ListChildren(ctx context.Context, bucket, prefix string) ([]string, error) {
	base := normalizePrefix(prefix)
	cacheKey := bucket + "\x00" + base

	w.mu.Lock()
	if children, ok := w.cache[cacheKey]; ok {
		w.mu.Unlock()
		return children, nil
	}
	w.mu.Unlock()

	exists, err := w.gw.BucketExists(ctx, bucket)
	if err != nil {
		w.logger.Error("checking bucket", "bucket", bucket, "error", err)
		return nil, fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if !exists {
		return nil, nil
	}

	objects, err := w.gw.ListObjects(ctx, bucket, base, false)
	if err != nil {
		w.logger.Error("listing children", "bucket", bucket, "prefix", base, "error", err)
		return nil, fmt.Errorf("listing %s/%s: %w", bucket, base, err)
	}

	seen := make(map[string]struct{})
	for _, obj := range objects {
		rest := strings.TrimPrefix(obj.Key, base)
		if !strings.Contains(rest, KeySeparator) {
			continue // plain file at this level
		}
		folder, _, _ := strings.Cut(rest, KeySeparator)
		if folder != "" {
			seen[folder] = struct{}{}
		}
	}

	children := make([]string, 0, len(seen))
	for slug := range seen {
		children = append(children, Prettify(slug))
	}
	sort.Strings(children)

	w.mu.Lock()
	w.cache[cacheKey] = children
	w.mu.Unlock()

	return children, nil
}

// Invalidate drops all cached listings for a bucket. Called after every
// successful upload or delete into that bucket.
func (w *NamespaceWalker) Invalidate(bucket string) {
	marker := bucket + "\x00"
	w.mu.Lock()
	for key := range w.cache {
		if strings.HasPrefix(key, marker) {
			delete(w.cache, key)
		}
	}
	w.mu.Unlock()
}

// normalizePrefix slugs each segment of a folder prefix and guarantees a
// single trailing separator on non-empty prefixes. Callers can pass either
// display labels or storage segments; both resolve to the same listing.
func normalizePrefix(prefix string) string {
	base := strings.Trim(prefix, KeySeparator)
	if base == "" {
		return ""
	}
	segments := strings.Split(base, KeySeparator)
	for i, seg := range segments {
		segments[i] = Slug(seg)
	}
	return strings.Join(segments, KeySeparator) + KeySeparator
}
