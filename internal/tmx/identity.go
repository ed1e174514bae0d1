package tmx

import (
	"context"
	"fmt"
	"strings"
)

// NormalizeTag canonicalizes a content fingerprint for comparison.
// Backends disagree on formatting: some quote the ETag, some upper-case
// hex digits, so comparisons strip surrounding quotes and lower-case.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(tag), `"`))
}

// IdentityResolver discovers whether a content fingerprint already exists
// in a bucket and where. The ground truth is a full recursive listing,
// O(objects in bucket), with the catalog's identity cache layered on top
// to skip the scan when possible.
type IdentityResolver struct {
	gw      StoreGateway
	catalog Catalog
	logger  Logger
}

// NewIdentityResolver creates a resolver. catalog may be nil, in which
// case every lookup scans.
func NewIdentityResolver(gw StoreGateway, catalog Catalog, logger Logger) *IdentityResolver {
	return &IdentityResolver{gw: gw, catalog: catalog, logger: logger}
}

// FindByIdentity returns the key of the object whose fingerprint matches
// tag. An empty tag short-circuits to absent without touching storage or
// cache. A storage failure reports absent plus the error: callers proceed
// as if the identity were new, but must not cache the outcome.
func (r *IdentityResolver) FindByIdentity(ctx context.Context, bucket, tag string) (key string, found bool, err error) {
	want := NormalizeTag(tag)
	if want == "" {
		return "", false, nil
	}

	if r.catalog != nil {
		cached, ok, err := r.catalog.LookupIdentity(bucket, want)
		if err != nil {
			r.logger.Warn("identity cache lookup failed", "bucket", bucket, "error", err)
		} else if ok {
			r.logger.Debug("identity resolved from cache", "bucket", bucket, "key", cached)
			return cached, true, nil
		}
	}

	return r.Scan(ctx, bucket, want)
}

// Scan walks the whole bucket looking for tag, bypassing the cache. The
// first match wins and is recorded back into the cache.
func (r *IdentityResolver) Scan(ctx context.Context, bucket, tag string) (key string, found bool, err error) {
	want := NormalizeTag(tag)
	if want == "" {
		return "", false, nil
	}

	objects, err := r.gw.ListObjects(ctx, bucket, "", true)
	if err != nil {
		r.logger.Error("identity scan failed", "bucket", bucket, "error", err)
		return "", false, fmt.Errorf("scanning bucket %s: %w", bucket, err)
	}

	for _, obj := range objects {
		if NormalizeTag(obj.ETag) != want {
			continue
		}
		if r.catalog != nil {
			if err := r.catalog.SaveIdentity(bucket, want, obj.Key); err != nil {
				r.logger.Warn("caching identity failed", "bucket", bucket, "error", err)
			}
		}
		return obj.Key, true, nil
	}

	return "", false, nil
}
