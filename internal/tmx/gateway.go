package tmx

import "context"

// ObjectInfo describes one stored object as seen in a listing.
type ObjectInfo struct {
	Key  string
	ETag string // storage-assigned content fingerprint, format varies by backend
	Size int64
}

// ObjectStat describes one stored object as seen by a stat call, including
// its user metadata record.
type ObjectStat struct {
	ETag     string
	Size     int64
	Metadata map[string]string
}

// StoreGateway is the object storage contract the reconciliation engine
// consumes. Implementations wrap a concrete client (S3/MinIO, in-memory);
// all calls block for their duration and impose no retries of their own.
type StoreGateway interface {
	// BucketExists reports whether the named bucket exists.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// MakeBucket creates the named bucket.
	MakeBucket(ctx context.Context, bucket string) error

	// ListObjects lists objects under prefix. When recursive is false the
	// listing stops at the first separator past the prefix and common
	// folder prefixes are returned as ObjectInfo entries with a trailing
	// separator in the key and an empty ETag.
	ListObjects(ctx context.Context, bucket, prefix string, recursive bool) ([]ObjectInfo, error)

	// StatObject returns the fingerprint and metadata record of one object.
	StatObject(ctx context.Context, bucket, key string) (*ObjectStat, error)

	// GetObject downloads an object to a local file path.
	GetObject(ctx context.Context, bucket, key, destPath string) error

	// PutObject uploads a local file under key with the given metadata
	// record and returns the storage-assigned fingerprint.
	PutObject(ctx context.Context, bucket, key, srcPath string, metadata map[string]string) (etag string, err error)

	// RemoveObject deletes one object. Removing a missing object is not an
	// error.
	RemoveObject(ctx context.Context, bucket, key string) error
}
