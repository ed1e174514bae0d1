package tmx

import "time"

// Operation is one recorded CLI operation, newest first in history
// listings.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Status     string // "success" or "error"
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Catalog is the local metadata store: a persistent identity cache
// (fingerprint -> object key per bucket) layered over the bucket scan, and
// a log of past operations. The cache is an optimization only: the
// identity resolver falls back to the full scan on every miss, and upload
// and delete keep the cache in step synchronously.
type Catalog interface {
	// LookupIdentity returns the cached key for a normalized fingerprint,
	// if one is recorded.
	LookupIdentity(bucket, tag string) (key string, ok bool, err error)

	// SaveIdentity records (or replaces) the key a fingerprint resolves to.
	SaveIdentity(bucket, tag, key string) error

	// ForgetKey drops any cache entries pointing at key. Called on delete.
	ForgetKey(bucket, key string) error

	// RecordOperation appends an operation row and returns its ID.
	RecordOperation(name, parameters string) (int64, error)

	// FinishOperation stamps an operation's terminal status.
	FinishOperation(id int64, status string) error

	// RecentOperations returns up to limit operations, newest first.
	RecentOperations(limit int) ([]*Operation, error)

	// Close releases the underlying store.
	Close() error
}
