package testutil

import (
	"testing"

	"tmx-go/internal/catalog"
	"tmx-go/internal/tmx"
)

// NewTestCatalog creates an in-memory SQLite catalog with migrations
// applied. The catalog is automatically closed when the test completes.
func NewTestCatalog(t *testing.T) tmx.Catalog {
	t.Helper()

	cat, err := catalog.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}

	t.Cleanup(func() {
		cat.Close()
	})

	return cat
}
