package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"tmx-go/internal/tmx"
)

// NewCatalogFromDataDir opens the catalog database under dataDir,
// creating the directory when absent. An empty dataDir yields an
// in-memory catalog, which is useful for tests and one-off runs.
func NewCatalogFromDataDir(dataDir string) (tmx.Catalog, error) {
	if dataDir == "" {
		return NewSQLiteCatalog(":memory:")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return NewSQLiteCatalog(filepath.Join(dataDir, "catalog.db"))
}
