package app

import (
	"context"
	"fmt"
	"os"

	"tmx-go/internal/catalog"
	"tmx-go/internal/config"
	"tmx-go/internal/document"
	"tmx-go/internal/gateway"
	"tmx-go/internal/tmx"

	"github.com/google/uuid"
)

// App is the application layer between the CLI and the reconciliation
// service. It constructs all dependencies from config, exposes high-level
// operations, and manages catalog/log lifecycle on Close.
type App struct {
	cfg      *config.Config
	gw       tmx.StoreGateway
	cat      tmx.Catalog
	walker   *tmx.NamespaceWalker
	resolver *tmx.IdentityResolver
	docs     *document.SidecarStore
	service *tmx.Service
	op      *StoreOperation
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Upload", "Delete");
// conflicts resolves name collisions during uploads.
// The caller must call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, operation string, conflicts tmx.ConflictResolver) (*App, error) {
	gw, err := gateway.NewGatewayFromConfig(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating store gateway: %w", err)
	}

	cat, err := catalog.NewCatalogFromDataDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}

	opID := uuid.New().String()
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapted := &slogAdapter{l: logger}
	walker := tmx.NewNamespaceWalker(gw, adapted)
	resolver := tmx.NewIdentityResolver(gw, cat, adapted)
	docs := document.NewSidecarStore()
	svc := tmx.NewService(gw, walker, resolver, cat, docs, conflicts, adapted)

	return &App{
		cfg:      cfg,
		gw:       gw,
		cat:      cat,
		walker:   walker,
		resolver: resolver,
		docs:     docs,
		service:  svc,
		op:       NewStoreOperation(operation, ""),
		logFile:  logFile,
	}, nil
}

// Bucket returns the configured bucket for the artifact kind.
func (a *App) Bucket(drawing bool) string {
	if drawing {
		return a.cfg.Buckets.Drawings
	}
	return a.cfg.Buckets.Models
}

// Areas returns the configured top-level folder labels.
func (a *App) Areas() []string {
	return a.cfg.Areas
}

// persistOperation saves the operation record to the catalog, giving it an
// auto-increment ID. Only store-mutating commands call this.
func (a *App) persistOperation(parameters string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = parameters
	id, err := a.cat.RecordOperation(a.op.Name, parameters)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	a.op.ID = id
	return nil
}

// Upload runs the model upload workflow.
func (a *App) Upload(ctx context.Context, req *tmx.UploadRequest) (*tmx.UploadResult, error) {
	req.Bucket = a.Bucket(false)
	if err := a.persistOperation(req.LocalPath); err != nil {
		return nil, err
	}
	res, err := a.service.Upload(ctx, req)
	if err != nil {
		a.op.Status = "error"
	}
	return res, err
}

// UploadDrawing runs the drawing upload workflow against the drawing bucket.
func (a *App) UploadDrawing(ctx context.Context, req *tmx.UploadRequest) (*tmx.UploadResult, error) {
	req.Bucket = a.Bucket(true)
	if err := a.persistOperation(req.LocalPath); err != nil {
		return nil, err
	}
	res, err := a.service.UploadDrawing(ctx, req)
	if err != nil {
		a.op.Status = "error"
	}
	return res, err
}

// ListFolders returns the child folder labels under prefix.
func (a *App) ListFolders(ctx context.Context, drawing bool, prefix string) ([]string, error) {
	return a.service.ListFolders(ctx, a.Bucket(drawing), prefix)
}

// ListFiles returns the plain files directly under prefix.
func (a *App) ListFiles(ctx context.Context, drawing bool, prefix string) ([]tmx.ObjectInfo, error) {
	return a.service.ListFiles(ctx, a.Bucket(drawing), prefix)
}

// Stat returns the metadata record of one object.
func (a *App) Stat(ctx context.Context, drawing bool, key string) (*tmx.ObjectStat, error) {
	return a.service.Stat(ctx, a.Bucket(drawing), key)
}

// Find resolves an identity tag to its object key. When noCache is true
// the catalog cache is bypassed and the bucket is scanned.
func (a *App) Find(ctx context.Context, drawing bool, tag string, noCache bool) (string, bool, error) {
	if noCache {
		return a.resolver.Scan(ctx, a.Bucket(drawing), tag)
	}
	return a.resolver.FindByIdentity(ctx, a.Bucket(drawing), tag)
}

// Fetch downloads an object, optionally adopting its identity into the
// destination's metadata record.
func (a *App) Fetch(ctx context.Context, drawing bool, key, dest string, adopt bool) error {
	return a.service.Fetch(ctx, a.Bucket(drawing), key, dest, adopt)
}

// Delete removes an object unconditionally.
func (a *App) Delete(ctx context.Context, drawing bool, key string) error {
	if err := a.persistOperation(key); err != nil {
		return err
	}
	if err := a.service.Delete(ctx, a.Bucket(drawing), key); err != nil {
		a.op.Status = "error"
		return err
	}
	return nil
}

// History returns the most recent recorded operations.
func (a *App) History(limit int) ([]*tmx.Operation, error) {
	return a.cat.RecentOperations(limit)
}

// InitMeta creates the metadata record for a local artifact with defaults.
// Reports whether a record already existed.
func (a *App) InitMeta(path string) (existed bool, err error) {
	if _, err := os.Stat(document.SidecarPath(path)); err == nil {
		return true, nil
	}
	if err := a.docs.Save(path, tmx.NewDocumentMeta()); err != nil {
		return false, fmt.Errorf("creating metadata: %w", err)
	}
	return false, nil
}

// ShowMeta loads the metadata record for a local artifact.
func (a *App) ShowMeta(path string) (*tmx.DocumentMeta, error) {
	return a.docs.Load(path)
}

// Close finalizes the operation record and releases resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.cat.FinishOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.cat.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
