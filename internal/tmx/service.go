package tmx

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Wire metadata keys. These match the x-amz-meta-* record the original
// FreeCAD workbench writes, so objects stay interchangeable between tools.
const (
	MetaKeyRevision       = "revision"
	MetaKeyDescription    = "descripcion"
	MetaKeyComment        = "comment"
	MetaKeyCreatedBy      = "createdby"
	MetaKeyLastModifiedBy = "lastmodifiedby"
	MetaKeyCompany        = "company"
)

// UploadRequest captures the user's intent for one upload.
type UploadRequest struct {
	LocalPath string // artifact file on disk
	Bucket    string
	Filename  string // target object filename; defaults to the local basename

	// Folder labels (pretty form). Ignored when the artifact already
	// exists remotely and EditPath is false.
	Area, Sub1, Sub2, Sub3 string

	Description string
	Comment     string

	// EditPath permits relocating an artifact whose identity is already
	// known to storage. When false, the resolved existing path wins over
	// the labels above.
	EditPath bool
}

// UploadResult reports a completed upload.
type UploadResult struct {
	Key      string
	Tag      string
	Revision Revision
	IsUpdate bool

	// WriteBackErr is non-nil when the upload itself succeeded but the
	// local metadata write-back failed. The two outcomes are reported
	// independently; a non-nil WriteBackErr does not mean the upload
	// failed.
	WriteBackErr error
}

// Service orchestrates the reconciliation workflow: identity resolution,
// path resolution, revision/collision reconciliation, the upload itself,
// and the metadata write-back.
type Service struct {
	gw        StoreGateway
	walker    *NamespaceWalker
	resolver  *IdentityResolver
	catalog   Catalog
	docs      DocumentStore
	conflicts ConflictResolver
	logger    Logger

	mu         sync.Mutex
	inProgress map[string]struct{} // absolute local paths with an upload running
}

// NewService wires a Service. catalog may be nil (no identity cache, no
// history); conflicts must resolve name collisions when they occur.
func NewService(gw StoreGateway, walker *NamespaceWalker, resolver *IdentityResolver, catalog Catalog, docs DocumentStore, conflicts ConflictResolver, logger Logger) *Service {
	return &Service{
		gw:         gw,
		walker:     walker,
		resolver:   resolver,
		catalog:    catalog,
		docs:       docs,
		conflicts:  conflicts,
		logger:     logger,
		inProgress: make(map[string]struct{}),
	}
}

// Upload runs the model upload workflow for req.
func (s *Service) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	return s.upload(ctx, req, false)
}

// UploadDrawing runs the drawing upload workflow: the target filename is
// forced to a .svg extension, the proposed revision is raised above any
// revision already recorded for the same drawing name anywhere in the
// bucket, and provenance fields ride along in the metadata record.
func (s *Service) UploadDrawing(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if req.Filename == "" {
		req.Filename = filepath.Base(req.LocalPath)
	}
	if !strings.HasSuffix(strings.ToLower(req.Filename), ".svg") {
		req.Filename += ".svg"
	}
	return s.upload(ctx, req, true)
}

func (s *Service) upload(ctx context.Context, req *UploadRequest, drawing bool) (*UploadResult, error) {
	filename := req.Filename
	if filename == "" {
		filename = filepath.Base(req.LocalPath)
	}
	if filename == "" || filename == "." || strings.Contains(filename, KeySeparator) {
		return nil, ErrPathInvalid
	}

	lockKey, err := filepath.Abs(req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("resolving local path: %w", err)
	}
	if !s.acquire(lockKey) {
		return nil, ErrUploadInProgress
	}
	defer s.release(lockKey)

	meta, err := s.docs.Load(req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("loading document metadata: %w", err)
	}

	// Resolve identity. A failed scan is logged and treated as "not found
	// yet": the upload proceeds as a fresh artifact rather than aborting.
	existingKey, found, err := s.resolver.FindByIdentity(ctx, req.Bucket, meta.Tag)
	if err != nil {
		s.logger.Warn("identity resolution failed, proceeding as new artifact", "error", err)
	}

	// Resolve path. A known identity locks the artifact to its existing
	// folder unless the user explicitly asked to relocate it.
	area, sub1, sub2, sub3 := req.Area, req.Sub1, req.Sub2, req.Sub3
	if found && !req.EditPath {
		folders, _ := SplitObjectKey(existingKey)
		area, sub1, sub2, sub3 = "", "", "", ""
		if len(folders) > 0 {
			area = Prettify(folders[0])
		}
		if len(folders) > 1 {
			sub1 = Prettify(folders[1])
		}
		if len(folders) > 2 {
			sub2 = Prettify(folders[2])
		}
		if len(folders) > 3 {
			sub3 = Prettify(folders[3])
		}
	}

	key := BuildKey(area, sub1, sub2, sub3, filename)

	proposed := meta.CurrentRevision()
	if drawing {
		proposed = s.proposeDrawingRevision(ctx, req.Bucket, filename, proposed)
	}

	// Collision check: is the final filename already taken in the target
	// folder? A collision with the document's own identity is a normal
	// update; anything else needs a user decision.
	existing, err := DetectCollision(ctx, s.gw, req.Bucket, FolderPrefix(key), filename)
	if err != nil {
		s.logger.Warn("collision check failed", "key", key, "error", err)
	}
	if existing != nil && !s.sameIdentity(existing.ETag, meta.Tag) {
		decision, err := s.conflicts.Resolve(*existing)
		if err != nil {
			return nil, fmt.Errorf("resolving name collision: %w", err)
		}
		switch decision {
		case DecisionCancel:
			s.logger.Info("upload cancelled", "key", key)
			return nil, ErrCancelled
		case DecisionNewVersion:
			proposed = proposed.Bump()
		case DecisionOverwrite:
			// Replace in place; the colliding object's folder is already
			// the target folder.
		}
	}

	revision, isUpdate := Reconcile(proposed, found)

	// Commit pending local edits so the uploaded bytes are current. A sync
	// failure is reported but does not block the upload.
	if err := s.docs.Sync(req.LocalPath); err != nil {
		s.logger.Warn("syncing document before upload failed", "path", req.LocalPath, "error", err)
	}

	if err := s.ensureBucket(ctx, req.Bucket); err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = meta.Description
	}
	comment := req.Comment
	if comment == "" {
		comment = meta.Comment
	}

	objectMeta := map[string]string{
		MetaKeyRevision:    revision.String(),
		MetaKeyDescription: description,
		MetaKeyComment:     comment,
	}
	if drawing {
		objectMeta[MetaKeyCreatedBy] = meta.CreatedBy
		objectMeta[MetaKeyLastModifiedBy] = meta.LastModifiedBy
		objectMeta[MetaKeyCompany] = meta.Company
	}

	tag, err := s.gw.PutObject(ctx, req.Bucket, key, req.LocalPath, objectMeta)
	if err != nil {
		return nil, fmt.Errorf("uploading %s/%s: %w", req.Bucket, key, err)
	}

	result := &UploadResult{Key: key, Tag: tag, Revision: revision, IsUpdate: isUpdate}

	// The storage-assigned tag becomes authoritative only now. Write-back
	// failure is reported separately from the (successful) upload.
	meta.Tag = tag
	meta.Revision = revision.String()
	meta.Description = description
	meta.Comment = comment
	if err := s.docs.Save(req.LocalPath, meta); err != nil {
		s.logger.Error("metadata write-back failed", "path", req.LocalPath, "error", err)
		result.WriteBackErr = err
	}

	if s.catalog != nil {
		if err := s.catalog.SaveIdentity(req.Bucket, NormalizeTag(tag), key); err != nil {
			s.logger.Warn("updating identity cache failed", "error", err)
		}
	}
	s.walker.Invalidate(req.Bucket)

	s.logger.Info("artifact uploaded",
		"bucket", req.Bucket, "key", key, "tag", tag,
		"revision", revision.String(), "update", isUpdate)
	return result, nil
}

// proposeDrawingRevision scans the bucket for objects carrying the same
// drawing name and raises the proposed revision above the highest revision
// recorded on any of them. Scan failures leave the proposal unchanged.
func (s *Service) proposeDrawingRevision(ctx context.Context, bucket, filename string, proposed Revision) Revision {
	bare := strings.TrimSuffix(filename, ".svg")

	objects, err := s.gw.ListObjects(ctx, bucket, "", true)
	if err != nil {
		s.logger.Warn("drawing auto-version scan failed", "bucket", bucket, "error", err)
		return proposed
	}

	var max Revision
	for _, obj := range objects {
		_, name := SplitObjectKey(obj.Key)
		if name != filename && name != bare {
			continue
		}
		stat, err := s.gw.StatObject(ctx, bucket, obj.Key)
		if err != nil {
			s.logger.Warn("stat during auto-version scan failed", "key", obj.Key, "error", err)
			continue
		}
		rev, err := ParseRevision(stat.Metadata[MetaKeyRevision])
		if err != nil {
			continue
		}
		if rev > max {
			max = rev
		}
	}

	if max > 0 && proposed <= max {
		return max.Bump()
	}
	return proposed
}

// Delete removes an object unconditionally and drops every cache entry
// that referenced it.
func (s *Service) Delete(ctx context.Context, bucket, key string) error {
	if err := s.gw.RemoveObject(ctx, bucket, key); err != nil {
		return fmt.Errorf("removing %s/%s: %w", bucket, key, err)
	}
	if s.catalog != nil {
		if err := s.catalog.ForgetKey(bucket, key); err != nil {
			s.logger.Warn("dropping identity cache entry failed", "key", key, "error", err)
		}
	}
	s.walker.Invalidate(bucket)
	s.logger.Info("artifact deleted", "bucket", bucket, "key", key)
	return nil
}

// Fetch downloads an object to destPath. When adopt is true the object's
// fingerprint is written into the destination's metadata record with
// fresh defaults, so the downloaded copy reconciles as the same artifact
// on its next upload.
func (s *Service) Fetch(ctx context.Context, bucket, key, destPath string, adopt bool) error {
	if err := s.gw.GetObject(ctx, bucket, key, destPath); err != nil {
		return fmt.Errorf("downloading %s/%s: %w", bucket, key, err)
	}
	if !adopt {
		return nil
	}

	stat, err := s.gw.StatObject(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("stat after download: %w", err)
	}
	meta := NewDocumentMeta()
	meta.Tag = stat.ETag
	if err := s.docs.Save(destPath, meta); err != nil {
		return fmt.Errorf("adopting identity: %w", err)
	}
	s.logger.Info("artifact fetched", "key", key, "dest", destPath, "adopted", true)
	return nil
}

// ListFolders returns the prettified child folders under prefix.
func (s *Service) ListFolders(ctx context.Context, bucket, prefix string) ([]string, error) {
	return s.walker.ListChildren(ctx, bucket, prefix)
}

// ListFiles returns the plain files directly under prefix, folders
// excluded.
func (s *Service) ListFiles(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	base := normalizePrefix(prefix)
	objects, err := s.gw.ListObjects(ctx, bucket, base, false)
	if err != nil {
		return nil, fmt.Errorf("listing %s/%s: %w", bucket, base, err)
	}

	files := make([]ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, KeySeparator) {
			continue
		}
		rest := strings.TrimPrefix(obj.Key, base)
		if strings.Contains(rest, KeySeparator) {
			continue
		}
		files = append(files, obj)
	}
	return files, nil
}

// Stat exposes object metadata for display.
func (s *Service) Stat(ctx context.Context, bucket, key string) (*ObjectStat, error) {
	return s.gw.StatObject(ctx, bucket, key)
}

func (s *Service) sameIdentity(objectTag, documentTag string) bool {
	doc := NormalizeTag(documentTag)
	return doc != "" && NormalizeTag(objectTag) == doc
}

func (s *Service) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.gw.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.gw.MakeBucket(ctx, bucket); err != nil {
		return fmt.Errorf("creating bucket %s: %w", bucket, err)
	}
	s.logger.Info("bucket created", "bucket", bucket)
	return nil
}

func (s *Service) acquire(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inProgress[path]; busy {
		return false
	}
	s.inProgress[path] = struct{}{}
	return true
}

func (s *Service) release(path string) {
	s.mu.Lock()
	delete(s.inProgress, path)
	s.mu.Unlock()
}
