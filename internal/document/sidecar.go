package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"tmx-go/internal/tmx"
)

// SidecarSuffix is appended to an artifact path to locate its metadata
// record. "Gear.FCStd" -> "Gear.FCStd.tmx.toml".
const SidecarSuffix = ".tmx.toml"

// sidecar is the on-disk TOML shape of a document metadata record. Field
// names mirror the Base_* properties the FreeCAD workbench attaches to
// documents and TechDraw pages.
type sidecar struct {
	Tag            string `toml:"etag"`
	Revision       string `toml:"revision"`
	Description    string `toml:"description"`
	Comment        string `toml:"comment"`
	CreatedBy      string `toml:"created_by,omitempty"`
	LastModifiedBy string `toml:"last_modified_by,omitempty"`
	Company        string `toml:"company,omitempty"`
}

// SidecarStore keeps each artifact's metadata in a TOML file next to the
// artifact itself, so the record travels with the file.
type SidecarStore struct{}

// NewSidecarStore creates a SidecarStore.
func NewSidecarStore() *SidecarStore { return &SidecarStore{} }

// SidecarPath returns the metadata file path for an artifact path.
func SidecarPath(artifactPath string) string {
	return artifactPath + SidecarSuffix
}

// Load reads the metadata record for the artifact at path. An artifact
// with no sidecar yet loads as the defaults: that is the "never uploaded"
// state, not an error.
func (s *SidecarStore) Load(path string) (*tmx.DocumentMeta, error) {
	var sc sidecar
	if _, err := toml.DecodeFile(SidecarPath(path), &sc); err != nil {
		if os.IsNotExist(err) {
			return tmx.NewDocumentMeta(), nil
		}
		return nil, fmt.Errorf("reading metadata for %s: %w", path, err)
	}

	meta := &tmx.DocumentMeta{
		Tag:            sc.Tag,
		Revision:       sc.Revision,
		Description:    sc.Description,
		Comment:        sc.Comment,
		CreatedBy:      sc.CreatedBy,
		LastModifiedBy: sc.LastModifiedBy,
		Company:        sc.Company,
	}
	if meta.Revision == "" {
		meta.Revision = tmx.DefaultRevision.String()
	}
	return meta, nil
}

// Save writes the metadata record for the artifact at path. The write is
// atomic: a temp file in the same directory renamed over the target.
func (s *SidecarStore) Save(path string, meta *tmx.DocumentMeta) error {
	sc := sidecar{
		Tag:            meta.Tag,
		Revision:       meta.Revision,
		Description:    meta.Description,
		Comment:        meta.Comment,
		CreatedBy:      meta.CreatedBy,
		LastModifiedBy: meta.LastModifiedBy,
		Company:        meta.Company,
	}

	target := SidecarPath(path)
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmx-meta-*")
	if err != nil {
		return fmt.Errorf("creating metadata temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(&sc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("encoding metadata for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing metadata for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing metadata for %s: %w", path, err)
	}
	return nil
}

// Sync commits pending metadata edits before an upload. The sidecar is
// plain-file storage with no buffered state, so syncing re-saves the
// current record when one exists and otherwise does nothing.
func (s *SidecarStore) Sync(path string) error {
	if _, err := os.Stat(SidecarPath(path)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking metadata for %s: %w", path, err)
	}
	meta, err := s.Load(path)
	if err != nil {
		return err
	}
	return s.Save(path, meta)
}
