package tmx

// DocumentMeta is the metadata record carried on a local authoring
// document. The string fields mirror the Base_* properties a CAD document
// carries; Revision keeps its external decimal-as-text form here and is
// parsed at the point of use.
type DocumentMeta struct {
	Tag         string // content fingerprint from the last successful upload
	Revision    string // two-decimal text, "1.00" when absent
	Description string
	Comment     string

	// Provenance, attached to drawing uploads only.
	CreatedBy      string
	LastModifiedBy string
	Company        string
}

// NewDocumentMeta returns the defaults a document gets before its first
// upload.
func NewDocumentMeta() *DocumentMeta {
	return &DocumentMeta{Revision: DefaultRevision.String()}
}

// CurrentRevision parses the document's revision text, falling back to
// DefaultRevision when the text is absent or unparseable. A document
// hand-edited into a bad state should not block its own upload.
func (m *DocumentMeta) CurrentRevision() Revision {
	rev, err := ParseRevision(m.Revision)
	if err != nil {
		return DefaultRevision
	}
	return rev
}

// DocumentStore reads and writes the metadata record attached to a local
// artifact file.
type DocumentStore interface {
	// Load returns the metadata for the artifact at path. A document with
	// no metadata record yet loads as NewDocumentMeta().
	Load(path string) (*DocumentMeta, error)

	// Save persists the metadata for the artifact at path.
	Save(path string, meta *DocumentMeta) error

	// Sync commits any pending local metadata edits to disk before an
	// upload, so the transmitted bytes reflect the latest local state.
	Sync(path string) error
}
