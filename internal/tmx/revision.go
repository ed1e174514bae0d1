package tmx

import (
	"fmt"
	"strconv"
	"strings"
)

// Revision is an artifact revision counter, stored internally as a whole
// number of hundredths so repeated 0.01 bumps never accumulate float
// rounding error. The external representation is always two fixed decimal
// digits ("1.00", "1.01", ...).
type Revision int64

// DefaultRevision is the revision assigned to an artifact that has never
// been uploaded.
const DefaultRevision Revision = 100

// RevisionStep is the fixed increment applied on each recognized update.
const RevisionStep Revision = 1

// ParseRevision parses the external two-decimal form. Values with fewer
// fractional digits ("1", "1.5") are accepted and scaled; more than two
// fractional digits are rejected. An empty string parses to
// DefaultRevision, matching a document that predates revision tracking.
func ParseRevision(s string) (Revision, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRevision, nil
	}

	whole, frac, _ := strings.Cut(s, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid revision %q", s)
	}

	var f int64
	switch len(frac) {
	case 0:
		f = 0
	case 1, 2:
		f, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid revision %q", s)
		}
		if len(frac) == 1 {
			f *= 10
		}
	default:
		return 0, fmt.Errorf("invalid revision %q: more than two fractional digits", s)
	}

	return Revision(w*100 + f), nil
}

// String renders the revision in its external two-decimal form.
func (r Revision) String() string {
	return fmt.Sprintf("%d.%02d", r/100, r%100)
}

// Bump returns the revision advanced by one fixed step.
func (r Revision) Bump() Revision {
	return r + RevisionStep
}

// Reconcile decides the revision an upload should carry.
//
// When the identity resolver found the document's fingerprint in storage,
// the upload updates an existing lineage: the revision advances by one
// step and isUpdate is true. Otherwise the artifact is new and the current
// revision stands (DefaultRevision when the document carries none).
func Reconcile(current Revision, identityFound bool) (next Revision, isUpdate bool) {
	if current <= 0 {
		current = DefaultRevision
	}
	if identityFound {
		return current.Bump(), true
	}
	return current, false
}
