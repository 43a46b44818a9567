// Package icd implements diagnostic code handling for the International
// Classification of Diseases, revisions 2 through 9.
//
// Each revision is an incompatible coding system: revisions 2–5 use numeric
// chapter numbers with optional alphanumeric qualifiers ("87a"), revisions
// 6–9 use strictly numeric four-digit codes whose last digit is below the
// three-digit chapter granularity that disease categories are defined at.
//
// The package provides two operations:
//
//   - [Normalize] canonicalizes a raw code string into a fixed-width sort
//     key whose lexicographic order matches the numeric chapter order.
//   - [Classifier] assigns one disease category per code using ordered
//     inclusive interval rules declared per revision.
package icd

import (
	"fmt"

	"github.com/causetree/causetree/pkg/errors"
)

// Revision identifies an ICD revision (2..9).
type Revision int

// Supported revision bounds.
const (
	MinRevision Revision = 2
	MaxRevision Revision = 9
)

// ParseRevision validates n as an ICD revision number.
func ParseRevision(n int) (Revision, error) {
	r := Revision(n)
	if !r.Valid() {
		return 0, errors.New(errors.ErrCodeUnknownRevision, "unsupported ICD revision %d (want %d..%d)", n, MinRevision, MaxRevision)
	}
	return r, nil
}

// Valid reports whether r is within the supported revision range.
func (r Revision) Valid() bool {
	return r >= MinRevision && r <= MaxRevision
}

// Numeric reports whether codes of this revision are strictly numeric.
// From ICD-6 on, codes are four-digit numbers; earlier revisions carry
// alphanumeric qualifiers.
func (r Revision) Numeric() bool {
	return r >= 6
}

// String returns the conventional revision label, e.g. "ICD-7".
func (r Revision) String() string {
	return fmt.Sprintf("ICD-%d", int(r))
}
