package icd

import (
	"fmt"
	"strings"

	"github.com/causetree/causetree/pkg/errors"
)

// Code is a normalized diagnostic code: a zero-padded three-digit chapter
// number followed by the original qualifier suffix, if any. Its
// lexicographic order matches the numeric chapter order, which makes it
// usable as an interval sort key. It is an internal representation and is
// never round-tripped back to a human-facing code.
type Code string

// suffixSentinel sorts after every valid qualifier suffix. Appending it to
// an interval's end code makes the interval inclusive of all subcodes under
// that chapter.
const suffixSentinel = "z"

// Normalize canonicalizes a raw code string for the given revision.
//
// For numeric revisions (ICD-6 and later) the code must consist of digits
// only; four-digit codes drop their least-significant digit, since
// categories are defined at three-digit chapter granularity. For earlier
// revisions the leading digit run becomes the chapter and any remaining
// characters are kept verbatim as the qualifier suffix.
//
// The chapter number must lie in [1, 999]. Violations return a
// MALFORMED_CODE error: a malformed code means the revision's format
// assumption is broken, and the caller is expected to abort the enclosing
// year's batch rather than drop the row.
func Normalize(raw string, rev Revision) (Code, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", errors.New(errors.ErrCodeMalformedCode, "%s: empty code", rev)
	}

	if rev.Numeric() {
		if !allDigits(code) {
			return "", errors.New(errors.ErrCodeMalformedCode, "%s: code %q is not numeric", rev, raw)
		}
		if len(code) > 4 {
			return "", errors.New(errors.ErrCodeMalformedCode, "%s: code %q longer than four digits", rev, raw)
		}
		if len(code) == 4 {
			code = code[:3]
		}
		nc, err := padChapter(code, "")
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeMalformedCode, err, "%s: code %q", rev, raw)
		}
		return nc, nil
	}

	digits, suffix := splitDigits(code)
	if digits == "" {
		return "", errors.New(errors.ErrCodeMalformedCode, "%s: code %q has no leading digits", rev, raw)
	}
	nc, err := padChapter(digits, suffix)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMalformedCode, err, "%s: code %q", rev, raw)
	}
	return nc, nil
}

// padChapter zero-pads the chapter digits to exactly three characters and
// appends the suffix. The digit run is rejected outside [1, 999].
func padChapter(digits, suffix string) (Code, error) {
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
		if n > 999 {
			return "", errors.New(errors.ErrCodeMalformedCode, "chapter %s exceeds 999", digits)
		}
	}
	if n < 1 {
		return "", errors.New(errors.ErrCodeMalformedCode, "chapter %s below 1", digits)
	}
	return Code(fmt.Sprintf("%03d%s", n, suffix)), nil
}

// splitDigits separates the leading decimal digit run from the rest.
func splitDigits(s string) (digits, suffix string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
