package table

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/causetree/causetree/pkg/errors"
)

// Band is a parsed age band label. The supported label forms are the ones
// the source tables use across a century of publications:
//
//	"0"      single year of age
//	"<1"     under N
//	"01-04"  inclusive range
//	"85+"    open-ended terminal band
type Band struct {
	Label string
	Start int
	End   int // upper age of the band; equals Start for single years
	Open  bool
}

// ParseBand parses an age band label. The returned Label is trimmed of
// surrounding whitespace.
func ParseBand(label string) (Band, error) {
	s := strings.TrimSpace(label)
	b := Band{Label: s}

	switch {
	case s == "":
		return b, errors.New(errors.ErrCodeInvalidInput, "empty age band label")

	case strings.HasPrefix(s, "<"):
		n, err := strconv.Atoi(strings.TrimSpace(s[1:]))
		if err != nil || n < 1 {
			return b, errors.New(errors.ErrCodeInvalidInput, "bad age band label %q", label)
		}
		b.Start, b.End = 0, n
		return b, nil

	case strings.HasSuffix(s, "+"):
		n, err := strconv.Atoi(strings.TrimSpace(s[:len(s)-1]))
		if err != nil || n < 0 {
			return b, errors.New(errors.ErrCodeInvalidInput, "bad age band label %q", label)
		}
		b.Start, b.End, b.Open = n, n, true
		return b, nil

	case strings.Contains(s, "-"):
		lo, hi, _ := strings.Cut(s, "-")
		start, err1 := strconv.Atoi(strings.TrimSpace(lo))
		end, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil || start < 0 || end < start {
			return b, errors.New(errors.ErrCodeInvalidInput, "bad age band label %q", label)
		}
		b.Start, b.End = start, end
		return b, nil

	default:
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return b, errors.New(errors.ErrCodeInvalidInput, "bad age band label %q", label)
		}
		b.Start, b.End = n, n
		return b, nil
	}
}

// CompareBands orders two age band labels numerically by start age, with
// the open-ended terminal band sorted last. Labels that do not parse fall
// back to plain string comparison so sorting never fails.
func CompareBands(a, b string) int {
	ba, errA := ParseBand(a)
	bb, errB := ParseBand(b)
	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}
	if ba.Open != bb.Open {
		if ba.Open {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(ba.Start, bb.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(ba.End, bb.End); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}
