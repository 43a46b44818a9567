package icd

import (
	"strings"

	"github.com/causetree/causetree/pkg/errors"
)

// Unclassified is the sentinel category for codes not covered by any
// declared range of their revision. The caller owns the quality gate on how
// much death count may land here.
const Unclassified = "Other"

// CategorySpec declares one category's range expression for a single
// revision. A range expression is a whitespace/comma separated list of
// tokens, each either a single code or an inclusive "start-end" interval:
//
//	"1-136, 460-519"
//	"58, 83, 87a, 90-97, 99-103"
//
// Specs are ordered: classification and overlap reporting follow the
// declared table order.
type CategorySpec struct {
	Name string
	Expr string
}

// Interval is one inclusive range over normalized codes, owned by a
// category. End is already extended with the suffix sentinel so the
// interval covers every subcode under its final chapter.
type Interval struct {
	Category string
	Start    Code
	End      Code
}

// Contains reports whether the normalized code lies within the interval.
func (iv Interval) Contains(c Code) bool {
	return c >= iv.Start && c <= iv.End
}

// Classifier assigns disease categories to normalized codes for one
// revision.
type Classifier struct {
	rev       Revision
	intervals []Interval
}

// NewClassifier parses the declared category ranges for rev and validates
// that ranges of different categories do not intersect. Range endpoints are
// chapter tokens in the pre-ICD-6 alphanumeric format regardless of the
// revision's own code format.
//
// A malformed range expression returns an INVALID_CONFIG error; two
// categories claiming overlapping intervals return CATEGORY_OVERLAP. The
// overlap check runs over the full declared table, not just observed codes,
// so a configuration bug surfaces at load time.
func NewClassifier(rev Revision, specs []CategorySpec) (*Classifier, error) {
	if !rev.Valid() {
		return nil, errors.New(errors.ErrCodeUnknownRevision, "unsupported ICD revision %d", int(rev))
	}

	var intervals []Interval
	for _, spec := range specs {
		parsed, err := parseRangeExpr(spec.Name, spec.Expr)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s: category %q", rev, spec.Name)
		}
		intervals = append(intervals, parsed...)
	}

	c := &Classifier{rev: rev, intervals: intervals}
	if err := c.checkDisjoint(); err != nil {
		return nil, err
	}
	return c, nil
}

// Intervals returns the parsed intervals in declared table order.
func (c *Classifier) Intervals() []Interval {
	return c.intervals
}

// Classify maps every code to exactly one category, or leaves it at the
// [Unclassified] sentinel when no declared range covers it. The input maps
// raw code strings to their normalized form (see [Normalize]).
//
// Overlap is a hard invariant, not a warning: if a code already assigned to
// one category is selected by a different category's interval, Classify
// fails with CATEGORY_OVERLAP. Ranges across categories within one revision
// are defined to partition disjointly, so this indicates a table bug that
// must never be resolved by precedence.
func (c *Classifier) Classify(codes map[string]Code) (map[string]string, error) {
	result := make(map[string]string, len(codes))
	for raw := range codes {
		result[raw] = Unclassified
	}

	for _, iv := range c.intervals {
		for raw, nc := range codes {
			if !iv.Contains(nc) {
				continue
			}
			if cur := result[raw]; cur != Unclassified && cur != iv.Category {
				return nil, errors.New(errors.ErrCodeCategoryOverlap,
					"%s: code %q claimed by both %q and %q", c.rev, raw, cur, iv.Category)
			}
			result[raw] = iv.Category
		}
	}
	return result, nil
}

// checkDisjoint verifies that no two intervals of different categories
// intersect.
func (c *Classifier) checkDisjoint() error {
	for i, a := range c.intervals {
		for _, b := range c.intervals[i+1:] {
			if a.Category == b.Category {
				continue
			}
			if a.Start <= b.End && b.Start <= a.End {
				return errors.New(errors.ErrCodeCategoryOverlap,
					"%s: ranges %s-%s (%q) and %s-%s (%q) intersect",
					c.rev, a.Start, a.End, a.Category, b.Start, b.End, b.Category)
			}
		}
	}
	return nil
}

// parseRangeExpr expands one range expression into sentinel-extended
// intervals.
func parseRangeExpr(category, expr string) ([]Interval, error) {
	var intervals []Interval
	for _, field := range strings.Fields(expr) {
		tok := strings.Trim(field, ",")
		if tok == "" {
			continue
		}

		startTok, endTok := tok, tok
		if i := strings.IndexByte(tok, '-'); i >= 0 {
			startTok, endTok = tok[:i], tok[i+1:]
		}

		start, err := normalizeEndpoint(startTok)
		if err != nil {
			return nil, err
		}
		end, err := normalizeEndpoint(endTok)
		if err != nil {
			return nil, err
		}
		if end < start {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "range %q is inverted", tok)
		}

		intervals = append(intervals, Interval{
			Category: category,
			Start:    start,
			End:      end + suffixSentinel,
		})
	}
	if len(intervals) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "empty range expression")
	}
	return intervals, nil
}

// normalizeEndpoint pads a range endpoint token. Endpoints always use the
// alphanumeric chapter format ("87a"), even for numeric revisions, because
// category tables are declared at chapter granularity.
func normalizeEndpoint(tok string) (Code, error) {
	digits, suffix := splitDigits(strings.TrimLeft(tok, "0"))
	if digits == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "endpoint %q has no leading digits", tok)
	}
	nc, err := padChapter(digits, suffix)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "endpoint %q", tok)
	}
	return nc, nil
}
