// Package aggregate turns one year's classified death records into the
// compact rows of the cross-revision table.
//
// Aggregation does three things, in order: it enforces the year's quality
// gates, it collapses everything outside the top-N highest-volume codes
// into "<category>, other" buckets, and it remaps source age bands onto the
// target granularity before summing counts by (year, age band, category,
// description).
package aggregate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/icd"
	"github.com/causetree/causetree/pkg/table"
)

// Options controls one year's aggregation pass. All values come from
// static configuration.
type Options struct {
	// TopN is how many codes keep their verbatim description.
	TopN int

	// TerminalStart collapses bands starting at or above this age into one
	// open-ended band.
	TerminalStart int

	// CoarsenFrom merges bands starting at or above this decade boundary
	// into 10-year bands.
	CoarsenFrom int

	// MaxUnclassified is the ceiling on the count fraction left in the
	// unclassified sentinel category.
	MaxUnclassified float64

	// MaxUnmapped is the ceiling on the count fraction with no diagnosis
	// description.
	MaxUnmapped float64
}

// Year aggregates one year's classified records.
//
// The quality gates are correctness checks, not warnings: a year whose
// unclassified or description-less count fraction exceeds its ceiling
// signals a mapping-table error for that revision and aborts instead of
// silently skewing the output proportions.
func Year(year int, records []table.CategorizedRecord, opts Options) ([]table.AggregatedRow, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "year %d: no records", year)
	}

	if err := checkGates(year, records, opts); err != nil {
		return nil, err
	}

	retained := topCodes(records, opts.TopN)

	type key struct {
		band        string
		category    string
		description string
	}
	sums := make(map[key]int)
	for _, rec := range records {
		band, err := remapBand(rec.AgeBand, opts)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "year %d", year)
		}

		desc := rec.Description
		if desc == "" {
			desc = icd.Unclassified
		}
		// Codes outside the retained set merge with every other dropped
		// code of their category under one synthesized label.
		if _, ok := retained[rec.Code]; !ok {
			desc = rec.Category + ", other"
		}

		sums[key{band, rec.Category, desc}] += rec.Count
	}

	rows := make([]table.AggregatedRow, 0, len(sums))
	for k, n := range sums {
		rows = append(rows, table.AggregatedRow{
			Year:        year,
			AgeBand:     k.band,
			Category:    k.category,
			Description: k.description,
			Count:       n,
		})
	}
	table.SortRows(rows)
	return rows, nil
}

// topCodes ranks codes by their total count across all age/sex cells and
// returns the top-N set. Ties at the boundary break deterministically by
// normalized code, then raw code, ascending: the tie-break is policy, since
// a different rule silently changes which borderline code is dropped.
func topCodes(records []table.CategorizedRecord, topN int) map[string]struct{} {
	totals := make(map[string]int)
	normalized := make(map[string]icd.Code)
	for _, rec := range records {
		totals[rec.Code] += rec.Count
		normalized[rec.Code] = rec.Normalized
	}

	codes := make([]string, 0, len(totals))
	for code := range totals {
		codes = append(codes, code)
	}
	slices.SortFunc(codes, func(a, b string) int {
		if c := cmp.Compare(totals[b], totals[a]); c != 0 {
			return c
		}
		if c := cmp.Compare(normalized[a], normalized[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	keep := min(topN, len(codes))
	retained := make(map[string]struct{}, keep)
	for _, code := range codes[:keep] {
		retained[code] = struct{}{}
	}
	return retained
}

// checkGates enforces the count-weighted quality ceilings for one year.
func checkGates(year int, records []table.CategorizedRecord, opts Options) error {
	var total, unclassified, unmapped int
	for _, rec := range records {
		total += rec.Count
		if rec.Category == icd.Unclassified {
			unclassified += rec.Count
		}
		if rec.Description == "" {
			unmapped += rec.Count
		}
	}
	if total == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "year %d: zero total death count", year)
	}

	if frac := float64(unmapped) / float64(total); frac > opts.MaxUnmapped {
		return errors.New(errors.ErrCodeUnmappedDescription,
			"year %d: %.1f%% of death count has no diagnosis description (ceiling %.1f%%)",
			year, frac*100, opts.MaxUnmapped*100)
	}
	if frac := float64(unclassified) / float64(total); frac > opts.MaxUnclassified {
		return errors.New(errors.ErrCodeUnclassifiedExcess,
			"year %d: %.1f%% of death count is unclassified (ceiling %.1f%%)",
			year, frac*100, opts.MaxUnclassified*100)
	}
	return nil
}

// remapBand maps a source age band label onto the target granularity.
func remapBand(label string, opts Options) (string, error) {
	b, err := table.ParseBand(label)
	if err != nil {
		return "", err
	}
	switch {
	case b.Open || b.Start >= opts.TerminalStart:
		return fmt.Sprintf("%d+", opts.TerminalStart), nil
	case b.Start >= opts.CoarsenFrom:
		lo := b.Start / 10 * 10
		return fmt.Sprintf("%02d-%02d", lo, lo+9), nil
	default:
		return b.Label, nil
	}
}
