// Package table defines the tabular data model shared by the causetree
// pipeline stages.
//
// The model follows the data lifecycle: a [RawRecord] is read once per
// source year and discarded after classification, a [CategorizedRecord]
// lives only within one year's processing pass, and the [AggregatedRow]
// table is the persisted cross-revision intermediate that the layout stage
// consumes.
package table

import (
	"cmp"
	"slices"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/icd"
)

// Sex is the recorded sex of a cohort cell.
type Sex uint8

// Sex values as encoded in the source count tables.
const (
	SexUnknown Sex = 0
	SexMale    Sex = 1
	SexFemale  Sex = 2
)

// ParseSex decodes the source encoding ("1"/"2", or "M"/"F").
func ParseSex(s string) (Sex, error) {
	switch s {
	case "1", "M", "m":
		return SexMale, nil
	case "2", "F", "f":
		return SexFemale, nil
	}
	return SexUnknown, errors.New(errors.ErrCodeInvalidInput, "unknown sex value %q", s)
}

// RawRecord is one row of the normalized tabular input: a death count for
// one (code, year, sex, age band) cell, as handed over by the external
// tabular loader.
type RawRecord struct {
	Code    string
	Year    int
	Sex     Sex
	AgeBand string
	Count   int
}

// CategorizedRecord is a RawRecord after classification: the normalized
// code, its disease category (or the unclassified sentinel) and the
// diagnosis description label.
type CategorizedRecord struct {
	RawRecord
	Normalized  icd.Code
	Category    string
	Description string
}

// AggregatedRow is the unit of the assembled cross-revision table, uniquely
// keyed by (year, age band, description) after aggregation.
type AggregatedRow struct {
	Year        int    `json:"year"`
	AgeBand     string `json:"age"`
	Category    string `json:"category"`
	Description string `json:"desc"`
	Count       int    `json:"n"`
}

// SortRows orders rows deterministically by (year, age band, category,
// description). Output rows are sorted this way before being handed to
// downstream consumers, so repeated runs produce identical artifacts.
func SortRows(rows []AggregatedRow) {
	slices.SortFunc(rows, func(a, b AggregatedRow) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		if c := CompareBands(a.AgeBand, b.AgeBand); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return cmp.Compare(a.Description, b.Description)
	})
}

// Years returns the sorted distinct years present in the table.
func Years(rows []AggregatedRow) []int {
	seen := make(map[int]struct{})
	var years []int
	for _, r := range rows {
		if _, ok := seen[r.Year]; !ok {
			seen[r.Year] = struct{}{}
			years = append(years, r.Year)
		}
	}
	slices.Sort(years)
	return years
}

// Bands returns the distinct age band labels present in the table, in
// numeric-aware display order (see [CompareBands]).
func Bands(rows []AggregatedRow) []string {
	seen := make(map[string]struct{})
	var bands []string
	for _, r := range rows {
		if _, ok := seen[r.AgeBand]; !ok {
			seen[r.AgeBand] = struct{}{}
			bands = append(bands, r.AgeBand)
		}
	}
	slices.SortFunc(bands, CompareBands)
	return bands
}
