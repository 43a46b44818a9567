package aggregate

import (
	"slices"
	"testing"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/icd"
	"github.com/causetree/causetree/pkg/table"
)

func defaultOpts() Options {
	return Options{
		TopN:            100,
		TerminalStart:   80,
		CoarsenFrom:     20,
		MaxUnclassified: 0.30,
		MaxUnmapped:     0.05,
	}
}

func rec(code string, count int, category, desc, band string) table.CategorizedRecord {
	return table.CategorizedRecord{
		RawRecord: table.RawRecord{
			Code:    code,
			Year:    1950,
			Sex:     table.SexMale,
			AgeBand: band,
			Count:   count,
		},
		Normalized:  icd.Code("0" + code),
		Category:    category,
		Description: desc,
	}
}

func TestYearTopNRelabel(t *testing.T) {
	// top_n=1 over codes {A:100, B:50, C:10} all in category X: A keeps its
	// description, B and C merge into one "X, other" row.
	opts := defaultOpts()
	opts.TopN = 1

	records := []table.CategorizedRecord{
		rec("01", 100, "X", "cause a", "<1"),
		rec("02", 50, "X", "cause b", "<1"),
		rec("03", 10, "X", "cause c", "<1"),
	}

	rows, err := Year(1950, records, opts)
	if err != nil {
		t.Fatalf("Year error = %v", err)
	}

	want := []table.AggregatedRow{
		{Year: 1950, AgeBand: "<1", Category: "X", Description: "X, other", Count: 60},
		{Year: 1950, AgeBand: "<1", Category: "X", Description: "cause a", Count: 100},
	}
	if !slices.Equal(rows, want) {
		t.Errorf("Year = %v, want %v", rows, want)
	}
}

func TestYearTopNTieBreak(t *testing.T) {
	opts := defaultOpts()
	opts.TopN = 1

	// Equal totals at the boundary: the lower code wins, deterministically.
	records := []table.CategorizedRecord{
		rec("09", 50, "X", "cause nine", "<1"),
		rec("02", 50, "X", "cause two", "<1"),
	}

	for i := 0; i < 5; i++ {
		rows, err := Year(1950, records, opts)
		if err != nil {
			t.Fatalf("Year error = %v", err)
		}
		var kept []string
		for _, r := range rows {
			if r.Description != "X, other" {
				kept = append(kept, r.Description)
			}
		}
		if !slices.Equal(kept, []string{"cause two"}) {
			t.Fatalf("retained = %v, want [cause two]", kept)
		}
	}
}

func TestYearAggregatesAcrossSexes(t *testing.T) {
	records := []table.CategorizedRecord{
		rec("01", 30, "X", "cause a", "<1"),
		rec("01", 20, "X", "cause a", "<1"),
	}
	records[1].Sex = table.SexFemale

	rows, err := Year(1950, records, defaultOpts())
	if err != nil {
		t.Fatalf("Year error = %v", err)
	}
	if len(rows) != 1 || rows[0].Count != 50 {
		t.Errorf("rows = %v, want single row with count 50", rows)
	}
}

func TestYearBandRemap(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"<1", "<1"},
		{"01-04", "01-04"},
		{"15-19", "15-19"},
		{"20-24", "20-29"},
		{"25-29", "20-29"},
		{"75-79", "70-79"},
		{"80-84", "80+"},
		{"85+", "80+"},
	}

	for _, tt := range tests {
		rows, err := Year(1950, []table.CategorizedRecord{rec("01", 10, "X", "a", tt.source)}, defaultOpts())
		if err != nil {
			t.Fatalf("Year(%q) error = %v", tt.source, err)
		}
		if rows[0].AgeBand != tt.want {
			t.Errorf("band %q remapped to %q, want %q", tt.source, rows[0].AgeBand, tt.want)
		}
	}
}

func TestYearBandRemapMerges(t *testing.T) {
	records := []table.CategorizedRecord{
		rec("01", 10, "X", "a", "80-84"),
		rec("01", 5, "X", "a", "85+"),
		rec("01", 3, "X", "a", "20-24"),
		rec("01", 2, "X", "a", "25-29"),
	}

	rows, err := Year(1950, records, defaultOpts())
	if err != nil {
		t.Fatalf("Year error = %v", err)
	}

	want := []table.AggregatedRow{
		{Year: 1950, AgeBand: "20-29", Category: "X", Description: "a", Count: 5},
		{Year: 1950, AgeBand: "80+", Category: "X", Description: "a", Count: 15},
	}
	if !slices.Equal(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestYearUnclassifiedGate(t *testing.T) {
	records := []table.CategorizedRecord{
		rec("01", 60, "X", "a", "<1"),
		rec("99", 40, icd.Unclassified, "b", "<1"),
	}

	// 40% unclassified exceeds the 30% ceiling.
	_, err := Year(1950, records, defaultOpts())
	if !errors.Is(err, errors.ErrCodeUnclassifiedExcess) {
		t.Errorf("Year error = %v, want UNCLASSIFIED_EXCESS", err)
	}

	// Raising the ceiling lets the year through.
	opts := defaultOpts()
	opts.MaxUnclassified = 0.50
	if _, err := Year(1950, records, opts); err != nil {
		t.Errorf("Year error = %v, want nil", err)
	}
}

func TestYearUnmappedGate(t *testing.T) {
	records := []table.CategorizedRecord{
		rec("01", 90, "X", "a", "<1"),
		rec("02", 10, "X", "", "<1"), // no description
	}

	_, err := Year(1950, records, defaultOpts())
	if !errors.Is(err, errors.ErrCodeUnmappedDescription) {
		t.Errorf("Year error = %v, want UNMAPPED_DESCRIPTION", err)
	}
}

func TestYearUnmappedBelowGateGetsSentinelLabel(t *testing.T) {
	opts := defaultOpts()
	opts.MaxUnmapped = 0.20

	records := []table.CategorizedRecord{
		rec("01", 90, "X", "a", "<1"),
		rec("02", 10, "X", "", "<1"),
	}

	rows, err := Year(1950, records, opts)
	if err != nil {
		t.Fatalf("Year error = %v", err)
	}

	found := false
	for _, r := range rows {
		if r.Description == icd.Unclassified && r.Count == 10 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected sentinel-labelled row, got %v", rows)
	}
}

func TestYearEmptyInput(t *testing.T) {
	if _, err := Year(1950, nil, defaultOpts()); err == nil {
		t.Error("Year(nil) expected error")
	}
}
