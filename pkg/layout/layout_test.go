package layout

import (
	"math"
	"slices"
	"testing"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/table"
)

func testOpts() Options {
	return Options{
		TrunkCategory: "Older",
		TrunkLabel:    "older than %d years",
		Indices: map[string]int{
			"Older": 0,
			"L":     -1,
			"L2":    -2,
			"R":     1,
			"R2":    2,
		},
		CategoryOrder: []string{"Older", "L", "L2", "R", "R2"},
	}
}

func row(year int, band, category, desc string, count int) table.AggregatedRow {
	return table.AggregatedRow{
		Year:        year,
		AgeBand:     band,
		Category:    category,
		Description: desc,
		Count:       count,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// survivalInput is the canonical three-band year: 60% of deaths under one,
// 30% at ages one to four, 10% at five to nine.
func survivalInput() []table.AggregatedRow {
	return []table.AggregatedRow{
		row(1950, "<1", "R", "infant cause", 60),
		row(1950, "01-04", "L", "child cause", 30),
		row(1950, "05-09", "R", "later cause", 10),
	}
}

func TestComputeFractionsSumToOne(t *testing.T) {
	res, err := Compute(survivalInput(), testOpts())
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	sum := 0.0
	for _, r := range res.Diseases {
		if r.Category != "Older" {
			sum += r.Fraction
		}
	}
	if !approx(sum, 1) {
		t.Errorf("data fractions sum to %v, want 1", sum)
	}
}

func TestComputeSurvivalChain(t *testing.T) {
	res, err := Compute(survivalInput(), testOpts())
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	// Residuals: 1-0.6 = 0.4 after the first band, 0.4-0.3 = 0.1 after the
	// second, 0 after the last.
	want := map[string]float64{"<1": 0.4, "01-04": 0.1, "05-09": 0}
	labels := map[string]string{
		"<1":    "older than 1 years",
		"01-04": "older than 4 years",
		"05-09": "older than 9 years",
	}

	seen := 0
	for _, r := range res.Diseases {
		if r.Category != "Older" {
			continue
		}
		seen++
		if !approx(r.Fraction, want[r.AgeBand]) {
			t.Errorf("band %s trunk fraction = %v, want %v", r.AgeBand, r.Fraction, want[r.AgeBand])
		}
		if r.Description != labels[r.AgeBand] {
			t.Errorf("band %s trunk label = %q, want %q", r.AgeBand, r.Description, labels[r.AgeBand])
		}
	}
	if seen != 3 {
		t.Errorf("trunk rows = %d, want 3", seen)
	}
}

func TestComputeCumulativeBounds(t *testing.T) {
	res, err := Compute(survivalInput(), testOpts())
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	maxCum := 0.0
	for _, r := range res.Diseases {
		if r.CumFraction <= -1e-9 || r.CumFraction > 1+1e-9 {
			t.Errorf("row %s/%s: cum %v out of bounds", r.AgeBand, r.Description, r.CumFraction)
		}
		maxCum = math.Max(maxCum, r.CumFraction)
	}
	if !approx(maxCum, 1) {
		t.Errorf("max cum = %v, want 1", maxCum)
	}
}

func TestComputeAlignedNesting(t *testing.T) {
	res, err := Compute(survivalInput(), testOpts())
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	byBand := make(map[string][]Row)
	for _, r := range res.Diseases {
		byBand[r.AgeBand] = append(byBand[r.AgeBand], r)
	}

	// Youngest band spans the full width.
	first := byBand["<1"][0]
	if !approx(first.BundleLeft, 0) || !approx(first.BundleRight, 1) {
		t.Errorf("first bundle = [%v, %v], want [0, 1]", first.BundleLeft, first.BundleRight)
	}

	// Each later bundle sits exactly inside the previous band's trunk
	// segment, whose width is the surviving fraction.
	trunk := func(band string) (start, end float64) {
		for _, r := range byBand[band] {
			if r.Category == "Older" {
				return r.CumFraction - r.Fraction, r.CumFraction
			}
		}
		t.Fatalf("band %s: no trunk row", band)
		return 0, 0
	}

	chain := []struct{ prev, next string }{
		{"<1", "01-04"},
		{"01-04", "05-09"},
	}
	for _, c := range chain {
		start, end := trunk(c.prev)
		b := byBand[c.next][0]
		if !approx(b.BundleLeft, start) || !approx(b.BundleRight, end) {
			t.Errorf("band %s bundle = [%v, %v], want trunk of %s [%v, %v]",
				c.next, b.BundleLeft, b.BundleRight, c.prev, start, end)
		}
	}
}

func TestComputeCenteredTrunkMidpoint(t *testing.T) {
	opts := testOpts()
	opts.Mode = ModeCentered

	res, err := Compute(survivalInput(), opts)
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	for _, r := range res.Diseases {
		if r.Category != "Older" {
			continue
		}
		mid := r.CumFraction - r.Fraction/2
		if !approx(mid, 0.5) {
			t.Errorf("band %s trunk midpoint = %v, want 0.5", r.AgeBand, mid)
		}
	}
}

func TestComputeOrderingWithinBand(t *testing.T) {
	// One band, both sides populated. Left of the trunk the outermost
	// category comes first and larger contributors sit closer to the trunk;
	// right of the trunk it mirrors.
	rows := []table.AggregatedRow{
		row(1950, "<1", "L", "small left", 5),
		row(1950, "<1", "L", "big left", 20),
		row(1950, "<1", "L2", "outer left", 10),
		row(1950, "<1", "R", "big right", 30),
		row(1950, "<1", "R", "small right", 10),
		row(1950, "<1", "R2", "outer right", 15),
	}

	res, err := Compute(rows, testOpts())
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	var got []string
	for _, r := range res.Diseases {
		got = append(got, r.Description)
	}
	want := []string{
		"outer left", "small left", "big left",
		"older than 1 years",
		"big right", "small right", "outer right",
	}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	// Positions strictly increase across the band.
	for i := 1; i < len(res.Diseases); i++ {
		if res.Diseases[i].CumFraction <= res.Diseases[i-1].CumFraction-1e-9 {
			t.Errorf("cum not monotone at %q: %v after %v",
				res.Diseases[i].Description, res.Diseases[i].CumFraction, res.Diseases[i-1].CumFraction)
		}
	}
}

func TestComputeCategoryRollup(t *testing.T) {
	rows := []table.AggregatedRow{
		row(1950, "<1", "R", "cause a", 30),
		row(1950, "<1", "R", "cause b", 20),
		row(1950, "<1", "L", "cause c", 50),
	}

	res, err := Compute(rows, testOpts())
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	var r *CategoryRow
	for i := range res.Categories {
		if res.Categories[i].Category == "R" {
			r = &res.Categories[i]
		}
	}
	if r == nil {
		t.Fatal("no rollup row for category R")
	}
	if !approx(r.Fraction, 0.5) {
		t.Errorf("rollup fraction = %v, want 0.5", r.Fraction)
	}

	// The rollup position is the right edge of the category block, which
	// for the rightmost category is the band's right edge.
	if !approx(r.CumFraction, 1) {
		t.Errorf("rollup cum = %v, want 1", r.CumFraction)
	}

	// One rollup row per category per band, trunk included.
	if len(res.Categories) != 3 {
		t.Errorf("rollup rows = %d, want 3", len(res.Categories))
	}
}

func TestComputeMetadata(t *testing.T) {
	rows := []table.AggregatedRow{
		row(1950, "<1", "R", "a", 60),
		row(1950, "01-04", "R", "a", 40),
		row(1955, "<1", "L", "b", 100),
	}

	res, err := Compute(rows, testOpts())
	if err != nil {
		t.Fatalf("Compute error = %v", err)
	}

	if !slices.Equal(res.Meta.Years, []int{1950, 1955}) {
		t.Errorf("Years = %v", res.Meta.Years)
	}
	if !slices.Equal(res.Meta.AgeBands, []string{"<1", "01-04"}) {
		t.Errorf("AgeBands = %v", res.Meta.AgeBands)
	}
	if !slices.Equal(res.Meta.Categories, testOpts().CategoryOrder) {
		t.Errorf("Categories = %v", res.Meta.Categories)
	}
	if res.Meta.Mode != ModeAligned {
		t.Errorf("Mode = %v, want aligned", res.Meta.Mode)
	}
}

func TestComputeUnknownCategory(t *testing.T) {
	rows := []table.AggregatedRow{row(1950, "<1", "Mystery", "a", 10)}
	_, err := Compute(rows, testOpts())
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Compute error = %v, want INVALID_CONFIG", err)
	}
}

func TestComputeOptionValidation(t *testing.T) {
	t.Run("bad mode", func(t *testing.T) {
		opts := testOpts()
		opts.Mode = "diagonal"
		if _, err := Compute(survivalInput(), opts); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("error = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("trunk not index zero", func(t *testing.T) {
		opts := testOpts()
		opts.Indices = map[string]int{"Older": 1, "R": 2}
		if _, err := Compute(survivalInput(), opts); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("error = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := Compute(nil, testOpts()); err == nil {
			t.Error("expected error for empty input")
		}
	})
}
