// Package layout computes the horizontal tree layout of the cross-revision
// mortality table.
//
// The layout turns absolute death counts into per-year fractions, threads a
// survival "trunk" through the age bands of each year, and assigns every
// row a cumulative horizontal position so a renderer can draw a continuous
// flow diagram. Categories sit on either side of the trunk according to
// their configured signed index; within a side, larger contributors sit
// closer to the trunk.
//
// Two alignment policies exist. The default aligned-bundle policy chains
// age bands left to right: the youngest band spans [0,1] and every
// subsequent band's bundle nests exactly inside the trunk segment of its
// predecessor, since a band's total mass equals the surviving fraction
// flowing into it. The centered policy instead shifts each band so its
// trunk segment is centered at 0.5. The two produce visually different
// trees from the same input, so the choice is explicit in [Options] and
// recorded alongside the output.
package layout

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/table"
)

// Mode selects the alignment policy.
type Mode string

// Alignment policies.
const (
	ModeAligned  Mode = "aligned"
	ModeCentered Mode = "centered"
)

// fracTol is the tolerance for fraction-sum and bounds checks.
const fracTol = 1e-9

// Options configures a layout pass. All values derive from static
// configuration.
type Options struct {
	// Mode is the alignment policy; defaults to ModeAligned.
	Mode Mode

	// TrunkCategory is the neutral category of the synthesized survival
	// rows. It must map to index 0 in Indices.
	TrunkCategory string

	// TrunkLabel is the fmt pattern for a band's residual row, applied to
	// the band's upper age.
	TrunkLabel string

	// Indices maps every category that may appear in the table to its
	// signed layout index. Negative indices sit left of the trunk,
	// positive right, magnitude increasing outward.
	Indices map[string]int

	// CategoryOrder is the category display order copied into the
	// metadata, including the trunk category.
	CategoryOrder []string
}

func (o *Options) validate() error {
	if o.Mode == "" {
		o.Mode = ModeAligned
	}
	if o.Mode != ModeAligned && o.Mode != ModeCentered {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown layout mode %q", o.Mode)
	}
	if o.TrunkCategory == "" || o.TrunkLabel == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "trunk category and label are required")
	}
	if idx, ok := o.Indices[o.TrunkCategory]; !ok || idx != 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "trunk category %q must map to index 0", o.TrunkCategory)
	}
	for name, idx := range o.Indices {
		if idx == 0 && name != o.TrunkCategory {
			return errors.New(errors.ErrCodeInvalidConfig, "category %q claims trunk index 0", name)
		}
	}
	return nil
}

// Row is one positioned row of the disease-level output table.
type Row struct {
	table.AggregatedRow
	Fraction      float64 `json:"frac"`
	CategoryIndex int     `json:"cat_index"`
	CumFraction   float64 `json:"cum_frac"`
	BundleLeft    float64 `json:"bundle_left"`
	BundleRight   float64 `json:"bundle_right"`
}

// CategoryRow is one positioned row of the category-level rollup.
type CategoryRow struct {
	Year          int     `json:"year"`
	AgeBand       string  `json:"age"`
	Category      string  `json:"category"`
	CategoryIndex int     `json:"cat_index"`
	Fraction      float64 `json:"frac"`
	CumFraction   float64 `json:"cum_frac"`
}

// Metadata is the descriptive summary consumed by the rendering layer
// alongside the tabular outputs.
type Metadata struct {
	Years      []int    `json:"years"`
	AgeBands   []string `json:"age_groups"`
	Categories []string `json:"categories"`
	Mode       Mode     `json:"mode"`
}

// Result bundles the three layout artifacts.
type Result struct {
	Diseases   []Row
	Categories []CategoryRow
	Meta       Metadata
}

// Compute lays out the full aggregated table across all years and age
// bands. Input rows may arrive in any order; output rows are
// deterministically ordered by year, age band and position.
func Compute(rows []table.AggregatedRow, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty table")
	}

	byYear := make(map[int][]table.AggregatedRow)
	for _, r := range rows {
		byYear[r.Year] = append(byYear[r.Year], r)
	}

	result := &Result{
		Meta: Metadata{
			Years:      table.Years(rows),
			AgeBands:   table.Bands(rows),
			Categories: slices.Clone(opts.CategoryOrder),
			Mode:       opts.Mode,
		},
	}

	for _, year := range result.Meta.Years {
		diseases, categories, err := layoutYear(year, byYear[year], opts)
		if err != nil {
			return nil, err
		}
		result.Diseases = append(result.Diseases, diseases...)
		result.Categories = append(result.Categories, categories...)
	}
	return result, nil
}

// layoutYear positions one year's rows.
func layoutYear(year int, rows []table.AggregatedRow, opts Options) ([]Row, []CategoryRow, error) {
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	if total <= 0 {
		return nil, nil, errors.New(errors.ErrCodeLayoutInvariant, "year %d: non-positive total count", year)
	}

	// Fractions must sum to exactly one: anything else means the upstream
	// aggregation is broken.
	fracSum := 0.0
	byBand := make(map[string][]Row)
	for _, r := range rows {
		idx, ok := opts.Indices[r.Category]
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeInvalidConfig, "year %d: category %q has no layout index", year, r.Category)
		}
		frac := float64(r.Count) / float64(total)
		fracSum += frac
		byBand[r.AgeBand] = append(byBand[r.AgeBand], Row{
			AggregatedRow: r,
			Fraction:      frac,
			CategoryIndex: idx,
		})
	}
	if math.Abs(fracSum-1) > fracTol {
		return nil, nil, errors.New(errors.ErrCodeLayoutInvariant, "year %d: fractions sum to %v", year, fracSum)
	}

	bands := make([]string, 0, len(byBand))
	for band := range byBand {
		bands = append(bands, band)
	}
	slices.SortFunc(bands, table.CompareBands)

	// Survival chain: each band consumes its death fraction from the
	// cohort; the residual continues into the next band as the trunk.
	surviving := 1.0
	var diseases []Row
	var categories []CategoryRow
	bundleLeft := 0.0

	for _, band := range bands {
		group := byBand[band]

		bandFrac := 0.0
		for _, r := range group {
			bandFrac += r.Fraction
		}
		older := surviving - bandFrac
		if older < -fracTol {
			return nil, nil, errors.New(errors.ErrCodeLayoutInvariant,
				"year %d band %s: band fraction %v exceeds surviving fraction %v", year, band, bandFrac, surviving)
		}
		older = math.Max(older, 0)

		group = append(group, trunkRow(year, band, older, opts))
		sortGroup(group)

		// Running cumulative position in band-local coordinates.
		bandTotal := surviving
		cum := 0.0
		leftMass := 0.0
		for i := range group {
			cum += group[i].Fraction
			if cum <= -fracTol || cum > 1+fracTol {
				return nil, nil, errors.New(errors.ErrCodeLayoutInvariant,
					"year %d band %s: cumulative fraction %v outside (0,1]", year, band, cum)
			}
			group[i].CumFraction = cum
			if group[i].CategoryIndex < 0 {
				leftMass += group[i].Fraction
			}
		}

		shift := bundleLeft
		if opts.Mode == ModeCentered {
			shift = centerShift(group, leftMass, older)
		}
		for i := range group {
			group[i].CumFraction += shift
			group[i].BundleLeft = shift
			group[i].BundleRight = shift + bandTotal
		}

		diseases = append(diseases, group...)
		categories = append(categories, rollup(group)...)

		// The next band's bundle nests inside this band's trunk segment.
		bundleLeft += leftMass
		surviving = older
	}
	return diseases, categories, nil
}

// trunkRow synthesizes the residual row representing the cohort fraction
// that survives this band.
func trunkRow(year int, band string, older float64, opts Options) Row {
	age := 0
	if b, err := table.ParseBand(band); err == nil {
		age = b.End
	}
	return Row{
		AggregatedRow: table.AggregatedRow{
			Year:        year,
			AgeBand:     band,
			Category:    opts.TrunkCategory,
			Description: fmt.Sprintf(opts.TrunkLabel, age),
		},
		Fraction:      older,
		CategoryIndex: 0,
	}
}

// sortGroup orders one band's rows left to right: category index first,
// then fraction·sign descending so larger contributors sit adjacent to the
// trunk on either side, with the description as a deterministic tie-break.
func sortGroup(group []Row) {
	slices.SortFunc(group, func(a, b Row) int {
		if c := cmp.Compare(a.CategoryIndex, b.CategoryIndex); c != 0 {
			return c
		}
		sign := 0.0
		if a.CategoryIndex < 0 {
			sign = -1
		} else if a.CategoryIndex > 0 {
			sign = 1
		}
		if c := cmp.Compare(b.Fraction*sign, a.Fraction*sign); c != 0 {
			return c
		}
		return cmp.Compare(a.Description, b.Description)
	})
}

// centerShift computes the offset that centers a band's trunk segment at
// 0.5 of the total width. The trunk segment spans [leftMass,
// leftMass+older] in band-local coordinates.
func centerShift(group []Row, leftMass, older float64) float64 {
	return 0.5 - (leftMass + older/2)
}

// rollup folds one positioned band into category-level rows. Rows of a
// category are contiguous after sorting, so a single pass suffices; the
// rolled-up position is the category block's right edge.
func rollup(group []Row) []CategoryRow {
	var out []CategoryRow
	for _, r := range group {
		if n := len(out); n > 0 && out[n-1].Category == r.Category {
			out[n-1].Fraction += r.Fraction
			out[n-1].CumFraction = math.Max(out[n-1].CumFraction, r.CumFraction)
			continue
		}
		out = append(out, CategoryRow{
			Year:          r.Year,
			AgeBand:       r.AgeBand,
			Category:      r.Category,
			CategoryIndex: r.CategoryIndex,
			Fraction:      r.Fraction,
			CumFraction:   r.CumFraction,
		})
	}
	return out
}
