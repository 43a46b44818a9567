// Package config loads and validates the causetree processing
// configuration.
//
// The configuration is static data, not computed state: the category→range
// tables per ICD revision, the retained years, the top-N retention count,
// the age band collapsing rules and the quality-gate ceilings. A default
// configuration covering revisions 2–9 is embedded in the binary; a TOML
// file can replace it wholesale.
//
// Validation happens at load time. In particular the declared category
// ranges of every revision are checked for disjointness before any data is
// touched, so a hand-edited table bug surfaces as a CATEGORY_OVERLAP error
// up front instead of corrupting a processing run.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/icd"
)

//go:embed default.toml
var defaultTOML []byte

// Config is the full static configuration of a processing run.
type Config struct {
	// TopN is how many highest-volume codes per year keep their own
	// description; the rest collapse into "<category>, other" buckets.
	TopN int `toml:"top_n"`

	// UnclassifiedIndex is the layout index of the unclassified sentinel
	// category.
	UnclassifiedIndex int `toml:"unclassified_index"`

	Years      Years      `toml:"years"`
	AgeBands   AgeBands   `toml:"agebands"`
	Quality    Quality    `toml:"quality"`
	Trunk      Trunk      `toml:"trunk"`
	Categories []Category `toml:"categories"`
}

// Years selects which years of the source data are retained.
type Years struct {
	Start int `toml:"start"`
	End   int `toml:"end"`
	Step  int `toml:"step"`
}

// AgeBands drives the table-driven age band remapping.
type AgeBands struct {
	// TerminalStart collapses every band starting at or above this age
	// into one canonical open-ended band ("80+").
	TerminalStart int `toml:"terminal_start"`

	// CoarsenFrom merges 5-year bands starting at or above this age into
	// 10-year bands. Younger bands keep their source granularity.
	CoarsenFrom int `toml:"coarsen_from"`
}

// Quality holds the count-weighted quality-gate ceilings. Exceeding either
// aborts the year's batch: silent tolerance would skew the visualization's
// proportions.
type Quality struct {
	MaxUnclassified float64 `toml:"max_unclassified"`
	MaxUnmapped     float64 `toml:"max_unmapped"`
}

// Trunk names the synthesized survival rows.
type Trunk struct {
	// Category is the neutral category of trunk rows (layout index 0).
	Category string `toml:"category"`

	// Label is the fmt pattern for a band's residual row, applied to the
	// band's upper age, e.g. "older than %d years".
	Label string `toml:"label"`
}

// Category declares one disease category: its display name, its signed
// layout index and its code range expression per revision (keys "icd2"
// through "icd9").
type Category struct {
	Name   string            `toml:"name"`
	Index  int               `toml:"index"`
	Ranges map[string]string `toml:"ranges"`
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := Parse(defaultTOML)
	if err != nil {
		// The embedded config is part of the build; failing to parse it is
		// a programming error.
		panic(err)
	}
	return cfg
}

// Load reads and validates a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates a TOML configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural invariants and builds a classifier for every
// revision, which verifies range syntax and cross-category disjointness of
// the declared tables.
func (c *Config) Validate() error {
	if c.TopN < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "top_n must be positive, got %d", c.TopN)
	}
	if c.Years.Step < 1 || c.Years.End < c.Years.Start {
		return errors.New(errors.ErrCodeInvalidConfig, "bad year range %d..%d step %d", c.Years.Start, c.Years.End, c.Years.Step)
	}
	if c.Quality.MaxUnclassified <= 0 || c.Quality.MaxUnclassified > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_unclassified %v outside (0,1]", c.Quality.MaxUnclassified)
	}
	if c.Quality.MaxUnmapped <= 0 || c.Quality.MaxUnmapped > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_unmapped %v outside (0,1]", c.Quality.MaxUnmapped)
	}
	if c.AgeBands.CoarsenFrom%10 != 0 || c.AgeBands.CoarsenFrom < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "coarsen_from %d must be a non-negative decade boundary", c.AgeBands.CoarsenFrom)
	}
	if c.AgeBands.TerminalStart < c.AgeBands.CoarsenFrom {
		return errors.New(errors.ErrCodeInvalidConfig, "terminal_start %d below coarsen_from %d", c.AgeBands.TerminalStart, c.AgeBands.CoarsenFrom)
	}
	if c.Trunk.Category == "" || c.Trunk.Label == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "trunk category and label are required")
	}
	if len(c.Categories) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no categories declared")
	}

	indices := map[int]string{0: c.Trunk.Category}
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "category with empty name")
		}
		if cat.Name == icd.Unclassified || cat.Name == c.Trunk.Category {
			return errors.New(errors.ErrCodeInvalidConfig, "category name %q is reserved", cat.Name)
		}
		if cat.Index == 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "category %q: index 0 is reserved for the trunk", cat.Name)
		}
		if prev, dup := indices[cat.Index]; dup {
			return errors.New(errors.ErrCodeInvalidConfig, "categories %q and %q share index %d", prev, cat.Name, cat.Index)
		}
		indices[cat.Index] = cat.Name
	}
	if prev, dup := indices[c.UnclassifiedIndex]; dup {
		return errors.New(errors.ErrCodeInvalidConfig, "unclassified_index %d collides with %q", c.UnclassifiedIndex, prev)
	}

	for rev := icd.MinRevision; rev <= icd.MaxRevision; rev++ {
		if _, err := c.Classifier(rev); err != nil {
			return err
		}
	}
	return nil
}

// Classifier builds the category classifier for one revision from the
// declared range tables.
func (c *Config) Classifier(rev icd.Revision) (*icd.Classifier, error) {
	specs := make([]icd.CategorySpec, 0, len(c.Categories))
	for _, cat := range c.Categories {
		expr, ok := cat.Ranges[revisionKey(rev)]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "category %q has no ranges for %s", cat.Name, rev)
		}
		specs = append(specs, icd.CategorySpec{Name: cat.Name, Expr: expr})
	}
	return icd.NewClassifier(rev, specs)
}

// YearList expands the configured year range into the explicit sorted list
// of retained years.
func (c *Config) YearList() []int {
	var years []int
	for y := c.Years.Start; y <= c.Years.End; y += c.Years.Step {
		years = append(years, y)
	}
	return years
}

// KeepYear reports whether a source year is retained.
func (c *Config) KeepYear(year int) bool {
	if year < c.Years.Start || year > c.Years.End {
		return false
	}
	return (year-c.Years.Start)%c.Years.Step == 0
}

// CategoryIndex returns the signed layout index for a category name. The
// trunk category maps to 0 and the unclassified sentinel to the configured
// unclassified index.
func (c *Config) CategoryIndex(name string) (int, bool) {
	if name == c.Trunk.Category {
		return 0, true
	}
	if name == icd.Unclassified {
		return c.UnclassifiedIndex, true
	}
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat.Index, true
		}
	}
	return 0, false
}

// CategoryNames returns the category display order: the declared table
// order followed by the unclassified sentinel.
func (c *Config) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories)+1)
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return append(names, icd.Unclassified)
}

// revisionKey maps a revision to its TOML table key ("icd7").
func revisionKey(rev icd.Revision) string {
	return fmt.Sprintf("icd%d", int(rev))
}
