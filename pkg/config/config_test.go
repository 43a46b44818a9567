package config

import (
	"slices"
	"testing"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/icd"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()

	if cfg.TopN != 100 {
		t.Errorf("TopN = %d, want 100", cfg.TopN)
	}
	if len(cfg.Categories) != 8 {
		t.Errorf("len(Categories) = %d, want 8", len(cfg.Categories))
	}

	// Every revision's declared table must build a classifier, which
	// includes the disjointness check over the full table.
	for rev := icd.MinRevision; rev <= icd.MaxRevision; rev++ {
		if _, err := cfg.Classifier(rev); err != nil {
			t.Errorf("Classifier(%v) error = %v", rev, err)
		}
	}
}

func TestYearList(t *testing.T) {
	cfg := Default()
	years := cfg.YearList()

	if len(years) != 21 {
		t.Fatalf("len(YearList) = %d, want 21", len(years))
	}
	if years[0] != 1915 || years[len(years)-1] != 2015 {
		t.Errorf("YearList bounds = %d..%d, want 1915..2015", years[0], years[len(years)-1])
	}

	if !cfg.KeepYear(1920) {
		t.Error("KeepYear(1920) = false, want true")
	}
	if cfg.KeepYear(1921) {
		t.Error("KeepYear(1921) = true, want false")
	}
	if cfg.KeepYear(1910) {
		t.Error("KeepYear(1910) = true, want false")
	}
}

func TestCategoryIndex(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name  string
		index int
	}{
		{"Older", 0},
		{"Infectious disease", -1},
		{"Injury and poisoning", -2},
		{"Circulatory system", 1},
		{"Cancer", 2},
		{icd.Unclassified, 6},
	}
	for _, tt := range tests {
		got, ok := cfg.CategoryIndex(tt.name)
		if !ok {
			t.Errorf("CategoryIndex(%q) not found", tt.name)
			continue
		}
		if got != tt.index {
			t.Errorf("CategoryIndex(%q) = %d, want %d", tt.name, got, tt.index)
		}
	}

	if _, ok := cfg.CategoryIndex("No such category"); ok {
		t.Error("CategoryIndex of unknown category should report not found")
	}
}

func TestCategoryNames(t *testing.T) {
	names := Default().CategoryNames()
	if names[0] != "Infectious disease" {
		t.Errorf("first category = %q", names[0])
	}
	if names[len(names)-1] != icd.Unclassified {
		t.Errorf("last category = %q, want sentinel", names[len(names)-1])
	}
	if !slices.Contains(names, "Musculoskeletal system") {
		t.Error("missing Musculoskeletal system")
	}
}

func TestParseRejectsOverlappingTable(t *testing.T) {
	doc := []byte(`
top_n = 10
unclassified_index = 3

[years]
start = 1915
end = 1925
step = 5

[agebands]
terminal_start = 80
coarsen_from = 20

[quality]
max_unclassified = 0.3
max_unmapped = 0.05

[trunk]
category = "Older"
label = "older than %d years"

[[categories]]
name = "A"
index = -1
[categories.ranges]
icd2 = "1-50"
icd3 = "1-50"
icd4 = "1-50"
icd5 = "1-50"
icd6 = "1-50"
icd7 = "1-50"
icd8 = "1-50"
icd9 = "1-50"

[[categories]]
name = "B"
index = 1
[categories.ranges]
icd2 = "51-99"
icd3 = "51-99"
icd4 = "51-99"
icd5 = "51-99"
icd6 = "51-99"
icd7 = "51-99"
icd8 = "50-99"
icd9 = "51-99"
`)

	_, err := Parse(doc)
	if !errors.Is(err, errors.ErrCodeCategoryOverlap) {
		t.Errorf("Parse error = %v, want CATEGORY_OVERLAP", err)
	}
}

func TestValidateRejectsBadStructure(t *testing.T) {
	base := Default()

	t.Run("duplicate index", func(t *testing.T) {
		cfg := *base
		cfg.Categories = slices.Clone(base.Categories)
		cfg.Categories[1].Index = cfg.Categories[0].Index
		if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("Validate error = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("reserved index zero", func(t *testing.T) {
		cfg := *base
		cfg.Categories = slices.Clone(base.Categories)
		cfg.Categories[0].Index = 0
		if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("Validate error = %v, want INVALID_CONFIG", err)
		}
	})

	t.Run("zero top_n", func(t *testing.T) {
		cfg := *base
		cfg.TopN = 0
		if err := cfg.Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("Validate error = %v, want INVALID_CONFIG", err)
		}
	})
}
