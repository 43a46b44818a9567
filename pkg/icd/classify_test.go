package icd

import (
	"maps"
	"testing"

	"github.com/causetree/causetree/pkg/errors"
)

func normalizeAll(t *testing.T, rev Revision, raws []string) map[string]Code {
	t.Helper()
	codes := make(map[string]Code, len(raws))
	for _, raw := range raws {
		nc, err := Normalize(raw, rev)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", raw, err)
		}
		codes[raw] = nc
	}
	return codes
}

func TestClassifyRevision9(t *testing.T) {
	c, err := NewClassifier(9, []CategorySpec{
		{Name: "Infectious disease", Expr: "1-139"},
		{Name: "Cancer", Expr: "140-239"},
	})
	if err != nil {
		t.Fatalf("NewClassifier error = %v", err)
	}

	codes := normalizeAll(t, 9, []string{"001", "009", "139", "140", "239"})
	got, err := c.Classify(codes)
	if err != nil {
		t.Fatalf("Classify error = %v", err)
	}

	want := map[string]string{
		"001": "Infectious disease",
		"009": "Infectious disease",
		"139": "Infectious disease",
		"140": "Cancer",
		"239": "Cancer",
	}
	if !maps.Equal(got, want) {
		t.Errorf("Classify = %v, want %v", got, want)
	}
}

func TestClassifySuffixInterval(t *testing.T) {
	// A chapter interval covers all subcodes under its final chapter: the
	// end endpoint is extended with a sentinel that sorts after every valid
	// qualifier.
	c, err := NewClassifier(5, []CategorySpec{
		{Name: "Circulatory system", Expr: "87a, 90-97"},
		{Name: "Nervous system", Expr: "87b, 87c"},
		{Name: "Infectious disease", Expr: "1-32"},
	})
	if err != nil {
		t.Fatalf("NewClassifier error = %v", err)
	}

	codes := normalizeAll(t, 5, []string{"87a", "87b", "90", "97b", "12", "150"})
	got, err := c.Classify(codes)
	if err != nil {
		t.Fatalf("Classify error = %v", err)
	}

	want := map[string]string{
		"87a": "Circulatory system",
		"87b": "Nervous system",
		"90":  "Circulatory system",
		"97b": "Circulatory system", // subcode of chapter 97
		"12":  "Infectious disease",
		"150": Unclassified,
	}
	if !maps.Equal(got, want) {
		t.Errorf("Classify = %v, want %v", got, want)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	specs := []CategorySpec{
		{Name: "A", Expr: "1-99"},
		{Name: "B", Expr: "100-199"},
	}
	c, err := NewClassifier(9, specs)
	if err != nil {
		t.Fatalf("NewClassifier error = %v", err)
	}

	codes := normalizeAll(t, 9, []string{"010", "050", "120", "500"})
	first, err := c.Classify(codes)
	if err != nil {
		t.Fatalf("Classify error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := c.Classify(codes)
		if err != nil {
			t.Fatalf("Classify error = %v", err)
		}
		if !maps.Equal(first, again) {
			t.Fatalf("Classify not deterministic: %v vs %v", first, again)
		}
	}
}

func TestNewClassifierRejectsOverlap(t *testing.T) {
	// Declared table overlap must surface at load time, before any code is
	// observed.
	_, err := NewClassifier(9, []CategorySpec{
		{Name: "Infectious disease", Expr: "1-139"},
		{Name: "Cancer", Expr: "139-239"},
	})
	if !errors.Is(err, errors.ErrCodeCategoryOverlap) {
		t.Errorf("NewClassifier error = %v, want CATEGORY_OVERLAP", err)
	}
}

func TestNewClassifierRejectsSubcodeOverlap(t *testing.T) {
	// A bare chapter interval includes every subcode under it, so a second
	// category claiming one of those subcodes intersects.
	_, err := NewClassifier(4, []CategorySpec{
		{Name: "Infectious disease", Expr: "104-115"},
		{Name: "Digestive system", Expr: "115a, 115b"},
	})
	if !errors.Is(err, errors.ErrCodeCategoryOverlap) {
		t.Errorf("NewClassifier error = %v, want CATEGORY_OVERLAP", err)
	}
}

func TestNewClassifierAllowsTouchingIntervals(t *testing.T) {
	_, err := NewClassifier(9, []CategorySpec{
		{Name: "A", Expr: "1-139"},
		{Name: "B", Expr: "140-239"},
	})
	if err != nil {
		t.Errorf("NewClassifier error = %v, want nil", err)
	}
}

func TestNewClassifierRejectsMalformedExpr(t *testing.T) {
	tests := []string{
		"",
		"abc",
		"139-1", // inverted
		"0-10",  // chapter 0
	}
	for _, expr := range tests {
		_, err := NewClassifier(9, []CategorySpec{{Name: "A", Expr: expr}})
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("NewClassifier(%q) error = %v, want INVALID_CONFIG", expr, err)
		}
	}
}
