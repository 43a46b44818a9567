package icd

import (
	"testing"

	"github.com/causetree/causetree/pkg/errors"
)

func TestParseRevision(t *testing.T) {
	for n := 2; n <= 9; n++ {
		rev, err := ParseRevision(n)
		if err != nil {
			t.Errorf("ParseRevision(%d) error = %v", n, err)
		}
		if int(rev) != n {
			t.Errorf("ParseRevision(%d) = %v", n, rev)
		}
	}

	for _, n := range []int{0, 1, 10, -3} {
		if _, err := ParseRevision(n); !errors.Is(err, errors.ErrCodeUnknownRevision) {
			t.Errorf("ParseRevision(%d) error = %v, want UNKNOWN_REVISION", n, err)
		}
	}
}

func TestNormalizeAlphanumeric(t *testing.T) {
	tests := []struct {
		raw  string
		rev  Revision
		want Code
	}{
		{"1", 2, "001"},
		{"87", 5, "087"},
		{"87a", 5, "087a"},
		{"087a", 5, "087a"},
		{"115b", 4, "115b"},
		{"84(3)", 3, "084(3)"},
		{" 42 ", 3, "042"},
		{"999", 2, "999"},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.raw, tt.rev)
		if err != nil {
			t.Errorf("Normalize(%q, %v) error = %v", tt.raw, tt.rev, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q, %v) = %q, want %q", tt.raw, tt.rev, got, tt.want)
		}
	}
}

func TestNormalizeNumeric(t *testing.T) {
	tests := []struct {
		raw  string
		rev  Revision
		want Code
	}{
		// Four-digit codes drop the least-significant digit: categories are
		// declared at three-digit chapter granularity.
		{"0010", 9, "001"},
		{"1402", 9, "140"},
		{"9999", 8, "999"},
		{"460", 9, "460"},
		{"42", 7, "042"},
	}

	for _, tt := range tests {
		got, err := Normalize(tt.raw, tt.rev)
		if err != nil {
			t.Errorf("Normalize(%q, %v) error = %v", tt.raw, tt.rev, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q, %v) = %q, want %q", tt.raw, tt.rev, got, tt.want)
		}
	}
}

func TestNormalizeMalformed(t *testing.T) {
	tests := []struct {
		raw string
		rev Revision
	}{
		{"", 9},
		{"   ", 9},
		{"abc", 3},   // no leading digits
		{"A01", 9},   // numeric revision, alphanumeric code
		{"140a", 9},  // numeric revision, suffix
		{"12345", 9}, // too long
		{"0000", 9},  // chapter 0
		{"0", 2},     // chapter 0
		{"1000a", 4}, // chapter beyond 999
		{"10000", 2}, // chapter beyond 999
	}

	for _, tt := range tests {
		if _, err := Normalize(tt.raw, tt.rev); !errors.Is(err, errors.ErrCodeMalformedCode) {
			t.Errorf("Normalize(%q, %v) error = %v, want MALFORMED_CODE", tt.raw, tt.rev, err)
		}
	}
}

// Normalization must be order-preserving over chapter numbers: a smaller
// chapter always yields a lexicographically smaller sort key.
func TestNormalizeOrderPreserving(t *testing.T) {
	chapters := []string{"1", "9", "10", "99", "100", "139", "140", "239", "999"}

	var prev Code
	for i, raw := range chapters {
		got, err := Normalize(raw, 2)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", raw, err)
		}
		if i > 0 && !(prev < got) {
			t.Errorf("order violated: Normalize(%q)=%q not < Normalize(%q)=%q",
				chapters[i-1], prev, raw, got)
		}
		prev = got
	}
}
