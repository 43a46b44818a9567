package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/causetree/causetree/pkg/layout"
	"github.com/causetree/causetree/pkg/table"
)

// Default file names of the exported artifacts.
const (
	AggregatedFile = "aggregated.csv"
	DiseaseFile    = "diseases.csv"
	CategoryFile   = "categories.csv"
	MetadataFile   = "metadata.json"
)

// WriteAggregatedCSV encodes the cross-revision table as CSV and writes it
// to w. Rows are written in the order given; callers wanting deterministic
// output sort with [table.SortRows] first.
func WriteAggregatedCSV(rows []table.AggregatedRow, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "age", "category", "description", "count"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Year),
			r.AgeBand,
			r.Category,
			r.Description,
			strconv.Itoa(r.Count),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDiseaseCSV encodes the positioned disease-level layout table as CSV
// and writes it to w.
func WriteDiseaseCSV(rows []layout.Row, w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"year", "age", "category", "description", "count",
		"frac", "cat_index", "cum_frac", "bundle_left", "bundle_right",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Year),
			r.AgeBand,
			r.Category,
			r.Description,
			strconv.Itoa(r.Count),
			formatFrac(r.Fraction),
			strconv.Itoa(r.CategoryIndex),
			formatFrac(r.CumFraction),
			formatFrac(r.BundleLeft),
			formatFrac(r.BundleRight),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCategoryCSV encodes the category-level rollup table as CSV and
// writes it to w.
func WriteCategoryCSV(rows []layout.CategoryRow, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"year", "age", "category", "cat_index", "frac", "cum_frac"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Year),
			r.AgeBand,
			r.Category,
			strconv.Itoa(r.CategoryIndex),
			formatFrac(r.Fraction),
			formatFrac(r.CumFraction),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMetadataJSON encodes the tree metadata as indented JSON and writes
// it to w.
func WriteMetadataJSON(meta layout.Metadata, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportAggregatedCSV writes the cross-revision table to a CSV file at path.
func ExportAggregatedCSV(rows []table.AggregatedRow, path string) error {
	return exportFile(path, func(w io.Writer) error {
		return WriteAggregatedCSV(rows, w)
	})
}

// ExportResult writes all layout artifacts into dir using the default file
// names: the disease table, the category rollup and the metadata.
func ExportResult(res *layout.Result, dir string) error {
	if err := exportFile(filepath.Join(dir, DiseaseFile), func(w io.Writer) error {
		return WriteDiseaseCSV(res.Diseases, w)
	}); err != nil {
		return err
	}
	if err := exportFile(filepath.Join(dir, CategoryFile), func(w io.Writer) error {
		return WriteCategoryCSV(res.Categories, w)
	}); err != nil {
		return err
	}
	return exportFile(filepath.Join(dir, MetadataFile), func(w io.Writer) error {
		return WriteMetadataJSON(res.Meta, w)
	})
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// formatFrac renders a fraction with the shortest representation that
// round-trips, so repeated runs over identical input diff clean.
func formatFrac(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
