// Package io provides the tabular input and output surface of the pipeline.
//
// # Overview
//
// The pipeline sits between an external tabular-data loader and a rendering
// front end. This package implements both handoff points:
//
//   - CSV readers for the loader's normalized input tables: per-year death
//     count tables and per-revision diagnosis description tables
//   - CSV writers for the aggregated cross-revision table and the two
//     layout tables (disease level and category rollup)
//   - a JSON writer for the tree metadata consumed alongside the tables
//
// # Input Format
//
// A count table is a CSV file with a header row and the columns
//
//	code,year,sex,age,count
//
// One row per code/year/sex/age combination. Sex accepts the numeric codes
// "1"/"2" as well as "M"/"F". A description table maps raw codes to
// diagnosis descriptions:
//
//	code,description
//
// Both readers validate the header and report the offending line on a parse
// failure.
//
// # Import and Export
//
// Every format has a Reader/Writer pair operating on io.Reader/io.Writer
// plus an Import/Export convenience wrapper for file paths:
//
//	records, err := io.ImportRecords("deaths_1950.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Writers produce deterministic output for identical input, so exported
// artifacts can be diffed across runs.
package io
