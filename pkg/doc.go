// Package pkg provides the core libraries for Causetree mortality processing.
//
// # Overview
//
// Causetree turns century-spanning cause-of-death tables, coded under ICD
// revisions 2 through 9, into a single aggregated table and a hierarchical
// tree layout that a rendering layer can draw as a flow diagram. The pkg
// directory is organized into three main areas:
//
//  1. Domain logic - code normalization, classification, aggregation, layout
//  2. Infrastructure - caching, persistence, observability
//  3. Orchestration - the process → layout → export pipeline
//
// # Architecture
//
// The typical data flow through Causetree:
//
//	Raw per-revision tables (CSV)
//	         ↓
//	    [icd] package (normalize historical codes)
//	         ↓
//	    [config] package (interval-based category classification)
//	         ↓
//	    [aggregate] package (top-N selection, age band collapsing)
//	         ↓
//	    [layout] package (survival-chain tree layout)
//	         ↓
//	    CSV/JSON artifacts
//
// # Quick Start
//
// Process a source directory and compute the layout:
//
//	import (
//	    "context"
//	    "github.com/causetree/causetree/pkg/cache"
//	    "github.com/causetree/causetree/pkg/pipeline"
//	)
//
//	c, _ := cache.NewFileCache(".cache")
//	runner := pipeline.NewRunner(c, nil, nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    SourceDir: "rawdata",
//	    OutputDir: "outdata",
//	})
//
// # Main Packages
//
// ## Domain Logic
//
// [icd] - Normalization of historical cause-of-death codes into a comparable
// form, revision by revision. Handles zero padding, part letters and the
// revision-specific quirks of early code lists.
//
// [config] - The classification configuration: disease categories as code
// intervals per revision, signed display indices, the trunk definition, and
// aggregation and quality thresholds. Loaded from TOML with an embedded
// default.
//
// [table] - Shared table types: raw records, categorized records, aggregated
// rows, and age band parsing with numeric-aware ordering.
//
// [aggregate] - Per-year aggregation: top-N cause selection, terminal band
// collapsing, coarse band splitting, and the data quality gates.
//
// [layout] - The survival-chain tree layout. Converts aggregated counts to
// per-year fractions, derives the trunk rows, orders causes by signed
// category index, and computes cumulative and bundle positions in aligned or
// centered mode.
//
// ## Infrastructure
//
// [cache] - Stage-result caching keyed by content hashes. FileCache for the
// CLI (sharded JSON entries with optional TTL), NullCache for disabled
// caching, ScopedKeyer for namespacing.
//
// [store] - SQLite-backed persistence of aggregated tables per run, so the
// layout can be re-run without touching raw sources.
//
// [observability] - Pluggable hooks for pipeline, cache and store events.
// Defaults to no-ops.
//
// [errors] - Coded errors shared across the pipeline (MALFORMED_CODE,
// CATEGORY_OVERLAP, LAYOUT_INVARIANT and friends).
//
// ## Orchestration
//
// [pipeline] - The complete process → layout → export pipeline used by the
// CLI and any embedding program. Discovers datasets, fans out per-year work,
// assembles the table deterministically, and writes the artifacts.
//
// [io] - CSV/JSON import and export of source tables and layout artifacts.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Specific package
//
// [icd]: https://pkg.go.dev/github.com/causetree/causetree/pkg/icd
// [config]: https://pkg.go.dev/github.com/causetree/causetree/pkg/config
// [table]: https://pkg.go.dev/github.com/causetree/causetree/pkg/table
// [aggregate]: https://pkg.go.dev/github.com/causetree/causetree/pkg/aggregate
// [layout]: https://pkg.go.dev/github.com/causetree/causetree/pkg/layout
// [cache]: https://pkg.go.dev/github.com/causetree/causetree/pkg/cache
// [store]: https://pkg.go.dev/github.com/causetree/causetree/pkg/store
// [observability]: https://pkg.go.dev/github.com/causetree/causetree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/causetree/causetree/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/causetree/causetree/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/causetree/causetree/pkg/io
package pkg
