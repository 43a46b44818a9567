// Package pipeline provides the core processing pipeline for Causetree.
//
// This package implements the complete process → layout → export pipeline
// that turns raw per-revision mortality tables into the layout artifacts a
// rendering layer consumes. By centralizing this logic, the CLI and any
// embedding program share one implementation of staging, caching and
// persistence.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Process: normalize, classify and aggregate each retained year
//  2. Layout: compute the survival-chain tree layout over the full table
//  3. Export: write the CSV/JSON artifacts
//
// Each stage can be run independently or as part of the complete pipeline.
// Years are independent of one another, so the process stage fans out
// across years and appends results in deterministic year order.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	opts := pipeline.Options{
//	    SourceDir: "rawdata",
//	    OutputDir: "outdata",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.RunID, result.Stats.Years)
package pipeline

import (
	"encoding/json"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/causetree/causetree/pkg/cache"
	"github.com/causetree/causetree/pkg/config"
	"github.com/causetree/causetree/pkg/errors"
	pkgio "github.com/causetree/causetree/pkg/io"
	"github.com/causetree/causetree/pkg/layout"
	"github.com/causetree/causetree/pkg/table"
)

// Default values shared by every entry point.
const (
	// DefaultOutputDir is where artifacts land when no directory is given.
	DefaultOutputDir = "outdata"

	// DefaultMode is the default layout alignment policy.
	DefaultMode = string(layout.ModeAligned)
)

// ValidModes is the set of supported layout alignment policies.
var ValidModes = map[string]bool{
	string(layout.ModeAligned):  true,
	string(layout.ModeCentered): true,
}

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for job descriptions.
type Options struct {
	// Process options
	SourceDir string `json:"source_dir,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	Refresh   bool   `json:"refresh,omitempty"`
	Workers   int    `json:"workers,omitempty"`

	// Layout options
	Mode string `json:"mode,omitempty"`

	// Export options
	OutputDir string `json:"output_dir,omitempty"`

	// Runtime options (not serialized)
	Config *config.Config `json:"-"`
	Logger *log.Logger    `json:"-"`

	// configHash caches the hash of the effective configuration.
	configHash string `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in the store.
	RunID string

	// Rows is the assembled cross-revision aggregated table.
	Rows []table.AggregatedRow

	// Layout is the computed tree layout over Rows.
	Layout *layout.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Datasets    int
	Years       int
	RowCount    int
	ProcessTime time.Duration
	LayoutTime  time.Duration
	ExportTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TableHits   int  // Years whose aggregated rows came from cache
	TableMisses int  // Years that were reprocessed
	LayoutHit   bool // Whether the layout result came from cache
}

// ValidateMode checks that a layout mode is valid.
func ValidateMode(mode string) error {
	if !ValidModes[mode] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid mode: %q (must be one of: aligned, centered)", mode)
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SourceDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source directory is required")
	}
	if err := o.setCommonDefaults(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLayout validates and sets defaults for a layout-only run over
// a stored table, which needs no source directory.
func (o *Options) ValidateForLayout() error {
	return o.setCommonDefaults()
}

func (o *Options) setCommonDefaults() error {
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	if o.Config == nil {
		o.Config = config.Default()
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.configHash == "" {
		raw, err := json.Marshal(o.Config)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "hash config")
		}
		o.configHash = cache.Hash(raw)
	}
	return nil
}

// LayoutOptions builds the layout engine options from the configuration.
// The display order is trunk first, then the declared categories, with the
// unclassified sentinel last.
func LayoutOptions(cfg *config.Config, mode layout.Mode) layout.Options {
	order := append([]string{cfg.Trunk.Category}, cfg.CategoryNames()...)
	indices := make(map[string]int, len(order))
	for _, name := range order {
		if idx, ok := cfg.CategoryIndex(name); ok {
			indices[name] = idx
		}
	}

	return layout.Options{
		Mode:          mode,
		TrunkCategory: cfg.Trunk.Category,
		TrunkLabel:    cfg.Trunk.Label,
		Indices:       indices,
		CategoryOrder: order,
	}
}

// AggregatedPath returns where the aggregated table CSV is written.
func (o *Options) AggregatedPath() string {
	return filepath.Join(o.OutputDir, pkgio.AggregatedFile)
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Mode:          o.Mode,
		TrunkCategory: o.Config.Trunk.Category,
		TrunkLabel:    o.Config.Trunk.Label,
	}
}
