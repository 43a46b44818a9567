package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/exascience/pargo/parallel"

	"github.com/causetree/causetree/pkg/cache"
	"github.com/causetree/causetree/pkg/errors"
	pkgio "github.com/causetree/causetree/pkg/io"
	"github.com/causetree/causetree/pkg/layout"
	"github.com/causetree/causetree/pkg/observability"
	"github.com/causetree/causetree/pkg/store"
	"github.com/causetree/causetree/pkg/table"
)

// Runner encapsulates pipeline execution with caching and persistence.
//
// The Runner is stateless except for the cache, store and logger; it does
// not hold pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  *store.Store
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If st is nil, aggregated tables are not persisted.
func NewRunner(c cache.Cache, keyer cache.Keyer, st *store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  st,
		Logger: logger,
	}
}

// Execute runs the complete process → layout → export pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: opts.RunID}

	// Stage 1: process every retained year.
	processStart := time.Now()
	datasets, err := DiscoverDatasets(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	result.Stats.Datasets = len(datasets)

	jobs, err := loadJobs(datasets, opts.Config)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no retained years found in %s", opts.SourceDir)
	}

	rows, err := r.processJobs(ctx, jobs, &opts, result)
	if err != nil {
		return nil, err
	}
	result.Rows = rows
	result.Stats.Years = len(jobs)
	result.Stats.RowCount = len(rows)
	result.Stats.ProcessTime = time.Since(processStart)

	r.Logger.Info("processed years",
		"years", result.Stats.Years,
		"rows", result.Stats.RowCount,
		"cache_hits", result.CacheInfo.TableHits,
		"duration", result.Stats.ProcessTime)

	// Stage 2: layout over the assembled table.
	layoutStart := time.Now()
	lay, layoutHit, err := r.ComputeLayout(ctx, rows, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = lay
	result.CacheInfo.LayoutHit = layoutHit
	result.Stats.LayoutTime = time.Since(layoutStart)

	r.Logger.Info("computed layout",
		"mode", opts.Mode,
		"rows", len(lay.Diseases),
		"duration", result.Stats.LayoutTime)

	// Stage 3: export artifacts.
	exportStart := time.Now()
	if err := r.Export(ctx, result, opts); err != nil {
		return nil, err
	}
	result.Stats.ExportTime = time.Since(exportStart)

	r.Logger.Info("exported artifacts",
		"dir", opts.OutputDir,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// processJobs fans out the per-year work and assembles the results in year
// order. Jobs arrive sorted, so indexing by position keeps the accumulator
// deterministic regardless of completion order.
func (r *Runner) processJobs(ctx context.Context, jobs []yearJob, opts *Options, result *Result) ([]table.AggregatedRow, error) {
	yearRows := make([][]table.AggregatedRow, len(jobs))
	hits := make([]bool, len(jobs))
	errs := make([]error, len(jobs))

	parallel.Range(0, len(jobs), opts.Workers, func(low, high int) {
		for i := low; i < high; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			yearRows[i], hits[i], errs[i] = r.processYear(ctx, jobs[i], opts)
		}
	})

	// First failing year wins, which keeps the reported error stable.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var rows []table.AggregatedRow
	for i, job := range jobs {
		if hits[i] {
			result.CacheInfo.TableHits++
		} else {
			result.CacheInfo.TableMisses++
		}
		if r.Store != nil {
			saveStart := time.Now()
			if err := r.Store.SaveYear(ctx, opts.RunID, job.year, yearRows[i]); err != nil {
				observability.Store().OnError(ctx, opts.RunID, err)
				return nil, err
			}
			observability.Store().OnSave(ctx, opts.RunID, job.year, len(yearRows[i]), time.Since(saveStart))
		}
		rows = append(rows, yearRows[i]...)
	}
	return rows, nil
}

// processYear produces one year's aggregated rows, consulting the cache
// first unless a refresh was requested.
func (r *Runner) processYear(ctx context.Context, job yearJob, opts *Options) (rows []table.AggregatedRow, hit bool, err error) {
	start := time.Now()
	observability.Pipeline().OnYearStart(ctx, job.year, int(job.rev))
	defer func() {
		observability.Pipeline().OnYearComplete(ctx, job.year, len(rows), time.Since(start), err)
	}()

	key := r.Keyer.TableKey(job.year, job.inputHash, opts.configHash)
	if !opts.Refresh {
		if data, ok, cacheErr := r.Cache.Get(ctx, key); cacheErr == nil && ok {
			if json.Unmarshal(data, &rows) == nil {
				observability.Cache().OnCacheHit(ctx, "table")
				r.Logger.Debug("table cache hit", "year", job.year)
				return rows, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "table")
	}

	r.Logger.Debug("processing year", "year", job.year, "revision", job.rev, "records", len(job.records))
	rows, err = ProcessYear(job.year, job.rev, job.records, job.descs, opts.Config)
	if err != nil {
		return nil, false, err
	}

	if data, marshalErr := json.Marshal(rows); marshalErr == nil {
		if setErr := r.Cache.Set(ctx, key, data, 0); setErr == nil {
			observability.Cache().OnCacheSet(ctx, "table", len(data))
		}
	}
	return rows, false, nil
}

// ComputeLayout runs the layout stage over an assembled table, consulting
// the cache keyed by the table content and the layout options.
func (r *Runner) ComputeLayout(ctx context.Context, rows []table.AggregatedRow, opts Options) (*layout.Result, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.Mode, len(rows))

	tableData, err := json.Marshal(rows)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash table")
	}
	key := r.Keyer.LayoutKey(cache.Hash(tableData), opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, ok, cacheErr := r.Cache.Get(ctx, key); cacheErr == nil && ok {
			var cached layout.Result
			if json.Unmarshal(data, &cached) == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				observability.Pipeline().OnLayoutComplete(ctx, opts.Mode, time.Since(start), nil)
				return &cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	lay, err := layout.Compute(rows, LayoutOptions(opts.Config, layout.Mode(opts.Mode)))
	observability.Pipeline().OnLayoutComplete(ctx, opts.Mode, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, marshalErr := json.Marshal(lay); marshalErr == nil {
		if setErr := r.Cache.Set(ctx, key, data, 0); setErr == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return lay, false, nil
}

// Export writes the aggregated table and the layout artifacts.
func (r *Runner) Export(ctx context.Context, result *Result, opts Options) (err error) {
	start := time.Now()
	observability.Pipeline().OnExportStart(ctx, opts.OutputDir)
	defer func() {
		observability.Pipeline().OnExportComplete(ctx, opts.OutputDir, time.Since(start), err)
	}()

	if err = os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create output directory")
	}
	if err = pkgio.ExportAggregatedCSV(result.Rows, opts.AggregatedPath()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "export aggregated table")
	}
	if err = pkgio.ExportResult(result.Layout, opts.OutputDir); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "export layout artifacts")
	}
	return nil
}

// LayoutRun re-runs the layout and export stages over a stored run,
// without touching raw sources.
func (r *Runner) LayoutRun(ctx context.Context, runID string, opts Options) (*Result, error) {
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no store configured")
	}
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}

	rows, err := r.Store.LoadRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Rows: rows}
	result.Stats.Years = len(table.Years(rows))
	result.Stats.RowCount = len(rows)

	lay, hit, err := r.ComputeLayout(ctx, rows, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = lay
	result.CacheInfo.LayoutHit = hit

	exportStart := time.Now()
	if err := r.Export(ctx, result, opts); err != nil {
		return nil, err
	}
	result.Stats.ExportTime = time.Since(exportStart)
	return result, nil
}
