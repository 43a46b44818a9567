package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/causetree/causetree/pkg/config"
	pkgio "github.com/causetree/causetree/pkg/io"
	"github.com/causetree/causetree/pkg/pipeline"
)

// processCommand creates the process command, the pipeline's main entry
// point: classify, aggregate, lay out and export a source directory.
func (c *CLI) processCommand() *cobra.Command {
	var (
		configPath string
		storePath  string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "process <source-dir>",
		Short: "Process raw mortality tables into tree layout artifacts",
		Long: `Process a directory of raw mortality tables into the cross-revision
aggregated table and its tree layout artifacts.

The source directory must contain one count table per ICD revision
("*icdN.csv" with columns code,year,sex,age,count) and its description
table ("*icdN-desc.csv" with columns code,description). Each retained
year is normalized, classified into disease categories, aggregated, and
the assembled table is laid out as a survival-chain tree.

Aggregated rows are persisted per run, so the layout can be re-run later
with 'causetree layout'. Stage results are cached locally for faster
subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SourceDir = args[0]
			opts.Logger = loggerFromContext(cmd.Context())
			if configPath != "" {
				cfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				opts.Config = cfg
			}

			runner, err := c.newRunner(noCache, storePath)
			if err != nil {
				return err
			}
			if runner.Store != nil {
				defer runner.Store.Close()
			}

			prog := newProgress(opts.Logger)
			spin := newSpinnerWithContext(cmd.Context(), "Processing mortality tables")
			spin.Start()

			result, err := runner.Execute(cmd.Context(), opts)
			if err != nil {
				spin.StopWithError(fmt.Sprintf("Processing failed: %v", err))
				return err
			}

			spin.StopWithSuccess(fmt.Sprintf("Processed %d years from %d datasets", result.Stats.Years, result.Stats.Datasets))
			prog.done(fmt.Sprintf("Assembled %d aggregated rows", result.Stats.RowCount))

			printStats(result.Stats.Years, result.Stats.RowCount,
				result.Stats.Years > 0 && result.CacheInfo.TableMisses == 0)
			printKeyValue("run", result.RunID)
			printKeyValue("mode", opts.Mode)

			for _, name := range []string{pkgio.AggregatedFile, pkgio.DiseaseFile, pkgio.CategoryFile, pkgio.MetadataFile} {
				printFile(filepath.Join(opts.OutputDir, name))
			}
			printNextStep("Browse the run", appName+" inspect "+result.RunID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "out", "o", pipeline.DefaultOutputDir, "output directory for artifacts")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", pipeline.DefaultMode, "layout alignment: aligned (default), centered")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "run identifier (default: random UUID)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "parallel year workers (0 = automatic)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "reprocess even when cached results exist")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file (default: embedded configuration)")
	cmd.Flags().StringVar(&storePath, "store", "", `run store path ("none" disables persistence)`)
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the stage-result cache")

	return cmd
}
