package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/causetree/causetree/pkg/config"
	pkgio "github.com/causetree/causetree/pkg/io"
	"github.com/causetree/causetree/pkg/pipeline"
)

// layoutCommand creates the layout command for re-running the layout and
// export stages over a stored run.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		configPath string
		storePath  string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout <run-id>",
		Short: "Re-run the tree layout over a stored run",
		Long: `Re-run the layout and export stages over the aggregated table of a
stored run, without reprocessing raw sources.

This is the cheap path for trying a different alignment policy: the
expensive classification and aggregation results are read back from the
run store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := args[0]
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
			if runner.Store == nil {
				return fmt.Errorf("layout requires a run store")
			}
			defer runner.Store.Close()

			result, err := runner.LayoutRun(cmd.Context(), runID, opts)
			if err != nil {
				return err
			}

			printSuccess("Laid out %d rows across %d years", result.Stats.RowCount, result.Stats.Years)
			printStats(result.Stats.Years, result.Stats.RowCount, result.CacheInfo.LayoutHit)
			printKeyValue("mode", opts.Mode)
			for _, name := range []string{pkgio.AggregatedFile, pkgio.DiseaseFile, pkgio.CategoryFile, pkgio.MetadataFile} {
				printFile(filepath.Join(opts.OutputDir, name))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "out", "o", pipeline.DefaultOutputDir, "output directory for artifacts")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", pipeline.DefaultMode, "layout alignment: aligned (default), centered")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file (default: embedded configuration)")
	cmd.Flags().StringVar(&storePath, "store", "", "run store path")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the stage-result cache")

	return cmd
}
