// Package cli implements the causetree command-line interface.
//
// This package provides commands for processing raw mortality tables into
// the cross-revision aggregated table and its tree layout artifacts,
// re-running the layout over stored runs, browsing stored runs
// interactively, and managing the stage-result cache. The CLI is built
// using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - process: Classify, aggregate and lay out a directory of source tables
//   - layout: Re-run the layout and export stages over a stored run
//   - inspect: Browse a stored run's years and top causes
//   - runs: List and delete stored runs
//   - cache: Manage the stage-result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/causetree/causetree/pkg/buildinfo"
	"github.com/causetree/causetree/pkg/cache"
	"github.com/causetree/causetree/pkg/pipeline"
	"github.com/causetree/causetree/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "causetree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Causetree turns historical mortality tables into cause-of-death trees",
		Long:         `Causetree processes century-spanning cause-of-death tables coded under ICD revisions 2 through 9 into a unified aggregated table and a hierarchical tree layout that a rendering layer can draw as a flow diagram.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.processCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The store is optional:
// an empty storePath selects the default location, "none" disables
// persistence entirely.
func (c *CLI) newRunner(noCache bool, storePath string) (*pipeline.Runner, error) {
	stageCache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	st, err := openStore(storePath)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(stageCache, nil, st, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func openStore(path string) (*store.Store, error) {
	if path == "none" {
		return nil, nil
	}
	if path == "" {
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "runs.db")
	}
	return store.Open(path)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/causetree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the data directory using XDG standard (~/.local/share/causetree/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
