package cli

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/table"
)

// inspectCommand creates the inspect command for browsing a stored run.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		storePath string
		year      int
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "inspect <run-id>",
		Short: "Browse a stored run's years and top causes",
		Long: `Browse the aggregated table of a stored run.

Without --year an interactive browser opens: navigate across years and
see the leading causes of death per year. With --year the top causes of
that year are printed and the command exits, suitable for scripting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(storePath)
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := st.LoadRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if year != 0 {
				return printYearSummary(rows, year, limit)
			}

			model := NewYearBrowserModel(args[0], rows, limit)
			_, err = tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "run store path")
	cmd.Flags().IntVar(&year, "year", 0, "print the top causes of one year and exit")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of causes to show per year")

	return cmd
}

// causeTotal is a per-year cause summary line.
type causeTotal struct {
	Category    string
	Description string
	Count       int
}

// topCauses ranks a year's causes by total count across age bands.
func topCauses(rows []table.AggregatedRow, year, limit int) []causeTotal {
	byDesc := make(map[string]*causeTotal)
	for _, r := range rows {
		if r.Year != year {
			continue
		}
		t, ok := byDesc[r.Description]
		if !ok {
			t = &causeTotal{Category: r.Category, Description: r.Description}
			byDesc[r.Description] = t
		}
		t.Count += r.Count
	}

	causes := make([]causeTotal, 0, len(byDesc))
	for _, t := range byDesc {
		causes = append(causes, *t)
	}
	sort.Slice(causes, func(i, j int) bool {
		if causes[i].Count != causes[j].Count {
			return causes[i].Count > causes[j].Count
		}
		return causes[i].Description < causes[j].Description
	})
	if limit > 0 && len(causes) > limit {
		causes = causes[:limit]
	}
	return causes
}

// printYearSummary prints one year's leading causes without the TUI.
func printYearSummary(rows []table.AggregatedRow, year, limit int) error {
	causes := topCauses(rows, year, limit)
	if len(causes) == 0 {
		return errors.New(errors.ErrCodeNotFound, "no rows stored for year %d", year)
	}

	printInfo("Top causes, %d", year)
	for _, cause := range causes {
		fmt.Printf("  %8d  %-14s %s\n", cause.Count,
			StyleHighlight.Render(cause.Category), cause.Description)
	}
	return nil
}
