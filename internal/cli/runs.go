package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// runsCommand creates the runs management command.
func (c *CLI) runsCommand() *cobra.Command {
	var storePath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage stored pipeline runs",
	}
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "run store path")

	cmd.AddCommand(c.runsListCommand(&storePath))
	cmd.AddCommand(c.runsDeleteCommand(&storePath))

	return cmd
}

// runsListCommand creates the "runs list" subcommand.
func (c *CLI) runsListCommand(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs and their year ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*storePath)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No stored runs")
				printDetail("Store: %s", st.Path())
				return nil
			}

			for _, id := range runs {
				years, err := st.Years(cmd.Context(), id)
				if err != nil {
					return err
				}
				span := "empty"
				if len(years) > 0 {
					span = fmt.Sprintf("%d-%d, %d years", years[0], years[len(years)-1], len(years))
				}
				printInfo("%s", id)
				printDetail("%s", span)
			}
			printDetail("Store: %s", st.Path())
			return nil
		},
	}
}

// runsDeleteCommand creates the "runs delete" subcommand.
func (c *CLI) runsDeleteCommand(storePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*storePath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRun(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted run %s", args[0])
			return nil
		},
	}
}
