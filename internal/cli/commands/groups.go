package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/cli/config"
)

// NewGroupsCommand creates the groups command.
func NewGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "groups <pattern>",
		Short: "List indicator groups matching a display-name pattern",
		Example: `  # Find group ids to feed into scan
  dhis2scan groups malaria`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Current()
			client, err := newRegistryClient(cfg)
			if err != nil {
				return err
			}

			refs, err := client.SearchGroups(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(refs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No indicator groups match %q\n", args[0])
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Name"})
			for _, ref := range refs {
				t.AppendRow(table.Row{ref.ID, ref.DisplayName})
			}
			t.Render()
			return nil
		},
	}
}
