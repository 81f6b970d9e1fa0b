package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/cli/config"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/state"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List previously stored scans",
		Long: `History reads the scan-history database written by scan --state and
lists every stored scan with its indicator and finding counts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Current()
			if cfg.StatePath == "" {
				return fmt.Errorf("no scan-history database configured: set --state")
			}

			store := state.NewStore()
			if err := store.Open(cfg.StatePath); err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(); err != nil {
				return err
			}

			scans, err := store.ListScans(cmd.Context())
			if err != nil {
				return err
			}
			if len(scans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No scans stored yet")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Scan", "Group", "Name", "Started", "Indicators", "Findings"})
			for _, sc := range scans {
				t.AppendRow(table.Row{
					sc.ID,
					sc.GroupID,
					sc.GroupName,
					sc.StartedAt.Format(time.RFC3339),
					sc.Indicators,
					sc.Findings,
				})
			}
			t.Render()
			return nil
		},
	}
}
