package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/cli/config"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/report"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/state"
	"github.com/ArnholdInstitute/dhis2ingestion/internal/validate"
)

// ScanOptions holds options for the scan command.
type ScanOptions struct {
	GroupIDs  []string // Positional group ids
	GroupDesc string   // Match groups by display name instead
	OutPath   string   // Report destination, stdout when empty
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [group-id...]",
		Short: "Validate every indicator in the given groups",
		Long: `Scan resolves each group's indicators, rebuilds their formulas as
readable calculations, and reports validation findings.

Groups are selected by id, or by display name with --group-desc. A group
that fails to resolve is reported and skipped; the rest of the batch
continues.`,
		Example: `  # Scan two groups by id, CSV to stdout
  dhis2scan scan Oehv9EoVKGR dYTKPTEzier

  # Scan every group whose name mentions malaria, as JSON
  dhis2scan scan --group-desc malaria -o json

  # Keep a scan history
  dhis2scan scan Oehv9EoVKGR --state .dhis2scan/history.db`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.GroupIDs = args
			return runScan(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.GroupDesc, "group-desc", "", "Select groups whose display name matches this pattern")
	cmd.Flags().StringVar(&opts.OutPath, "out", "", "Write the report to a file instead of stdout")

	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanOptions) error {
	cfg := config.Current()
	ctx := cmd.Context()

	client, err := newRegistryClient(cfg)
	if err != nil {
		return err
	}

	groupIDs := opts.GroupIDs
	if len(groupIDs) == 0 && opts.GroupDesc != "" {
		refs, err := client.SearchGroups(ctx, opts.GroupDesc)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			groupIDs = append(groupIDs, ref.ID)
		}
	}
	if len(groupIDs) == 0 {
		return fmt.Errorf("no groups to scan: pass group ids or --group-desc")
	}

	factors, err := client.IndicatorTypeFactors(ctx)
	if err != nil {
		return fmt.Errorf("failed to load indicator types: %w", err)
	}

	scanner := validate.NewScanner(client, factors, cfg.Workers, slog.Default())
	startedAt := time.Now()

	var results []*validate.GroupResult
	for _, groupID := range groupIDs {
		res, err := scanner.ScanGroup(ctx, groupID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Failed to output indicators for group id %s: %v\n", groupID, err)
			continue
		}
		results = append(results, res)
	}

	if cfg.StatePath != "" {
		if err := saveHistory(ctx, cfg.StatePath, results, startedAt); err != nil {
			return err
		}
	}

	out := io.Writer(cmd.OutOrStdout())
	if opts.OutPath != "" {
		f, err := os.Create(opts.OutPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.OutPath, err)
		}
		defer f.Close()
		out = f
	}

	ropts := report.Options{BaseURL: client.BaseURL()}
	switch cfg.Output {
	case "json":
		return report.WriteJSON(out, results, ropts)
	case "table":
		report.WriteTable(out, results)
		return nil
	default:
		return report.WriteCSV(out, results, ropts)
	}
}

func saveHistory(ctx context.Context, path string, results []*validate.GroupResult, startedAt time.Time) error {
	store := state.NewStore()
	if err := store.Open(path); err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		return err
	}
	for _, res := range results {
		if _, err := store.SaveScan(ctx, res, startedAt); err != nil {
			return fmt.Errorf("failed to save scan of group %s: %w", res.Group.ID, err)
		}
	}
	return nil
}

// newRegistryClient builds the registry client from loaded config,
// checking that enough credentials are present.
func newRegistryClient(cfg *config.Config) (*registry.Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("no DHIS2 base URL configured: set --base-url, DHIS2_BASE_URL, or a params file entry")
	}
	if cfg.Token == "" && cfg.Username == "" {
		return nil, fmt.Errorf("no DHIS2 credentials configured: set --token or --username/--password")
	}
	return registry.New(registry.Config{
		BaseURL:  cfg.BaseURL,
		Username: cfg.Username,
		Password: cfg.Password,
		Token:    cfg.Token,
		Logger:   slog.Default(),
	})
}
