package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/aicost/internal/engine"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/output"
)

func newDiscoverCmd(a *app) *cobra.Command {
	var (
		accounts  accountFlags
		services  []string
		format    string
		export    bool
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List AI-related resources and the project each belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != string(engine.ReportFormatTable) && format != string(engine.ReportFormatJSON) {
				return fmt.Errorf("unsupported format %q: use table or json", format)
			}
			catalog, err := a.catalog()
			if err != nil {
				return err
			}
			keys, err := catalog.ParseServices(services)
			if err != nil {
				return err
			}
			sessions, err := a.sessions(cmd, accounts)
			if err != nil {
				return err
			}

			eng := a.newEngine(catalog, a.logger)
			w := cmd.OutOrStdout()
			var results []*models.DiscoveryResult
			for _, s := range sessions {
				d, err := eng.Discover(cmd.Context(), s, keys)
				if err != nil {
					return fmt.Errorf("account %s: %w", s.AccountID, err)
				}
				d.AccountName = s.AccountName
				results = append(results, d)
				if format == string(engine.ReportFormatTable) {
					output.RenderDiscoveryTable(w, d)
					fmt.Fprintln(w)
				}
			}
			if format == string(engine.ReportFormatJSON) {
				if err := output.WriteJSON(w, results); err != nil {
					return err
				}
			}

			if export {
				dir := outputDir
				if dir == "" {
					dir = a.settings.OutputDir
				}
				return exportDiscovery(cmd, dir, output.Stamp(a.now()), results)
			}
			return nil
		},
	}

	accounts.register(cmd)
	cmd.Flags().StringSliceVar(&services, "services", nil, "Restrict to these services (default: every catalog service)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&export, "export", false, "Write one discovery snapshot per account to --output-dir")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Export directory (default: settings output_dir)")
	return cmd
}

// exportDiscovery writes a discovery-<account>-<stamp>.json per result.
func exportDiscovery(cmd *cobra.Command, dir, stamp string, results []*models.DiscoveryResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, d := range results {
		path := filepath.Join(dir, output.DiscoveryFileName(d.AccountID, stamp))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		werr := output.WriteJSON(f, d)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("write %s: %w", path, werr)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s\n", path)
	}
	return nil
}
