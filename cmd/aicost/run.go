package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/aicost/internal/engine"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/optimize"
	"github.com/pankaj-dahiya-devops/aicost/internal/output"
)

type runFlags struct {
	accounts  accountFlags
	start     string
	end       string
	services  []string
	format    string
	methods   bool
	breakdown bool
	tags      bool
	optimize  bool
	export    bool
	outputDir string
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Discover resources, fetch spend and attribute it to AI projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, f)
		},
	}

	f.accounts.register(cmd)
	cmd.Flags().StringVar(&f.start, "start", "", "First day of the period, YYYY-MM-DD (default: first of this month)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last day of the period, inclusive, YYYY-MM-DD (default: today)")
	cmd.Flags().StringSliceVar(&f.services, "services", nil, "Restrict to these services (default: every catalog service)")
	cmd.Flags().StringVar(&f.format, "format", "table", "Output format: table, json or csv")
	cmd.Flags().BoolVar(&f.methods, "methods", false, "Show the calculation method of every share")
	cmd.Flags().BoolVar(&f.breakdown, "breakdown", false, "Show per-service amounts under each project (table format)")
	cmd.Flags().BoolVar(&f.tags, "tags", false, "Use cost-allocation tag breakdowns when available")
	cmd.Flags().BoolVar(&f.optimize, "optimize", false, "Append the optimization plan")
	cmd.Flags().BoolVar(&f.export, "export", false, "Write CSV, JSON and discovery snapshots to --output-dir")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "Export directory (default: settings output_dir)")
	return cmd
}

func (a *app) run(cmd *cobra.Command, f runFlags) error {
	format := engine.ReportFormat(f.format)
	if err := checkFormat(format); err != nil {
		return err
	}
	period, err := models.ParsePeriod(f.start, f.end, a.now())
	if err != nil {
		return err
	}
	catalog, err := a.catalog()
	if err != nil {
		return err
	}
	services, err := catalog.ParseServices(f.services)
	if err != nil {
		return err
	}

	sessions, err := a.sessions(cmd, f.accounts)
	if err != nil {
		return err
	}

	eng := a.newEngine(catalog, a.logger)
	report, err := eng.Run(cmd.Context(), sessions, engine.RunOptions{
		Period:         period,
		Services:       services,
		TagAttribution: f.tags,
	})
	if err != nil {
		return fmt.Errorf("attribution failed: %w", err)
	}

	w := cmd.OutOrStdout()
	var plan *optimize.Plan
	if f.optimize {
		p := optimize.Build(report)
		plan = &p
	}
	if err := renderReport(w, format, report, plan, f); err != nil {
		return err
	}

	if f.export {
		dir := f.outputDir
		if dir == "" {
			dir = a.settings.OutputDir
		}
		paths, err := output.Export(report, output.ExportOptions{
			Dir:            dir,
			Stamp:          output.Stamp(report.GeneratedAt),
			IncludeMethods: f.methods,
		})
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s\n", p)
		}
	}
	return nil
}

// renderReport writes report, and plan when set, in format.
func renderReport(w io.Writer, format engine.ReportFormat, report *models.Report, plan *optimize.Plan, f runFlags) error {
	switch format {
	case engine.ReportFormatJSON:
		if plan == nil {
			return output.WriteJSON(w, report)
		}
		return output.WriteJSON(w, struct {
			Report       *models.Report `json:"report"`
			Optimization *optimize.Plan `json:"optimization"`
		}{report, plan})
	case engine.ReportFormatCSV:
		return output.WriteCSV(w, report, output.CSVOptions{IncludeMethods: f.methods})
	default:
		output.RenderTable(w, report, output.TableOptions{
			IncludeServices: f.breakdown || f.methods,
			IncludeMethods:  f.methods,
		})
		fmt.Fprintln(w)
		output.RenderServiceTable(w, report)
		if plan != nil {
			fmt.Fprintln(w)
			output.RenderPlan(w, *plan)
		}
		return nil
	}
}

func checkFormat(f engine.ReportFormat) error {
	switch f {
	case engine.ReportFormatTable, engine.ReportFormatJSON, engine.ReportFormatCSV:
		return nil
	}
	return fmt.Errorf("unsupported format %q: use table, json or csv", f)
}
