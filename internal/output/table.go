package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// ANSI color codes for status output (used when Colored=true).
const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[0;32m"
	ansiYellow = "\033[0;33m"
	ansiBlue   = "\033[0;34m"
	ansiGrey   = "\033[0;90m"
)

// TableOptions controls which columns RenderTable renders.
type TableOptions struct {
	// Colored wraps status labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeMethods adds a METHOD column to the per-service breakdown.
	IncludeMethods bool

	// IncludeServices prints the per-service breakdown under each project.
	IncludeServices bool
}

// statusCell returns the status padded to width characters. When colored,
// ANSI codes wrap only the text so trailing padding stays aligned.
func statusCell(status string, width int, colored bool) string {
	if !colored {
		return fmt.Sprintf("%-*s", width, status)
	}
	var code string
	switch strings.ToLower(status) {
	case "production":
		code = ansiGreen
	case "mvp":
		code = ansiBlue
	case "poc":
		code = ansiYellow
	case "paused", "tbd":
		code = ansiGrey
	default:
		return fmt.Sprintf("%-*s", width, status)
	}
	spaces := width - len(status)
	if spaces < 0 {
		spaces = 0
	}
	return code + status + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for name columns.
func truncateField(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

// money formats an amount rounded to cents.
func money(a models.Amount) string {
	return "$" + cents(a.Cents())
}

// cents formats a non-negative cent count as a decimal string.
func cents(c int64) string {
	if c < 0 {
		return "-" + cents(-c)
	}
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

// daily returns a/days.
func daily(a models.Amount, days int) models.Amount {
	if days < 1 {
		days = 1
	}
	return a / models.Amount(days)
}

// RenderTable writes the project attribution table of r to w.
//
// Column order:
//
//	PROJECT  STATUS  RESOURCES  COST  DAILY AVG
//
// followed by a service totals table.
func RenderTable(w io.Writer, r *models.Report, opts TableOptions) {
	if r == nil || len(r.Projects) == 0 {
		fmt.Fprintln(w, "No AI spend attributed.")
		return
	}

	const (
		wProject   = 28
		wStatus    = 11
		wResources = 10
		wCost      = 14
		wService   = 24
		wMethod    = 17
	)
	days := r.Period.Days()
	names := serviceNames(r)

	header := fmt.Sprintf("%-*s %-*s %*s %*s %*s",
		wProject, "PROJECT", wStatus, "STATUS", wResources, "RESOURCES", wCost, "COST", wCost, "DAILY AVG")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, p := range r.Projects {
		fmt.Fprintf(w, "%-*s %s %*d %*s %*s\n",
			wProject, truncateField(p.DisplayName, wProject),
			statusCell(p.Status, wStatus, opts.Colored),
			wResources, p.ResourceCount,
			wCost, money(p.Total),
			wCost, money(daily(p.Total, days)))

		if !opts.IncludeServices {
			continue
		}
		for _, svc := range p.SortedServices() {
			line := fmt.Sprintf("  %-*s %*s", wService, truncateField(names[svc], wService), wCost, money(p.Services[svc]))
			if opts.IncludeMethods {
				line += fmt.Sprintf("  %-*s", wMethod, p.Methods[svc])
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Period: %s to %s (%d days)\n", r.Period.Start.Format("2006-01-02"), r.Period.End.Format("2006-01-02"), days)
	fmt.Fprintf(w, "Fetched service spend: %s  Attributed to projects: %s\n", money(r.ServiceTotal), money(r.AttributedTotal))
}

// RenderServiceTable writes the fetched spend of every service across
// accounts.
func RenderServiceTable(w io.Writer, r *models.Report) {
	const (
		wService = 28
		wKind    = 8
		wCost    = 14
	)
	header := fmt.Sprintf("%-*s %-*s %*s %*s", wService, "SERVICE", wKind, "KIND", wCost, "TOTAL", wCost, "AI ESTIMATE")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	type row struct {
		name     string
		kind     models.ServiceKind
		total    models.Amount
		estimate models.Amount
	}
	rows := make(map[models.ServiceKey]*row)
	for _, a := range r.Accounts {
		for _, sc := range a.ServiceCosts {
			rw, ok := rows[sc.Service]
			if !ok {
				rw = &row{name: sc.DisplayName, kind: sc.Kind}
				rows[sc.Service] = rw
			}
			rw.total += sc.Total
			rw.estimate += sc.AIEstimate
		}
	}
	for _, k := range models.AllServiceKeys {
		rw, ok := rows[k]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-*s %-*s %*s %*s\n",
			wService, truncateField(rw.name, wService), wKind, rw.kind,
			wCost, money(rw.total), wCost, money(rw.estimate))
	}
}

// RenderDiscoveryTable writes the resources of d grouped by service.
func RenderDiscoveryTable(w io.Writer, d *models.DiscoveryResult) {
	const (
		wName    = 40
		wType    = 15
		wProject = 20
		wMatch   = 8
	)
	fmt.Fprintf(w, "Account %s (%s)\n", d.AccountID, d.Region)
	if d.TotalResources() == 0 && len(d.Errors) == 0 {
		fmt.Fprintln(w, "No AI-related resources found.")
		return
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s", wName, "RESOURCE", wType, "TYPE", wProject, "PROJECT", wMatch, "MATCH")
	for _, svc := range d.SortedServices() {
		records := d.Services[svc]
		if len(records) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d)\n", strings.ToUpper(string(svc)), len(records))
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("-", len(header)))
		for _, rec := range records {
			fmt.Fprintf(w, "%-*s %-*s %-*s %-*s\n",
				wName, truncateField(rec.Name, wName),
				wType, rec.Type,
				wProject, truncateField(rec.Project, wProject),
				wMatch, rec.MatchedBy)
		}
	}

	for _, svc := range models.AllServiceKeys {
		if msg, ok := d.Errors[svc]; ok {
			fmt.Fprintf(w, "\nWARN: %s listing failed: %s\n", svc, msg)
		}
	}
}

// RenderAccounts writes a numbered account list for interactive selection.
func RenderAccounts(w io.Writer, accounts []models.Account) {
	for i, a := range accounts {
		name := a.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%3d) %-14s %s\n", i+1, a.ID, name)
	}
}

// serviceNames maps each service in r to its display name.
func serviceNames(r *models.Report) map[models.ServiceKey]string {
	out := make(map[models.ServiceKey]string)
	for _, k := range models.AllServiceKeys {
		out[k] = string(k)
	}
	for _, a := range r.Accounts {
		for _, sc := range a.ServiceCosts {
			if sc.DisplayName != "" {
				out[sc.Service] = sc.DisplayName
			}
		}
	}
	return out
}
