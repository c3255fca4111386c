package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/aicost/internal/optimize"
)

// RenderPlan writes the optimization plan summary, service recommendations
// and roadmap to w.
func RenderPlan(w io.Writer, p optimize.Plan) {
	const (
		wName     = 30
		wService  = 11
		wSavings  = 12
		wEffort   = 7
		wPriority = 9
	)

	fmt.Fprintf(w, "Current AI spend: %s  Estimated savings: %s  Potential: %s\n",
		money(p.Summary.CurrentCost), money(p.Summary.EstimatedSavings), p.Summary.Potential)

	var recs []optimize.Recommendation
	for _, sp := range p.Services {
		recs = append(recs, sp.Recommendations...)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "\nNo service recommendations above the savings threshold.")
	} else {
		header := fmt.Sprintf("%-*s %-*s %*s %-*s %-*s %s",
			wName, "RECOMMENDATION", wService, "SERVICE", wSavings, "SAVINGS/MO", wEffort, "EFFORT", wPriority, "PRIORITY", "TIMELINE")
		fmt.Fprintln(w)
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("-", len(header)))
		for _, rec := range recs {
			fmt.Fprintf(w, "%-*s %-*s %*s %-*s %-*s %s\n",
				wName, truncateField(rec.Name, wName),
				wService, rec.Service,
				wSavings, money(rec.Savings),
				wEffort, rec.Effort,
				wPriority, rec.Priority,
				rec.Timeline)
		}
	}

	fmt.Fprintln(w)
	for _, ph := range p.Roadmap {
		fmt.Fprintf(w, "%s (%s)\n", ph.Name, money(ph.EstimatedSavings))
		for _, a := range ph.Actions {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
	fmt.Fprintf(w, "\nAnnual savings: %s  Payback: %d days\n", money(p.ROI.AnnualSavings), p.ROI.PaybackDays)
}
