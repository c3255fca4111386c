package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// CSVOptions controls the optional CSV columns.
type CSVOptions struct {
	// IncludeMethods appends the CalcMethod column.
	IncludeMethods bool
}

// WriteCSV writes one row per service per project, followed by a TOTAL row
// and a blank separator row for each project.
//
// Amounts are rounded to cents per row and the TOTAL row sums the rounded
// rows, so every project block adds up exactly.
func WriteCSV(w io.Writer, r *models.Report, opts CSVOptions) error {
	cw := csv.NewWriter(w)

	header := []string{"Project", "Service", "Cost", "DailyAverage", "Status"}
	if opts.IncludeMethods {
		header = append(header, "CalcMethod")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	days := r.Period.Days()
	names := serviceNames(r)

	for _, p := range r.Projects {
		var costCents, dailyCents int64
		for _, svc := range p.SortedServices() {
			amt := p.Services[svc]
			c := amt.Cents()
			d := daily(amt, days).Cents()
			costCents += c
			dailyCents += d

			row := []string{p.DisplayName, names[svc], cents(c), cents(d), p.Status}
			if opts.IncludeMethods {
				row = append(row, string(p.Methods[svc]))
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}

		total := []string{p.DisplayName, "TOTAL", cents(costCents), cents(dailyCents), p.Status}
		if opts.IncludeMethods {
			total = append(total, "")
		}
		blank := make([]string, len(header))
		if err := cw.Write(total); err != nil {
			return fmt.Errorf("write csv total: %w", err)
		}
		if err := cw.Write(blank); err != nil {
			return fmt.Errorf("write csv separator: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
