package models

import (
	"fmt"
	"time"
)

// CalcMethod names the rule that produced a project's share of a service.
type CalcMethod string

const (
	CalcTag             CalcMethod = "tag"
	CalcProportional    CalcMethod = "proportional"
	CalcFixedPercentage CalcMethod = "fixed-percentage"
	CalcUnattributed    CalcMethod = "unattributed"
)

// Period is a billing window with a human-inclusive end date. Both dates are
// interpreted as UTC calendar days.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered by p, at least 1.
func (p Period) Days() int {
	d := int(p.End.Sub(p.Start).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// MonthToDate returns the period from the first of now's month to now.
func MonthToDate(now time.Time) Period {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: end}
}

// DateLayout is the YYYY-MM-DD form of period boundaries.
const DateLayout = "2006-01-02"

// ParsePeriod reads inclusive DateLayout dates. An empty start or end
// falls back to the month-to-date boundary of now.
func ParsePeriod(start, end string, now time.Time) (Period, error) {
	p := MonthToDate(now)
	if start != "" {
		t, err := time.Parse(DateLayout, start)
		if err != nil {
			return p, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", start)
		}
		p.Start = t
	}
	if end != "" {
		t, err := time.Parse(DateLayout, end)
		if err != nil {
			return p, fmt.Errorf("invalid end date %q: want YYYY-MM-DD", end)
		}
		p.End = t
	}
	if p.End.Before(p.Start) {
		return p, fmt.Errorf("end date %s is before start date %s", p.End.Format(DateLayout), p.Start.Format(DateLayout))
	}
	return p, nil
}

// ProjectCostSummary is the attributed spend of one project bucket.
type ProjectCostSummary struct {
	ProjectID   string `json:"project_id"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status,omitempty"`

	Total         Amount                    `json:"total"`
	Services      map[ServiceKey]Amount     `json:"services"`
	Methods       map[ServiceKey]CalcMethod `json:"methods,omitempty"`
	ResourceCount int                       `json:"resource_count"`
}

// Add accumulates amount for svc. The first method recorded for a service
// is kept.
func (p *ProjectCostSummary) Add(svc ServiceKey, amount Amount, method CalcMethod) {
	if p.Services == nil {
		p.Services = make(map[ServiceKey]Amount)
	}
	if p.Methods == nil {
		p.Methods = make(map[ServiceKey]CalcMethod)
	}
	p.Services[svc] += amount
	p.Total += amount
	if _, ok := p.Methods[svc]; !ok {
		p.Methods[svc] = method
	}
}

// SortedServices returns the services with spend in canonical order.
func (p *ProjectCostSummary) SortedServices() []ServiceKey {
	var keys []ServiceKey
	for _, k := range AllServiceKeys {
		if _, ok := p.Services[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// AccountReport is the attribution result for one AWS account.
type AccountReport struct {
	AccountID    string               `json:"account_id"`
	AccountName  string               `json:"account_name,omitempty"`
	Discovery    *DiscoveryResult     `json:"discovery,omitempty"`
	ServiceCosts []ServiceCost        `json:"service_costs"`
	Projects     []ProjectCostSummary `json:"projects"`

	// ServiceTotal is the sum of fetched service totals.
	ServiceTotal Amount `json:"service_total"`
	// AttributedTotal is the sum of all project buckets, Unattributed included.
	AttributedTotal Amount `json:"attributed_total"`
}

// Report is the complete output of a calculation run.
type Report struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Period      Period    `json:"period"`

	Accounts []AccountReport `json:"accounts"`

	// Projects merges the per-account project summaries.
	Projects []ProjectCostSummary `json:"projects"`

	ServiceTotal    Amount `json:"service_total"`
	AttributedTotal Amount `json:"attributed_total"`
}

// Project returns the merged summary for id, if present.
func (r *Report) Project(id string) (ProjectCostSummary, bool) {
	for _, p := range r.Projects {
		if p.ProjectID == id {
			return p, true
		}
	}
	return ProjectCostSummary{}, false
}

// ServiceTotals returns the fetched total of each service across accounts.
func (r *Report) ServiceTotals() map[ServiceKey]Amount {
	out := make(map[ServiceKey]Amount)
	for _, a := range r.Accounts {
		for _, sc := range a.ServiceCosts {
			out[sc.Service] += sc.Total
		}
	}
	return out
}
