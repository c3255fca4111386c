// Package optimize builds a templated cost optimization plan from an
// attribution report. Savings figures are canned fractions of the current
// cost, not measurements.
package optimize

import (
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

const (
	// MinSavings is the smallest estimated saving worth recommending.
	MinSavings models.Amount = 10

	// AlternativeThreshold is the service cost above which replacement
	// services are listed.
	AlternativeThreshold models.Amount = 50

	// SummarySavingsFraction is the overall saving estimated in the summary.
	SummarySavingsFraction = 0.45

	// HighPotentialThreshold separates "high" from "medium" potential.
	HighPotentialThreshold models.Amount = 100
)

// Priority ranks a recommendation.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Recommendation is one suggested change and its estimated monthly saving.
type Recommendation struct {
	Name        string            `json:"name"`
	Service     models.ServiceKey `json:"service,omitempty"`
	Description string            `json:"description"`
	Savings     models.Amount     `json:"monthly_savings"`
	Effort      Effort            `json:"effort"`
	Timeline    string            `json:"timeline"`
	Priority    Priority          `json:"priority"`
}

// ServicePlan holds the recommendations for one service.
type ServicePlan struct {
	Service         models.ServiceKey `json:"service"`
	CurrentCost     models.Amount     `json:"current_cost"`
	Recommendations []Recommendation  `json:"recommendations"`
	// SavingsPotential sums the three largest recommendations.
	SavingsPotential models.Amount `json:"total_savings_potential"`
}

// ProjectPlan holds the generic recommendations for one project.
type ProjectPlan struct {
	ProjectID       string           `json:"project_id"`
	DisplayName     string           `json:"display_name"`
	CurrentCost     models.Amount    `json:"current_cost"`
	ResourceCount   int              `json:"resource_count"`
	Potential       string           `json:"optimization_potential"`
	Score           int              `json:"optimization_score"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Summary is the headline of a plan.
type Summary struct {
	CurrentCost      models.Amount `json:"current_cost"`
	EstimatedSavings models.Amount `json:"estimated_savings"`
	Potential        string        `json:"optimization_potential"`
}

// Phase is one step of the implementation roadmap.
type Phase struct {
	Name             string        `json:"phase"`
	Actions          []string      `json:"actions"`
	EstimatedSavings models.Amount `json:"estimated_savings"`
	Effort           Effort        `json:"effort"`
}

// ROI estimates the return of the roadmap.
type ROI struct {
	MonthlySavings     models.Amount `json:"monthly_savings"`
	AnnualSavings      models.Amount `json:"annual_savings"`
	ImplementationCost models.Amount `json:"implementation_cost"`
	PaybackDays        int           `json:"payback_period_days"`
	SavingsPercentage  float64       `json:"savings_percentage"`
}

// Plan is the full optimization plan of a report.
type Plan struct {
	Summary   Summary          `json:"summary"`
	Immediate []Recommendation `json:"immediate_actions"`
	ShortTerm []Recommendation `json:"short_term_optimizations"`
	LongTerm  []Recommendation `json:"long_term_strategies"`
	Services  []ServicePlan    `json:"service_specific"`
	Projects  []ProjectPlan    `json:"project_specific"`
	Roadmap   []Phase          `json:"implementation_roadmap"`
	ROI       ROI              `json:"roi_analysis"`
}

// Build returns the optimization plan of r. Build is deterministic and does
// no I/O.
func Build(r *models.Report) Plan {
	var plan Plan
	plan.Summary = summarize(r.AttributedTotal)

	totals := r.ServiceTotals()
	for _, svc := range models.AllServiceKeys {
		cost := totals[svc]
		if cost <= 0 {
			continue
		}
		if sp, ok := servicePlan(svc, cost); ok {
			plan.Services = append(plan.Services, sp)
		}
	}

	for _, p := range r.Projects {
		if p.ProjectID == models.Unattributed || p.Total <= 0 {
			continue
		}
		plan.Projects = append(plan.Projects, projectPlan(p))
	}

	plan.Immediate, plan.ShortTerm, plan.LongTerm = categorize(plan.Services)
	plan.Roadmap = roadmap(plan, r.AttributedTotal)
	plan.ROI = roi(plan.Roadmap, r.AttributedTotal)
	return plan
}

func summarize(total models.Amount) Summary {
	return Summary{
		CurrentCost:      total,
		EstimatedSavings: total * SummarySavingsFraction,
		Potential:        potential(total),
	}
}

// potential is "high" above HighPotentialThreshold and "medium" otherwise.
func potential(cost models.Amount) string {
	if cost > HighPotentialThreshold {
		return "high"
	}
	return "medium"
}

// servicePlan applies the canned techniques and alternatives of svc to cost.
// It reports false when svc has no canned techniques.
func servicePlan(svc models.ServiceKey, cost models.Amount) (ServicePlan, bool) {
	techs, hasTechs := techniques[svc]
	alts := alternatives[svc]
	if !hasTechs && len(alts) == 0 {
		return ServicePlan{}, false
	}

	sp := ServicePlan{Service: svc, CurrentCost: cost}
	for _, t := range techs {
		saving := cost * models.Amount(t.Savings)
		if saving <= MinSavings {
			continue
		}
		sp.Recommendations = append(sp.Recommendations, Recommendation{
			Name:        t.Name,
			Service:     svc,
			Description: t.Description,
			Savings:     saving,
			Effort:      t.Effort,
			Timeline:    t.Timeline,
			Priority:    priority(saving, t.Effort),
		})
	}
	if cost > AlternativeThreshold {
		for _, a := range alts {
			sp.Recommendations = append(sp.Recommendations, Recommendation{
				Name:        "Migrate to " + a.Service,
				Service:     svc,
				Description: a.UseCase,
				Savings:     cost * models.Amount(a.Savings),
				Effort:      EffortHigh,
				Timeline:    "2-4 weeks",
				Priority:    PriorityMedium,
			})
		}
	}

	sortBySavings(sp.Recommendations)
	for i, rec := range sp.Recommendations {
		if i == 3 {
			break
		}
		sp.SavingsPotential += rec.Savings
	}
	return sp, true
}

// priority ranks a saving by size and effort.
func priority(saving models.Amount, effort Effort) Priority {
	switch {
	case saving > 100 && effort == EffortLow:
		return PriorityCritical
	case saving > 50 && effort != EffortHigh:
		return PriorityHigh
	case saving > 20:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// projectPlan returns generic tagging and utilization advice for p.
func projectPlan(p models.ProjectCostSummary) ProjectPlan {
	pp := ProjectPlan{
		ProjectID:     p.ProjectID,
		DisplayName:   p.DisplayName,
		CurrentCost:   p.Total,
		ResourceCount: p.ResourceCount,
		Potential:     potential(p.Total),
		Score:         score(p.Total, p.ResourceCount),
	}
	if p.Total > 50 {
		pp.Recommendations = append(pp.Recommendations, Recommendation{
			Name:        "Cost Allocation Tags",
			Description: "Tag every project resource for direct attribution",
			Savings:     p.Total * 0.1,
			Effort:      EffortLow,
			Timeline:    "1 week",
			Priority:    PriorityMedium,
		})
	}
	if p.Total > 100 {
		pp.Recommendations = append(pp.Recommendations, Recommendation{
			Name:        "Review Utilization",
			Description: "Right-size resources from utilization metrics",
			Savings:     p.Total * 0.2,
			Effort:      EffortMedium,
			Timeline:    "1-2 weeks",
			Priority:    PriorityHigh,
		})
	}
	return pp
}

// score rates a project's cost efficiency from 0 to 100.
func score(cost models.Amount, resources int) int {
	s := 50
	if resources > 0 {
		perResource := cost / models.Amount(resources)
		switch {
		case perResource < 1:
			s += 20
		case perResource < 5:
			s += 10
		case perResource > 20:
			s -= 20
		}
	}
	switch {
	case cost > 100:
		s -= 10
	case cost < 10:
		s += 10
	}
	return max(0, min(100, s))
}

// categorize splits the service recommendations into immediate, short-term
// and long-term buckets, each ordered by savings.
func categorize(services []ServicePlan) (immediate, short, long []Recommendation) {
	var all []Recommendation
	for _, sp := range services {
		all = append(all, sp.Recommendations...)
	}
	sortBySavings(all)
	for _, rec := range all {
		switch {
		case rec.Effort == EffortLow || rec.Savings > 50:
			immediate = append(immediate, rec)
		case rec.Effort == EffortMedium || strings.HasPrefix(rec.Timeline, "1"):
			short = append(short, rec)
		default:
			long = append(long, rec)
		}
	}
	return immediate, short, long
}

type phaseSpec struct {
	name     string
	effort   Effort
	take     int
	fallback float64
	defaults []string
}

var phases = []phaseSpec{
	{"Week 1: Quick Wins", EffortLow, 3, 0.1, []string{"Enable cost allocation tags", "Review unused resources", "Set up basic monitoring"}},
	{"Week 2-4: Core Optimizations", EffortMedium, 3, 0.2, []string{"Add a caching layer", "Optimize model selection", "Configure auto scaling"}},
	{"Month 2+: Strategic Changes", EffortHigh, 2, 0.25, []string{"Evaluate alternative services", "Move to batch processing"}},
}

// roadmap turns the categorized recommendations into three phases. An
// empty bucket falls back to default actions at a fraction of total.
func roadmap(plan Plan, total models.Amount) []Phase {
	buckets := [][]Recommendation{plan.Immediate, plan.ShortTerm, plan.LongTerm}
	out := make([]Phase, 0, len(phases))
	for i, def := range phases {
		ph := Phase{Name: def.name, Effort: def.effort}
		recs := buckets[i]
		if len(recs) == 0 {
			ph.Actions = def.defaults
			ph.EstimatedSavings = total * models.Amount(def.fallback)
		} else {
			for j, rec := range recs {
				if j == def.take {
					break
				}
				ph.Actions = append(ph.Actions, rec.Name)
				ph.EstimatedSavings += rec.Savings
			}
		}
		out = append(out, ph)
	}
	return out
}

// roi assumes implementation costs half a month of savings.
func roi(phases []Phase, total models.Amount) ROI {
	var monthly models.Amount
	for _, ph := range phases {
		monthly += ph.EstimatedSavings
	}
	out := ROI{
		MonthlySavings:     monthly,
		AnnualSavings:      monthly * 12,
		ImplementationCost: monthly * 0.5,
	}
	if monthly > 0 {
		out.PaybackDays = int(out.ImplementationCost / monthly * 30)
	}
	if total > 0 {
		out.SavingsPercentage = float64(monthly / total * 100)
	}
	return out
}

func sortBySavings(recs []Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Savings > recs[j].Savings
	})
}
