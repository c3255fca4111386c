package engine

import (
	"context"
	"sort"

	"github.com/pankaj-dahiya-devops/aicost/internal/attribution"
	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	awscost "github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/cost"
)

// unattributedName is the display name of the unattributed bucket.
const unattributedName = "Unattributed"

// runAccount executes discovery, cost fetching and attribution for one
// account.
func (e *DefaultEngine) runAccount(ctx context.Context, sess *common.AccountSession, opts RunOptions) (*models.AccountReport, error) {
	log := e.logger.With().Str("account", sess.AccountID).Logger()
	services := e.services(opts.Services)

	disc, err := e.discoverer.Discover(ctx, sess, e.listable(log, services))
	if err != nil {
		return nil, err
	}
	log.Info().Int("resources", disc.TotalResources()).Msg("discovery complete")

	counts := disc.Counts()
	src := e.costs(sess.Config)

	ar := &models.AccountReport{
		AccountID:   sess.AccountID,
		AccountName: sess.AccountName,
		Discovery:   disc,
	}
	summaries := make(map[string]*models.ProjectCostSummary)

	for _, key := range services {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		svc, _ := e.catalog.Service(key)

		total := src.ServiceSpend(ctx, svc, sess.AccountID, opts.Period)
		sc := models.ServiceCost{
			Service:     key,
			DisplayName: svc.DisplayName,
			Kind:        svc.Kind,
			Total:       total,
		}
		if opts.TagAttribution && total > 0 {
			sc.TagKey, sc.ByTag = e.probeTags(ctx, src, svc, sess.AccountID, opts.Period)
		}

		res := e.splitter.Split(attribution.Input{
			Service: svc,
			Total:   total,
			ByTag:   sc.ByTag,
			Counts:  counts[key],
		})
		sc.AIEstimate = res.AIEstimate

		for _, sh := range res.Shares {
			e.summary(summaries, sh.Project).Add(key, sh.Amount, sh.Method)
			ar.AttributedTotal += sh.Amount
		}
		ar.ServiceCosts = append(ar.ServiceCosts, sc)
		ar.ServiceTotal += total

		log.Debug().
			Str("service", string(key)).
			Float64("total", total.Float64()).
			Float64("attributed", res.Sum().Float64()).
			Msg("service attributed")
	}

	for project, n := range disc.ProjectResources() {
		e.summary(summaries, project).ResourceCount = n
	}
	ar.Projects = sortSummaries(summaries)
	return ar, nil
}

// probeTags tries the catalog tag keys in order and returns the first
// breakdown holding any tagged (non-empty) value.
func (e *DefaultEngine) probeTags(ctx context.Context, src CostSource, svc config.ServiceConfig, accountID string, period models.Period) (string, map[string]models.Amount) {
	q := awscost.Query{Names: svc.CostExplorerNames, AccountID: accountID, Period: period}
	for _, key := range e.catalog.TagKeys() {
		byTag, ok := src.ByTag(ctx, q, key)
		if !ok {
			continue
		}
		for value, amt := range byTag {
			if value != "" && amt > 0 {
				return key, byTag
			}
		}
	}
	return "", nil
}

// summary returns the summary for project, creating it on first use.
func (e *DefaultEngine) summary(m map[string]*models.ProjectCostSummary, project string) *models.ProjectCostSummary {
	if s, ok := m[project]; ok {
		return s
	}
	s := &models.ProjectCostSummary{ProjectID: project, DisplayName: project}
	if project == models.Unattributed {
		s.DisplayName = unattributedName
	} else if p, ok := e.catalog.Project(project); ok {
		s.DisplayName = p.Name
		s.Status = string(p.Status)
	}
	m[project] = s
	return s
}

// sortSummaries orders projects by total descending, then ID, with the
// unattributed bucket last.
func sortSummaries(m map[string]*models.ProjectCostSummary) []models.ProjectCostSummary {
	out := make([]models.ProjectCostSummary, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.ProjectID == models.Unattributed) != (b.ProjectID == models.Unattributed) {
			return b.ProjectID == models.Unattributed
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.ProjectID < b.ProjectID
	})
	return out
}

// mergeProjects sums the per-account project summaries. The first method
// seen for each project and service is kept.
func mergeProjects(accounts []models.AccountReport) []models.ProjectCostSummary {
	merged := make(map[string]*models.ProjectCostSummary)
	for _, a := range accounts {
		for _, p := range a.Projects {
			dst, ok := merged[p.ProjectID]
			if !ok {
				dst = &models.ProjectCostSummary{
					ProjectID:   p.ProjectID,
					DisplayName: p.DisplayName,
					Status:      p.Status,
				}
				merged[p.ProjectID] = dst
			}
			for _, svc := range p.SortedServices() {
				dst.Add(svc, p.Services[svc], p.Methods[svc])
			}
			dst.ResourceCount += p.ResourceCount
		}
	}
	return sortSummaries(merged)
}
