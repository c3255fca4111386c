package discovery

import (
	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// Matcher assigns discovered resources to catalog projects.
//
// Order of evaluation:
//  1. Configured tag keys, in catalog order. A value naming a project by ID
//     or alias assigns it.
//  2. Project name patterns, in priority order (ties keep catalog order),
//     tried against the resource name and then its ARN. First match wins.
//  3. The service include patterns. A hit keeps the resource as
//     unattributed; a miss drops it as not AI-related.
type Matcher struct {
	catalog  *config.Catalog
	projects []config.Project
	tagKeys  []string
}

// NewMatcher returns a Matcher over c.
func NewMatcher(c *config.Catalog) *Matcher {
	return &Matcher{catalog: c, projects: c.Projects(), tagKeys: c.TagKeys()}
}

// Match returns the project and match source for r. keep is false when the
// resource is not AI-related and should be dropped.
func (m *Matcher) Match(svc config.ServiceConfig, r models.ResourceRecord) (project string, by models.MatchSource, keep bool) {
	for _, key := range m.tagKeys {
		v, ok := r.Tags[key]
		if !ok {
			continue
		}
		if id, ok := m.catalog.ResolveTagValue(v); ok {
			return id, models.MatchTag, true
		}
	}

	for _, p := range m.projects {
		if p.MatchName(r.Name, r.ARN) {
			return p.ID, models.MatchPattern, true
		}
	}

	if svc.Included(r.Name, r.ARN) {
		return models.Unattributed, models.MatchNone, true
	}
	return "", models.MatchNone, false
}

// Assign sets Project and MatchedBy on each record and returns the records
// that are kept, in input order.
func (m *Matcher) Assign(svc config.ServiceConfig, records []models.ResourceRecord) []models.ResourceRecord {
	out := make([]models.ResourceRecord, 0, len(records))
	for _, r := range records {
		project, by, keep := m.Match(svc, r)
		if !keep {
			continue
		}
		r.Project = project
		r.MatchedBy = by
		out = append(out, r)
	}
	return out
}
