package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

const (
	// DefaultUnattributedFraction applies when the catalog leaves
	// unattributed_fraction unset.
	DefaultUnattributedFraction = 0.1

	// DefaultPartialPercentage applies to partially-AI services that omit
	// ai_percentage.
	DefaultPartialPercentage = 0.1
)

// Status is a project lifecycle stage.
type Status string

const (
	StatusPaused     Status = "Paused"
	StatusPOC        Status = "POC"
	StatusMVP        Status = "MVP"
	StatusProduction Status = "Production"
	StatusTBD        Status = "TBD"
)

var knownStatuses = []Status{StatusPaused, StatusPOC, StatusMVP, StatusProduction, StatusTBD}

// parseStatus matches s case-insensitively against the known statuses.
func parseStatus(s string) (Status, bool) {
	return lo.Find(knownStatuses, func(st Status) bool {
		return strings.EqualFold(string(st), s)
	})
}

// GroupDimension is the Cost Explorer dimension used for fragment matching.
type GroupDimension string

const (
	GroupNone       GroupDimension = ""
	GroupUsageType  GroupDimension = "USAGE_TYPE"
	GroupResourceID GroupDimension = "RESOURCE_ID"
)

// Project is an AI initiative whose resources are tracked separately.
type Project struct {
	ID          string
	Name        string
	Status      Status
	Environment string
	Description string

	// Priority orders pattern evaluation; higher is evaluated first and
	// ties keep catalog order.
	Priority int

	Patterns  []string
	TagValues []string

	patterns []*regexp.Regexp
}

// MatchName reports whether any of p's patterns matches the lower-cased name
// or, failing that, the lower-cased ARN.
func (p Project) MatchName(name, arn string) bool {
	return matchAny(p.patterns, name, arn)
}

// MatchTagValue reports whether v names p by ID or by one of its aliases.
func (p Project) MatchTagValue(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	if strings.EqualFold(v, p.ID) {
		return true
	}
	for _, alias := range p.TagValues {
		if strings.EqualFold(v, alias) {
			return true
		}
	}
	return false
}

// ServiceConfig holds the attribution settings of one tracked service.
type ServiceConfig struct {
	Key               models.ServiceKey
	DisplayName       string
	Kind              models.ServiceKind
	AIPercentage      float64
	CostExplorerNames []string
	IncludePatterns   []string
	GroupBy           GroupDimension
	Fragments         []string

	include []*regexp.Regexp
}

// AIFraction returns the fraction of spend considered AI-related.
func (s ServiceConfig) AIFraction() float64 {
	if s.Kind == models.ServiceKindFull {
		return 1
	}
	return s.AIPercentage
}

// Included reports whether a resource that matched no project still counts
// as AI-related. Services without include patterns keep every resource.
func (s ServiceConfig) Included(name, arn string) bool {
	if len(s.include) == 0 {
		return true
	}
	return matchAny(s.include, name, arn)
}

// Catalog is the validated, read-only project and service configuration.
type Catalog struct {
	unattributedFraction float64
	tagKeys              []string
	projects             []Project
	services             map[models.ServiceKey]ServiceConfig
}

// Projects returns the projects in evaluation order.
func (c *Catalog) Projects() []Project {
	out := make([]Project, len(c.projects))
	copy(out, c.projects)
	return out
}

// Project returns the project with the given ID.
func (c *Catalog) Project(id string) (Project, bool) {
	return lo.Find(c.projects, func(p Project) bool { return p.ID == id })
}

// Services returns the enabled services in canonical order.
func (c *Catalog) Services() []ServiceConfig {
	var out []ServiceConfig
	for _, k := range models.AllServiceKeys {
		if s, ok := c.services[k]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Service returns the configuration of key.
func (c *Catalog) Service(key models.ServiceKey) (ServiceConfig, bool) {
	s, ok := c.services[key]
	return s, ok
}

// ErrServiceNotEnabled is returned by ParseServices for a known service the
// catalog does not enable.
var ErrServiceNotEnabled = errors.New("service is not enabled in the catalog")

// ParseServices resolves service names to enabled keys. Unknown names and
// services absent from the catalog are errors. Empty names yield nil.
func (c *Catalog) ParseServices(names []string) ([]models.ServiceKey, error) {
	var out []models.ServiceKey
	for _, n := range names {
		k, err := models.ParseServiceKey(strings.ToLower(strings.TrimSpace(n)))
		if err != nil {
			return nil, err
		}
		if _, ok := c.services[k]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotEnabled, k)
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return lo.Uniq(out), nil
}

// ServiceKeys returns the enabled service keys in canonical order.
func (c *Catalog) ServiceKeys() []models.ServiceKey {
	return lo.Map(c.Services(), func(s ServiceConfig, _ int) models.ServiceKey { return s.Key })
}

// TagKeys returns the tag keys probed for project assignment.
func (c *Catalog) TagKeys() []string {
	out := make([]string, len(c.tagKeys))
	copy(out, c.tagKeys)
	return out
}

// UnattributedFraction returns the no-resource routing fraction.
func (c *Catalog) UnattributedFraction() float64 {
	return c.unattributedFraction
}

// ResolveTagValue returns the ID of the first project, in evaluation
// order, that v names.
func (c *Catalog) ResolveTagValue(v string) (string, bool) {
	p, ok := lo.Find(c.projects, func(p Project) bool { return p.MatchTagValue(v) })
	return p.ID, ok
}

// build converts a validated File into a Catalog. Patterns must already be
// known to compile.
func build(f *File) *Catalog {
	c := &Catalog{
		unattributedFraction: DefaultUnattributedFraction,
		tagKeys:              lo.Uniq(f.TagKeys),
		services:             make(map[models.ServiceKey]ServiceConfig, len(f.Services)),
	}
	if f.UnattributedFraction != nil {
		c.unattributedFraction = *f.UnattributedFraction
	}

	for _, pf := range f.Projects {
		status, _ := parseStatus(pf.Status)
		c.projects = append(c.projects, Project{
			ID:          pf.ID,
			Name:        lo.Ternary(pf.Name != "", pf.Name, pf.ID),
			Status:      status,
			Environment: pf.Environment,
			Description: pf.Description,
			Priority:    pf.Priority,
			Patterns:    append([]string(nil), pf.Patterns...),
			TagValues:   append([]string(nil), pf.TagValues...),
			patterns:    mustCompileAll(pf.Patterns),
		})
	}
	sort.SliceStable(c.projects, func(i, j int) bool {
		return c.projects[i].Priority > c.projects[j].Priority
	})

	for name, sf := range f.Services {
		if sf.Disabled {
			continue
		}
		key, _ := models.ParseServiceKey(name)
		kind := models.ServiceKind(strings.ToLower(sf.Kind))
		pct := 1.0
		if kind == models.ServiceKindPartial {
			pct = DefaultPartialPercentage
			if sf.AIPercentage != nil {
				pct = *sf.AIPercentage
			}
		}
		c.services[key] = ServiceConfig{
			Key:               key,
			DisplayName:       lo.Ternary(sf.DisplayName != "", sf.DisplayName, name),
			Kind:              kind,
			AIPercentage:      pct,
			CostExplorerNames: append([]string(nil), sf.CostExplorerNames...),
			IncludePatterns:   append([]string(nil), sf.IncludePatterns...),
			GroupBy:           GroupDimension(strings.ToUpper(sf.GroupBy)),
			Fragments:         append([]string(nil), sf.Fragments...),
			include:           mustCompileAll(sf.IncludePatterns),
		}
	}
	return c
}

func compilePattern(p string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + p)
}

func mustCompileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := compilePattern(p)
		if err != nil {
			panic("config: uncompiled pattern reached build: " + err.Error())
		}
		out = append(out, re)
	}
	return out
}

func matchAny(res []*regexp.Regexp, name, arn string) bool {
	name = strings.ToLower(name)
	arn = strings.ToLower(arn)
	for _, re := range res {
		if re.MatchString(name) {
			return true
		}
	}
	if arn == "" {
		return false
	}
	for _, re := range res {
		if re.MatchString(arn) {
			return true
		}
	}
	return false
}
