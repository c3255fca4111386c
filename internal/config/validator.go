package config

import (
	"fmt"
	"strings"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

var validGroupBy = map[string]struct{}{
	"":            {},
	"USAGE_TYPE":  {},
	"RESOURCE_ID": {},
}

// Validate checks f for semantic correctness and returns every problem found.
// An empty slice means the document is valid.
//
// Checks performed:
//   - version must be 1
//   - unattributed_fraction must lie in [0, 1]
//   - project IDs must be present, unique and not "unattributed"
//   - project status must be one of Paused, POC, MVP, Production, TBD
//   - every pattern must compile as a regular expression
//   - service keys must belong to the known service set
//   - kind must be full or partial; partial ai_percentage must lie in (0, 1]
//   - services need at least one Cost Explorer name
//   - group_by must be USAGE_TYPE or RESOURCE_ID and requires fragments
func Validate(f *File) []error {
	if f == nil {
		return []error{fmt.Errorf("catalog is nil")}
	}

	var errs []error

	if f.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", f.Version))
	}

	if uf := f.UnattributedFraction; uf != nil && (*uf < 0 || *uf > 1) {
		errs = append(errs, fmt.Errorf("unattributed_fraction: %v out of range [0, 1]", *uf))
	}

	for i, k := range f.TagKeys {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, fmt.Errorf("tag_keys[%d]: empty key", i))
		}
	}

	seen := make(map[string]struct{}, len(f.Projects))
	for i, p := range f.Projects {
		field := fmt.Sprintf("projects[%d]", i)
		switch {
		case p.ID == "":
			errs = append(errs, fmt.Errorf("%s.id: required", field))
		case p.ID == models.Unattributed:
			errs = append(errs, fmt.Errorf("%s.id: %q is reserved", field, p.ID))
		default:
			if _, dup := seen[p.ID]; dup {
				errs = append(errs, fmt.Errorf("%s.id: duplicate project %q", field, p.ID))
			}
			seen[p.ID] = struct{}{}
			field = "projects." + p.ID
		}
		if _, ok := parseStatus(p.Status); !ok {
			errs = append(errs, fmt.Errorf("%s.status: invalid value %q; valid values: Paused, POC, MVP, Production, TBD", field, p.Status))
		}
		if len(p.Patterns) == 0 && len(p.TagValues) == 0 {
			errs = append(errs, fmt.Errorf("%s: needs at least one pattern or tag value", field))
		}
		errs = append(errs, checkPatterns(field+".patterns", p.Patterns)...)
	}

	for name, s := range f.Services {
		field := "services." + name
		if _, err := models.ParseServiceKey(name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field, err))
		}
		switch models.ServiceKind(strings.ToLower(s.Kind)) {
		case models.ServiceKindFull:
		case models.ServiceKindPartial:
			if pct := s.AIPercentage; pct != nil && (*pct <= 0 || *pct > 1) {
				errs = append(errs, fmt.Errorf("%s.ai_percentage: %v out of range (0, 1]", field, *pct))
			}
		default:
			errs = append(errs, fmt.Errorf("%s.kind: invalid value %q; valid values: full, partial", field, s.Kind))
		}
		if len(s.CostExplorerNames) == 0 {
			errs = append(errs, fmt.Errorf("%s.cost_explorer_names: at least one name required", field))
		}
		if _, ok := validGroupBy[strings.ToUpper(s.GroupBy)]; !ok {
			errs = append(errs, fmt.Errorf("%s.group_by: invalid value %q; valid values: USAGE_TYPE, RESOURCE_ID", field, s.GroupBy))
		} else if s.GroupBy != "" && len(s.Fragments) == 0 {
			errs = append(errs, fmt.Errorf("%s.fragments: required when group_by is set", field))
		}
		errs = append(errs, checkPatterns(field+".include_patterns", s.IncludePatterns)...)
	}

	return errs
}

func checkPatterns(field string, patterns []string) []error {
	var errs []error
	for i, p := range patterns {
		if _, err := compilePattern(p); err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", field, i, err))
		}
	}
	return errs
}
