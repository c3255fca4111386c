package config

// File is the raw YAML catalog document as written on disk.
type File struct {
	Version int `yaml:"version"`

	// UnattributedFraction is the share of a partially-AI estimate routed to
	// the unattributed bucket when a service has no discovered resources.
	// Nil selects DefaultUnattributedFraction.
	UnattributedFraction *float64 `yaml:"unattributed_fraction,omitempty"`

	// TagKeys are the resource and cost-allocation tag keys probed, in order.
	TagKeys []string `yaml:"tag_keys"`

	Projects []ProjectFile          `yaml:"projects"`
	Services map[string]ServiceFile `yaml:"services"`
}

// ProjectFile is one entry of the projects list.
type ProjectFile struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Status      string   `yaml:"status"`
	Environment string   `yaml:"environment,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Priority    int      `yaml:"priority,omitempty"`
	Patterns    []string `yaml:"patterns"`
	TagValues   []string `yaml:"tag_values,omitempty"`
}

// ServiceFile is one entry of the services map.
type ServiceFile struct {
	DisplayName       string   `yaml:"display_name"`
	Kind              string   `yaml:"kind"`
	AIPercentage      *float64 `yaml:"ai_percentage,omitempty"`
	CostExplorerNames []string `yaml:"cost_explorer_names"`
	IncludePatterns   []string `yaml:"include_patterns,omitempty"`
	GroupBy           string   `yaml:"group_by,omitempty"`
	Fragments         []string `yaml:"fragments,omitempty"`
	Disabled          bool     `yaml:"disabled,omitempty"`
}
