package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Unattributed is the project bucket for resources and spend that cannot be
// mapped to a catalog project.
const Unattributed = "unattributed"

// MatchSource records how a resource was assigned to its project.
type MatchSource string

const (
	MatchTag     MatchSource = "tag"
	MatchPattern MatchSource = "pattern"
	MatchNone    MatchSource = "none"
)

// ResourceType is the kind of discovered cloud object.
type ResourceType string

const (
	ResourceFunction      ResourceType = "function"
	ResourceBucket        ResourceType = "bucket"
	ResourceTable         ResourceType = "table"
	ResourceAgent         ResourceType = "agent"
	ResourceKnowledgeBase ResourceType = "knowledge-base"
	ResourceIndex         ResourceType = "index"
	ResourceEndpoint      ResourceType = "endpoint"
	ResourceInstance      ResourceType = "instance"
	ResourceDBInstance    ResourceType = "db-instance"
	ResourceLoadBalancer  ResourceType = "load-balancer"
)

// ResourceRecord is one discovered cloud object and the project it belongs to.
type ResourceRecord struct {
	Service   ServiceKey        `json:"service"`
	Type      ResourceType      `json:"type"`
	Name      string            `json:"name"`
	ARN       string            `json:"arn,omitempty"`
	ID        string            `json:"id,omitempty"`
	Status    string            `json:"status,omitempty"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`

	// ModifiedAt is set for services that only report a last-change time (Lambda).
	ModifiedAt *time.Time `json:"modified_at,omitempty"`

	// SizeBytes is a best-effort storage size (S3 buckets only); 0 means unknown.
	SizeBytes int64 `json:"size_bytes,omitempty"`

	// Project is a catalog project ID or Unattributed. Never empty.
	Project   string      `json:"project"`
	MatchedBy MatchSource `json:"matched_by"`
}

// DiscoveryResult is the per-account output of the resource matcher.
type DiscoveryResult struct {
	AccountID   string                          `json:"account_id"`
	AccountName string                          `json:"account_name,omitempty"`
	Region      string                          `json:"region"`
	GeneratedAt time.Time                       `json:"generated_at"`
	Services    map[ServiceKey][]ResourceRecord `json:"services"`

	// Errors holds listing failures keyed by service. Discovery of the
	// remaining services still completes.
	Errors map[ServiceKey]string `json:"errors,omitempty"`
}

// NewDiscoveryResult returns an empty result for accountID.
func NewDiscoveryResult(accountID, region string, at time.Time) *DiscoveryResult {
	return &DiscoveryResult{
		AccountID:   accountID,
		Region:      region,
		GeneratedAt: at.UTC(),
		Services:    make(map[ServiceKey][]ResourceRecord),
	}
}

// Counts returns, per service, the number of resources assigned to each
// project bucket (Unattributed included).
func (d *DiscoveryResult) Counts() map[ServiceKey]map[string]int {
	counts := make(map[ServiceKey]map[string]int, len(d.Services))
	for svc, records := range d.Services {
		if len(records) == 0 {
			continue
		}
		perProject := make(map[string]int)
		for _, r := range records {
			perProject[r.Project]++
		}
		counts[svc] = perProject
	}
	return counts
}

// TotalResources returns the number of records across all services.
func (d *DiscoveryResult) TotalResources() int {
	n := 0
	for _, records := range d.Services {
		n += len(records)
	}
	return n
}

// ProjectResources returns the number of records assigned to each project.
func (d *DiscoveryResult) ProjectResources() map[string]int {
	out := make(map[string]int)
	for _, records := range d.Services {
		for _, r := range records {
			out[r.Project]++
		}
	}
	return out
}

// SortedServices returns the service keys present in d in canonical order.
func (d *DiscoveryResult) SortedServices() []ServiceKey {
	rank := make(map[ServiceKey]int, len(AllServiceKeys))
	for i, k := range AllServiceKeys {
		rank[k] = i
	}
	keys := make([]ServiceKey, 0, len(d.Services))
	for k := range d.Services {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return rank[keys[i]] < rank[keys[j]] })
	return keys
}

// RecordError stores a listing failure for svc.
func (d *DiscoveryResult) RecordError(svc ServiceKey, err error) {
	if d.Errors == nil {
		d.Errors = make(map[ServiceKey]string)
	}
	d.Errors[svc] = err.Error()
}

// ParseDiscovery decodes a discovery snapshot previously written as JSON.
func ParseDiscovery(data []byte) (*DiscoveryResult, error) {
	var d DiscoveryResult
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode discovery snapshot: %w", err)
	}
	if d.Services == nil {
		d.Services = make(map[ServiceKey][]ResourceRecord)
	}
	for svc, records := range d.Services {
		for i := range records {
			if records[i].Project == "" {
				return nil, fmt.Errorf("decode discovery snapshot: %s resource %q has no project", svc, records[i].Name)
			}
		}
	}
	return &d, nil
}
