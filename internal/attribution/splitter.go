// Package attribution splits per-service spend across catalog projects.
package attribution

import (
	"sort"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// Input is the spend and discovery outcome of one service in one account.
type Input struct {
	Service config.ServiceConfig
	Total   models.Amount

	// ByTag is the cost-allocation tag breakdown of Total, or nil.
	ByTag map[string]models.Amount

	// Counts maps project bucket to matched resource count. The
	// unattributed bucket is included in the denominator.
	Counts map[string]int
}

// Share is the part of a service's spend assigned to one project bucket.
type Share struct {
	Project string
	Amount  models.Amount
	Method  models.CalcMethod
}

// Result is the split of one service.
type Result struct {
	Service    models.ServiceKey
	Total      models.Amount
	AIEstimate models.Amount
	Shares     []Share
}

// Sum returns the total assigned across all shares.
func (r Result) Sum() models.Amount {
	var s models.Amount
	for _, sh := range r.Shares {
		s += sh.Amount
	}
	return s
}

// Splitter applies the attribution rules:
//
//   - tag values resolving to a project take their tagged amount in full;
//   - the remainder is scaled by the service AI fraction (1 for fully-AI
//     services) and split by resource count;
//   - with no resources, fully-AI spend goes to unattributed and partially-AI
//     spend sends only the unattributed fraction of its estimate there.
//
// The shares of a service never exceed its fetched total.
type Splitter struct {
	catalog *config.Catalog
}

// NewSplitter returns a Splitter using c for tag resolution and the
// unattributed fraction.
func NewSplitter(c *config.Catalog) *Splitter {
	return &Splitter{catalog: c}
}

// Split computes the shares of one service. Shares are ordered by project ID
// with unattributed last; zero amounts are omitted.
func (s *Splitter) Split(in Input) Result {
	res := Result{Service: in.Service.Key, Total: in.Total}
	if in.Total <= 0 {
		return res
	}

	direct, tagged := s.tagged(in)
	remainder := in.Total - tagged
	if remainder < 0 {
		remainder = 0
	}

	estimate := remainder * models.Amount(in.Service.AIFraction())
	res.AIEstimate = tagged + estimate

	shares := make(map[string]Share)
	for project, amt := range direct {
		shares[project] = Share{Project: project, Amount: amt, Method: models.CalcTag}
	}

	totalCount := 0
	for _, n := range in.Counts {
		totalCount += n
	}

	switch {
	case estimate <= 0:
	case totalCount == 0:
		amt := estimate
		if in.Service.Kind == models.ServiceKindPartial {
			amt = estimate * models.Amount(s.catalog.UnattributedFraction())
		}
		addShare(shares, models.Unattributed, amt, models.CalcUnattributed)
	default:
		method := models.CalcProportional
		if in.Service.Kind == models.ServiceKindPartial {
			method = models.CalcFixedPercentage
		}
		for project, n := range in.Counts {
			if n <= 0 {
				continue
			}
			m := method
			if project == models.Unattributed {
				m = models.CalcUnattributed
			}
			addShare(shares, project, estimate*models.Amount(n)/models.Amount(totalCount), m)
		}
	}

	res.Shares = sortedShares(shares)
	return res
}

// tagged returns the project amounts resolved from tag values and their sum,
// scaled down when the breakdown exceeds the fetched total.
func (s *Splitter) tagged(in Input) (map[string]models.Amount, models.Amount) {
	direct := make(map[string]models.Amount)
	var sum models.Amount
	for value, amt := range in.ByTag {
		if value == "" || amt <= 0 {
			continue
		}
		project, ok := s.catalog.ResolveTagValue(value)
		if !ok {
			continue
		}
		direct[project] += amt
		sum += amt
	}
	if sum > in.Total {
		scale := in.Total / sum
		for p := range direct {
			direct[p] *= scale
		}
		sum = in.Total
	}
	return direct, sum
}

// addShare adds amt to the project's share. A project already holding a tag
// share keeps the tag method.
func addShare(shares map[string]Share, project string, amt models.Amount, method models.CalcMethod) {
	if amt <= 0 {
		return
	}
	sh, ok := shares[project]
	if !ok {
		shares[project] = Share{Project: project, Amount: amt, Method: method}
		return
	}
	sh.Amount += amt
	shares[project] = sh
}

func sortedShares(m map[string]Share) []Share {
	out := make([]Share, 0, len(m))
	for _, sh := range m {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Project, out[j].Project
		if (a == models.Unattributed) != (b == models.Unattributed) {
			return b == models.Unattributed
		}
		return a < b
	})
	return out
}
