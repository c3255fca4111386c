// Package cost queries AWS Cost Explorer for per-service spend.
package cost

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

const (
	costMetric = "UnblendedCost"
	dateLayout = "2006-01-02"
)

// Query selects the spend of one set of Cost Explorer service names.
type Query struct {
	// Names are Cost Explorer SERVICE dimension values.
	Names []string

	// AccountID narrows the query to one linked account. Empty queries the
	// whole payer scope of the credentials.
	AccountID string

	// Period has a human-inclusive end date.
	Period models.Period
}

// timePeriod converts the inclusive period to Cost Explorer's exclusive end.
func (q Query) timePeriod() *cetypes.DateInterval {
	return &cetypes.DateInterval{
		Start: aws.String(q.Period.Start.UTC().Format(dateLayout)),
		End:   aws.String(q.Period.End.UTC().AddDate(0, 0, 1).Format(dateLayout)),
	}
}

// filter is SERVICE in Names, AND-ed with LINKED_ACCOUNT when an account is
// set. A lone predicate is sent without the And wrapper.
func (q Query) filter() *cetypes.Expression {
	svc := cetypes.Expression{
		Dimensions: &cetypes.DimensionValues{
			Key:    cetypes.DimensionService,
			Values: q.Names,
		},
	}
	if q.AccountID == "" {
		return &svc
	}
	acct := cetypes.Expression{
		Dimensions: &cetypes.DimensionValues{
			Key:    cetypes.DimensionLinkedAccount,
			Values: []string{q.AccountID},
		},
	}
	return &cetypes.Expression{And: []cetypes.Expression{svc, acct}}
}

// Fetcher wraps Cost Explorer with retries. Failed queries degrade to zero
// and are logged; "no data" and "zero cost" are indistinguishable.
type Fetcher struct {
	client   ceClient
	sleep    SleepFunc
	attempts int
	logger   zerolog.Logger
}

// Option customises a Fetcher.
type Option func(*Fetcher)

// WithSleep replaces the backoff sleep.
func WithSleep(f SleepFunc) Option { return func(c *Fetcher) { c.sleep = f } }

// WithAttempts replaces DefaultAttempts.
func WithAttempts(n int) Option { return func(c *Fetcher) { c.attempts = n } }

// WithLogger sets the fetcher logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Fetcher) { c.logger = l } }

// NewFetcher returns a fetcher backed by the real SDK. cfg may target any
// region; calls always go to us-east-1.
func NewFetcher(cfg aws.Config, opts ...Option) *Fetcher {
	return newFetcher(newCEClient(cfg), opts...)
}

func newFetcher(c ceClient, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   c,
		sleep:    Sleep,
		attempts: DefaultAttempts,
		logger:   zerolog.Nop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// ServiceSpend returns the spend of svc, honouring its group-by setting.
func (f *Fetcher) ServiceSpend(ctx context.Context, svc config.ServiceConfig, accountID string, period models.Period) models.Amount {
	q := Query{Names: svc.CostExplorerNames, AccountID: accountID, Period: period}
	if svc.GroupBy != config.GroupNone && len(svc.Fragments) > 0 {
		return f.MatchingGroups(ctx, q, svc.GroupBy, svc.Fragments)
	}
	return f.ServiceTotal(ctx, q)
}

// ServiceTotal returns the summed spend for q.
func (f *Fetcher) ServiceTotal(ctx context.Context, q Query) models.Amount {
	groups, err := f.groups(ctx, q, nil)
	if err != nil {
		f.warn(q, "", err)
		return 0
	}
	var total models.Amount
	for _, v := range groups {
		total += v
	}
	return total
}

// MatchingGroups groups q by dim and sums only the groups whose key
// contains one of fragments, case-insensitively.
func (f *Fetcher) MatchingGroups(ctx context.Context, q Query, dim config.GroupDimension, fragments []string) models.Amount {
	groups, err := f.groups(ctx, q, &cetypes.GroupDefinition{
		Type: cetypes.GroupDefinitionTypeDimension,
		Key:  aws.String(string(dim)),
	})
	if err != nil {
		f.warn(q, string(dim), err)
		return 0
	}

	lowered := make([]string, 0, len(fragments))
	for _, fr := range fragments {
		if fr = strings.ToLower(strings.TrimSpace(fr)); fr != "" {
			lowered = append(lowered, fr)
		}
	}

	var total models.Amount
	for key, v := range groups {
		k := strings.ToLower(key)
		for _, fr := range lowered {
			if strings.Contains(k, fr) {
				total += v
				break
			}
		}
	}
	return total
}

// ByTag groups q by the cost-allocation tag tagKey and returns value to
// amount. Untagged spend is under "". ok is false when the query failed.
func (f *Fetcher) ByTag(ctx context.Context, q Query, tagKey string) (byValue map[string]models.Amount, ok bool) {
	groups, err := f.groups(ctx, q, &cetypes.GroupDefinition{
		Type: cetypes.GroupDefinitionTypeTag,
		Key:  aws.String(tagKey),
	})
	if err != nil {
		f.warn(q, "TAG:"+tagKey, err)
		return nil, false
	}
	out := make(map[string]models.Amount, len(groups))
	for key, v := range groups {
		out[tagValue(key)] += v
	}
	return out, true
}

// tagValue strips the "Key$" prefix Cost Explorer puts on tag group keys.
func tagValue(groupKey string) string {
	if _, v, found := strings.Cut(groupKey, "$"); found {
		return v
	}
	return groupKey
}

// groups pages through the query and returns amount per group key. With no
// group definition every result lands under "".
func (f *Fetcher) groups(ctx context.Context, q Query, group *cetypes.GroupDefinition) (map[string]models.Amount, error) {
	if len(q.Names) == 0 {
		return nil, fmt.Errorf("query has no Cost Explorer service names")
	}
	if group != nil && aws.ToString(group.Key) == string(config.GroupResourceID) {
		return f.resourceGroups(ctx, q, group)
	}

	in := &ce.GetCostAndUsageInput{
		TimePeriod:  q.timePeriod(),
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{costMetric},
		Filter:      q.filter(),
	}
	if group != nil {
		in.GroupBy = []cetypes.GroupDefinition{*group}
	}

	out := make(map[string]models.Amount)
	for {
		page, err := withRetry(ctx, f.attempts, f.sleep, func(ctx context.Context) (*ce.GetCostAndUsageOutput, error) {
			return f.client.GetCostAndUsage(ctx, in)
		})
		if err != nil {
			return nil, fmt.Errorf("GetCostAndUsage: %w", err)
		}
		accumulate(out, page.ResultsByTime)
		if page.NextPageToken == nil {
			return out, nil
		}
		in.NextPageToken = page.NextPageToken
	}
}

// resourceGroups is the RESOURCE_ID variant of groups. Cost Explorer keeps
// resource-level data for the last 14 days only.
func (f *Fetcher) resourceGroups(ctx context.Context, q Query, group *cetypes.GroupDefinition) (map[string]models.Amount, error) {
	in := &ce.GetCostAndUsageWithResourcesInput{
		TimePeriod:  q.timePeriod(),
		Granularity: cetypes.GranularityMonthly,
		Metrics:     []string{costMetric},
		Filter:      q.filter(),
		GroupBy:     []cetypes.GroupDefinition{*group},
	}

	out := make(map[string]models.Amount)
	for {
		page, err := withRetry(ctx, f.attempts, f.sleep, func(ctx context.Context) (*ce.GetCostAndUsageWithResourcesOutput, error) {
			return f.client.GetCostAndUsageWithResources(ctx, in)
		})
		if err != nil {
			return nil, fmt.Errorf("GetCostAndUsageWithResources: %w", err)
		}
		accumulate(out, page.ResultsByTime)
		if page.NextPageToken == nil {
			return out, nil
		}
		in.NextPageToken = page.NextPageToken
	}
}

// accumulate adds each result's cost metric into out. Ungrouped results
// carry their amount in Total.
func accumulate(out map[string]models.Amount, results []cetypes.ResultByTime) {
	for _, r := range results {
		if len(r.Groups) == 0 {
			if m, ok := r.Total[costMetric]; ok {
				out[""] += parseAmount(m.Amount)
			}
			continue
		}
		for _, g := range r.Groups {
			key := ""
			if len(g.Keys) > 0 {
				key = g.Keys[0]
			}
			if m, ok := g.Metrics[costMetric]; ok {
				out[key] += parseAmount(m.Amount)
			}
		}
	}
}

// parseAmount converts a Cost Explorer amount string. Unparseable and
// negative values (credits, refunds) become 0.
func parseAmount(s *string) models.Amount {
	v, err := strconv.ParseFloat(aws.ToString(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return models.Amount(v)
}

func (f *Fetcher) warn(q Query, group string, err error) {
	f.logger.Warn().
		Strs("services", q.Names).
		Str("account", q.AccountID).
		Str("group_by", group).
		Time("start", q.Period.Start).
		Time("end", q.Period.End).
		Err(err).
		Msg("cost query failed; using 0")
}
