package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	awscost "github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/cost"
)

const engineCatalog = `
version: 1
tag_keys: [Project, project]
projects:
  - id: ask-eva
    name: Ask Eva
    status: POC
    patterns: [eva]
  - id: iep-report
    name: IEP Report
    status: MVP
    patterns: [iep]
services:
  bedrock:
    display_name: Amazon Bedrock
    kind: full
    cost_explorer_names: [Amazon Bedrock]
  textract:
    kind: full
    cost_explorer_names: [Amazon Textract]
  lambda:
    kind: partial
    ai_percentage: 0.3
    cost_explorer_names: [AWS Lambda]
`

// ── stubs ─────────────────────────────────────────────────────────────────────

type stubDiscoverer struct {
	records map[models.ServiceKey][]models.ResourceRecord
	err     error
	asked   []models.ServiceKey
}

func (s *stubDiscoverer) Discover(_ context.Context, sess *common.AccountSession, services []models.ServiceKey) (*models.DiscoveryResult, error) {
	s.asked = services
	if s.err != nil {
		return nil, s.err
	}
	res := models.NewDiscoveryResult(sess.AccountID, sess.Region, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	for k, v := range s.records {
		res.Services[k] = v
	}
	return res, nil
}

type stubCosts struct {
	totals  map[models.ServiceKey]models.Amount
	byTag   map[string]map[string]models.Amount // tag key -> breakdown
	tagAsks []string
}

func (s *stubCosts) ServiceSpend(_ context.Context, svc config.ServiceConfig, _ string, _ models.Period) models.Amount {
	return s.totals[svc.Key]
}

func (s *stubCosts) ByTag(_ context.Context, _ awscost.Query, tagKey string) (map[string]models.Amount, bool) {
	s.tagAsks = append(s.tagAsks, tagKey)
	m, ok := s.byTag[tagKey]
	return m, ok
}

func newTestEngine(t *testing.T, d *stubDiscoverer, costs *stubCosts) *DefaultEngine {
	t.Helper()
	c, err := config.Parse([]byte(engineCatalog))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	e := NewDefaultEngine(c, d, func(aws.Config) CostSource { return costs }, zerolog.Nop())
	e.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	e.newID = func() string { return "report-1" }
	return e
}

func rec(svc models.ServiceKey, name, project string) models.ResourceRecord {
	return models.ResourceRecord{Service: svc, Name: name, Project: project, MatchedBy: models.MatchPattern}
}

func sess(id string) *common.AccountSession {
	return &common.AccountSession{AccountID: id, AccountName: "acct-" + id, Region: "us-east-1"}
}

func approxEq(a models.Amount, b float64) bool { return math.Abs(float64(a)-b) < 1e-6 }

// ── Run ───────────────────────────────────────────────────────────────────────

func TestRun_AttributesAccount(t *testing.T) {
	d := &stubDiscoverer{records: map[models.ServiceKey][]models.ResourceRecord{
		models.ServiceBedrock: {
			rec(models.ServiceBedrock, "eva-agent", "ask-eva"),
			rec(models.ServiceBedrock, "eva-kb", "ask-eva"),
			rec(models.ServiceBedrock, "iep-agent", "iep-report"),
		},
	}}
	costs := &stubCosts{totals: map[models.ServiceKey]models.Amount{
		models.ServiceBedrock:  45.23,
		models.ServiceTextract: 12,
		models.ServiceLambda:   125.60,
	}}
	e := newTestEngine(t, d, costs)

	r, err := e.Run(context.Background(), []*common.AccountSession{sess("111")}, RunOptions{Period: models.MonthToDate(e.now())})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.ReportID != "report-1" {
		t.Errorf("ReportID = %q; want report-1", r.ReportID)
	}
	if len(d.asked) != 2 || lo.Contains(d.asked, models.ServiceTextract) {
		t.Errorf("services asked = %v; want bedrock and lambda only (textract has no lister)", d.asked)
	}
	if !approxEq(r.ServiceTotal, 182.83) {
		t.Errorf("ServiceTotal = %v; want 182.83", r.ServiceTotal)
	}

	eva, ok := r.Project("ask-eva")
	if !ok {
		t.Fatal("ask-eva missing from report")
	}
	if !approxEq(eva.Services[models.ServiceBedrock], 30.153333) {
		t.Errorf("ask-eva bedrock = %v; want 30.1533", eva.Services[models.ServiceBedrock])
	}
	if eva.ResourceCount != 2 {
		t.Errorf("ask-eva resources = %d; want 2", eva.ResourceCount)
	}
	if eva.DisplayName != "Ask Eva" || eva.Status != "POC" {
		t.Errorf("ask-eva display = %q/%q", eva.DisplayName, eva.Status)
	}

	un, ok := r.Project(models.Unattributed)
	if !ok {
		t.Fatal("unattributed bucket missing")
	}
	// textract has no resources: all 12 unattributed. lambda: 125.60*0.3*0.1.
	if !approxEq(un.Services[models.ServiceTextract], 12) {
		t.Errorf("unattributed textract = %v; want 12", un.Services[models.ServiceTextract])
	}
	if !approxEq(un.Services[models.ServiceLambda], 3.768) {
		t.Errorf("unattributed lambda = %v; want 3.768", un.Services[models.ServiceLambda])
	}
	if got := r.Projects[len(r.Projects)-1].ProjectID; got != models.Unattributed {
		t.Errorf("last project = %q; want unattributed", got)
	}

	if len(r.Accounts) != 1 || len(r.Accounts[0].ServiceCosts) != 3 {
		t.Fatalf("accounts/service costs = %+v", r.Accounts)
	}
	if r.AttributedTotal > r.ServiceTotal {
		t.Errorf("attributed %v exceeds fetched %v", r.AttributedTotal, r.ServiceTotal)
	}
}

func TestRun_TagProbeUsesFirstTaggedKey(t *testing.T) {
	d := &stubDiscoverer{}
	costs := &stubCosts{
		totals: map[models.ServiceKey]models.Amount{models.ServiceBedrock: 100},
		byTag: map[string]map[string]models.Amount{
			"Project": {"": 100},
			"project": {"ask-eva": 60, "": 40},
		},
	}
	e := newTestEngine(t, d, costs)

	r, err := e.Run(context.Background(), []*common.AccountSession{sess("111")}, RunOptions{
		Services:       []models.ServiceKey{models.ServiceBedrock},
		TagAttribution: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sc := r.Accounts[0].ServiceCosts[0]
	if sc.TagKey != "project" {
		t.Errorf("TagKey = %q; want project", sc.TagKey)
	}
	eva, _ := r.Project("ask-eva")
	if !approxEq(eva.Services[models.ServiceBedrock], 60) || eva.Methods[models.ServiceBedrock] != models.CalcTag {
		t.Errorf("ask-eva = %v (%s); want 60 via tag", eva.Services[models.ServiceBedrock], eva.Methods[models.ServiceBedrock])
	}
	un, _ := r.Project(models.Unattributed)
	if !approxEq(un.Services[models.ServiceBedrock], 40) {
		t.Errorf("unattributed = %v; want 40", un.Services[models.ServiceBedrock])
	}
	if len(costs.tagAsks) != 2 {
		t.Errorf("tag probes = %v; want 2", costs.tagAsks)
	}
}

func TestRun_MergesAccounts(t *testing.T) {
	d := &stubDiscoverer{records: map[models.ServiceKey][]models.ResourceRecord{
		models.ServiceBedrock: {rec(models.ServiceBedrock, "eva-agent", "ask-eva")},
	}}
	costs := &stubCosts{totals: map[models.ServiceKey]models.Amount{models.ServiceBedrock: 10}}
	e := newTestEngine(t, d, costs)

	r, err := e.Run(context.Background(), []*common.AccountSession{sess("111"), sess("222")}, RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	eva, _ := r.Project("ask-eva")
	if !approxEq(eva.Total, 20) || eva.ResourceCount != 2 {
		t.Errorf("ask-eva merged total=%v resources=%d; want 20 and 2", eva.Total, eva.ResourceCount)
	}
	if !approxEq(r.ServiceTotals()[models.ServiceBedrock], 20) {
		t.Errorf("bedrock total = %v; want 20", r.ServiceTotals()[models.ServiceBedrock])
	}
}

func TestRun_NoSessions(t *testing.T) {
	e := newTestEngine(t, &stubDiscoverer{}, &stubCosts{})
	if _, err := e.Run(context.Background(), nil, RunOptions{}); !errors.Is(err, ErrNoAccounts) {
		t.Errorf("err = %v; want ErrNoAccounts", err)
	}
}

func TestRun_DiscoveryCancellationAborts(t *testing.T) {
	e := newTestEngine(t, &stubDiscoverer{err: context.Canceled}, &stubCosts{})
	if _, err := e.Run(context.Background(), []*common.AccountSession{sess("111")}, RunOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
}

func TestDiscover_FiltersUnknownServices(t *testing.T) {
	d := &stubDiscoverer{}
	e := newTestEngine(t, d, &stubCosts{})

	if _, err := e.Discover(context.Background(), sess("111"), []models.ServiceKey{models.ServiceKendra, models.ServiceLambda}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.asked) != 1 || d.asked[0] != models.ServiceLambda {
		t.Errorf("services asked = %v; want [lambda]", d.asked)
	}
}
