package cost

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// ── stubs ─────────────────────────────────────────────────────────────────────

// stubCE serves pages keyed by NextPageToken ("" for the first page) and
// fails the first len(errs) calls with the given errors.
type stubCE struct {
	pages    map[string]*ce.GetCostAndUsageOutput
	resPages map[string]*ce.GetCostAndUsageWithResourcesOutput
	errs     []error

	calls    []ce.GetCostAndUsageInput
	resCalls []ce.GetCostAndUsageWithResourcesInput
}

func (s *stubCE) nextErr() error {
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func (s *stubCE) GetCostAndUsage(_ context.Context, in *ce.GetCostAndUsageInput, _ ...func(*ce.Options)) (*ce.GetCostAndUsageOutput, error) {
	s.calls = append(s.calls, *in)
	if err := s.nextErr(); err != nil {
		return nil, err
	}
	return s.pages[aws.ToString(in.NextPageToken)], nil
}

func (s *stubCE) GetCostAndUsageWithResources(_ context.Context, in *ce.GetCostAndUsageWithResourcesInput, _ ...func(*ce.Options)) (*ce.GetCostAndUsageWithResourcesOutput, error) {
	s.resCalls = append(s.resCalls, *in)
	if err := s.nextErr(); err != nil {
		return nil, err
	}
	return s.resPages[aws.ToString(in.NextPageToken)], nil
}

type sleeps struct{ got []time.Duration }

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.got = append(s.got, d)
	return nil
}

func (s *sleeps) total() time.Duration {
	var t time.Duration
	for _, d := range s.got {
		t += d
	}
	return t
}

func metric(amount string) map[string]cetypes.MetricValue {
	return map[string]cetypes.MetricValue{costMetric: {Amount: aws.String(amount), Unit: aws.String("USD")}}
}

func totalPage(amount string, next *string) *ce.GetCostAndUsageOutput {
	return &ce.GetCostAndUsageOutput{
		ResultsByTime: []cetypes.ResultByTime{{Total: metric(amount)}},
		NextPageToken: next,
	}
}

func groupPage(groups map[string]string) *ce.GetCostAndUsageOutput {
	var gs []cetypes.Group
	for k, v := range groups {
		gs = append(gs, cetypes.Group{Keys: []string{k}, Metrics: metric(v)})
	}
	return &ce.GetCostAndUsageOutput{ResultsByTime: []cetypes.ResultByTime{{Groups: gs}}}
}

var march = models.Period{
	Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
}

func approx(a, b models.Amount) bool { return math.Abs(float64(a-b)) < 1e-9 }

// ── retry ─────────────────────────────────────────────────────────────────────

func TestWithRetry_FailsTwiceThenSucceeds(t *testing.T) {
	s := &sleeps{}
	calls := 0
	got, err := withRetry(context.Background(), 3, s.sleep, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("throttled")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("result = %q; want ok", got)
	}
	if calls != 3 {
		t.Errorf("attempts = %d; want 3", calls)
	}
	if s.total() != 3*time.Second {
		t.Errorf("cumulative sleep = %s; want 3s", s.total())
	}
}

func TestWithRetry_AllAttemptsFail(t *testing.T) {
	s := &sleeps{}
	boom := errors.New("service unavailable")
	calls := 0
	_, err := withRetry(context.Background(), 3, s.sleep, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, ErrAllAttemptsFailed) {
		t.Errorf("err = %v; want ErrAllAttemptsFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v; want wrapped last error", err)
	}
	if calls != 3 {
		t.Errorf("attempts = %d; want 3", calls)
	}
	if len(s.got) != 2 || s.got[0] != time.Second || s.got[1] != 2*time.Second {
		t.Errorf("sleeps = %v; want [1s 2s]", s.got)
	}
}

func TestWithRetry_PermanentErrorStops(t *testing.T) {
	s := &sleeps{}
	calls := 0
	_, err := withRetry(context.Background(), 3, s.sleep, func(context.Context) (int, error) {
		calls++
		return 0, &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "not allowed"}
	})
	if !errors.Is(err, ErrAllAttemptsFailed) {
		t.Errorf("err = %v; want ErrAllAttemptsFailed", err)
	}
	if calls != 1 || s.total() != 0 {
		t.Errorf("calls = %d, slept %s; want 1 call and no sleep", calls, s.total())
	}
}

func TestWithRetry_SleepCancelled(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), 3,
		func(context.Context, time.Duration) error { return context.Canceled },
		func(context.Context) (int, error) {
			calls++
			return 0, errors.New("fail")
		})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("attempts = %d; want 1", calls)
	}
}

// ── fetcher ───────────────────────────────────────────────────────────────────

func TestServiceTotal_RequestShape(t *testing.T) {
	stub := &stubCE{pages: map[string]*ce.GetCostAndUsageOutput{"": totalPage("45.23", nil)}}
	f := newFetcher(stub, WithSleep((&sleeps{}).sleep))

	got := f.ServiceTotal(context.Background(), Query{
		Names:     []string{"Amazon Bedrock"},
		AccountID: "123456789012",
		Period:    march,
	})
	if !approx(got, 45.23) {
		t.Errorf("total = %v; want 45.23", got)
	}

	if len(stub.calls) != 1 {
		t.Fatalf("calls = %d; want 1", len(stub.calls))
	}
	in := stub.calls[0]
	if s, e := aws.ToString(in.TimePeriod.Start), aws.ToString(in.TimePeriod.End); s != "2026-03-01" || e != "2026-04-01" {
		t.Errorf("time period = %s..%s; want 2026-03-01..2026-04-01", s, e)
	}
	if in.Granularity != cetypes.GranularityMonthly {
		t.Errorf("granularity = %s; want MONTHLY", in.Granularity)
	}
	if len(in.Metrics) != 1 || in.Metrics[0] != "UnblendedCost" {
		t.Errorf("metrics = %v; want [UnblendedCost]", in.Metrics)
	}
	if len(in.Filter.And) != 2 {
		t.Fatalf("filter And has %d predicates; want 2", len(in.Filter.And))
	}
	if k := in.Filter.And[1].Dimensions.Key; k != cetypes.DimensionLinkedAccount {
		t.Errorf("second predicate key = %s; want LINKED_ACCOUNT", k)
	}
}

func TestServiceTotal_NoAccountSendsSinglePredicate(t *testing.T) {
	stub := &stubCE{pages: map[string]*ce.GetCostAndUsageOutput{"": totalPage("1", nil)}}
	f := newFetcher(stub)

	f.ServiceTotal(context.Background(), Query{Names: []string{"AWS Lambda"}, Period: march})

	in := stub.calls[0]
	if in.Filter.And != nil {
		t.Errorf("filter has And wrapper for a single predicate")
	}
	if in.Filter.Dimensions == nil || in.Filter.Dimensions.Key != cetypes.DimensionService {
		t.Errorf("filter = %+v; want SERVICE dimension", in.Filter)
	}
}

func TestServiceTotal_Paginates(t *testing.T) {
	stub := &stubCE{pages: map[string]*ce.GetCostAndUsageOutput{
		"":   totalPage("10.50", aws.String("p2")),
		"p2": totalPage("4.25", nil),
	}}
	f := newFetcher(stub)

	got := f.ServiceTotal(context.Background(), Query{Names: []string{"Amazon Kendra"}, Period: march})
	if !approx(got, 14.75) {
		t.Errorf("total = %v; want 14.75", got)
	}
	if len(stub.calls) != 2 {
		t.Errorf("calls = %d; want 2", len(stub.calls))
	}
}

func TestServiceTotal_RetriesThenSucceeds(t *testing.T) {
	s := &sleeps{}
	stub := &stubCE{
		pages: map[string]*ce.GetCostAndUsageOutput{"": totalPage("7", nil)},
		errs:  []error{errors.New("throttled"), errors.New("throttled")},
	}
	f := newFetcher(stub, WithSleep(s.sleep))

	got := f.ServiceTotal(context.Background(), Query{Names: []string{"Amazon Bedrock"}, Period: march})
	if !approx(got, 7) {
		t.Errorf("total = %v; want 7", got)
	}
	if len(stub.calls) != 3 {
		t.Errorf("calls = %d; want 3", len(stub.calls))
	}
	if s.total() != 3*time.Second {
		t.Errorf("cumulative sleep = %s; want 3s", s.total())
	}
}

func TestServiceTotal_FailureDegradesToZero(t *testing.T) {
	boom := errors.New("denied")
	stub := &stubCE{errs: []error{boom, boom, boom}}
	f := newFetcher(stub, WithSleep((&sleeps{}).sleep))

	if got := f.ServiceTotal(context.Background(), Query{Names: []string{"Amazon Bedrock"}, Period: march}); got != 0 {
		t.Errorf("total = %v; want 0", got)
	}
}

func TestMatchingGroups_SumsFragmentMatches(t *testing.T) {
	stub := &stubCE{pages: map[string]*ce.GetCostAndUsageOutput{"": groupPage(map[string]string{
		"USE1-Bedrock-ModelUnit":  "12.00",
		"USE1-DataTransfer-Out":   "3.00",
		"USE1-bedrock-InputToken": "5.50",
	})}}
	f := newFetcher(stub)

	got := f.MatchingGroups(context.Background(), Query{Names: []string{"Amazon Bedrock"}, Period: march},
		config.GroupUsageType, []string{"BEDROCK"})
	if !approx(got, 17.5) {
		t.Errorf("total = %v; want 17.5", got)
	}
	if k := aws.ToString(stub.calls[0].GroupBy[0].Key); k != "USAGE_TYPE" {
		t.Errorf("group key = %q; want USAGE_TYPE", k)
	}
}

func TestMatchingGroups_ResourceIDUsesResourceAPI(t *testing.T) {
	stub := &stubCE{resPages: map[string]*ce.GetCostAndUsageWithResourcesOutput{"": {
		ResultsByTime: []cetypes.ResultByTime{{Groups: []cetypes.Group{
			{Keys: []string{"arn:aws:sagemaker:us-east-1:1:endpoint/eva-llm"}, Metrics: metric("20")},
			{Keys: []string{"arn:aws:sagemaker:us-east-1:1:endpoint/other"}, Metrics: metric("9")},
		}}},
	}}}
	f := newFetcher(stub)

	got := f.MatchingGroups(context.Background(), Query{Names: []string{"Amazon SageMaker"}, Period: march},
		config.GroupResourceID, []string{"eva"})
	if !approx(got, 20) {
		t.Errorf("total = %v; want 20", got)
	}
	if len(stub.calls) != 0 || len(stub.resCalls) != 1 {
		t.Errorf("calls = %d/%d; want 0 GetCostAndUsage and 1 GetCostAndUsageWithResources", len(stub.calls), len(stub.resCalls))
	}
}

func TestByTag_StripsKeyPrefix(t *testing.T) {
	stub := &stubCE{pages: map[string]*ce.GetCostAndUsageOutput{"": groupPage(map[string]string{
		"Project$ask-eva":  "30.00",
		"Project$iep":      "10.00",
		"Project$":         "5.23",
		"Project$$weird$v": "1.00",
	})}}
	f := newFetcher(stub)

	got, ok := f.ByTag(context.Background(), Query{Names: []string{"Amazon Bedrock"}, Period: march}, "Project")
	if !ok {
		t.Fatal("ByTag reported failure")
	}
	want := map[string]models.Amount{"ask-eva": 30, "iep": 10, "": 5.23, "$weird$v": 1}
	for k, v := range want {
		if !approx(got[k], v) {
			t.Errorf("ByTag[%q] = %v; want %v", k, got[k], v)
		}
	}
	if g := stub.calls[0].GroupBy[0]; g.Type != cetypes.GroupDefinitionTypeTag || aws.ToString(g.Key) != "Project" {
		t.Errorf("group = %+v; want TAG Project", g)
	}
}

func TestServiceSpend_DispatchesOnGroupBy(t *testing.T) {
	stub := &stubCE{pages: map[string]*ce.GetCostAndUsageOutput{"": totalPage("2", nil)}}
	f := newFetcher(stub)

	f.ServiceSpend(context.Background(), config.ServiceConfig{CostExplorerNames: []string{"AWS Lambda"}}, "1", march)
	if stub.calls[0].GroupBy != nil {
		t.Errorf("plain service sent GroupBy %+v", stub.calls[0].GroupBy)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   *string
		want models.Amount
	}{
		{aws.String("12.5"), 12.5},
		{aws.String("-3"), 0},
		{aws.String("n/a"), 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := parseAmount(tt.in); got != tt.want {
			t.Errorf("parseAmount(%q) = %v; want %v", aws.ToString(tt.in), got, tt.want)
		}
	}
}
