package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/optimize"
	"github.com/pankaj-dahiya-devops/aicost/internal/output"
)

func TestRenderPlan(t *testing.T) {
	r := sampleReport()
	r.Accounts[0].ServiceCosts = append(r.Accounts[0].ServiceCosts,
		models.ServiceCost{Service: models.ServiceKendra, Total: 120.04})

	var buf bytes.Buffer
	output.RenderPlan(&buf, optimize.Build(r))
	out := buf.String()
	for _, want := range []string{"RECOMMENDATION", "Migrate to OpenSearch", "$96.03", "Week 1: Quick Wins", "Payback: 15 days"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output\ngot:\n%s", want, out)
		}
	}
}

func TestRenderPlan_NoRecommendations(t *testing.T) {
	var buf bytes.Buffer
	output.RenderPlan(&buf, optimize.Build(&models.Report{}))
	if !strings.Contains(buf.String(), "No service recommendations") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
