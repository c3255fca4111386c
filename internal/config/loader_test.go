package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

const minimalCatalog = `
version: 1
tag_keys: [Project]
projects:
  - id: alpha
    name: Alpha
    status: poc
    patterns: [alpha]
  - id: beta
    status: MVP
    priority: 5
    patterns: [beta]
    tag_values: [Beta Project]
services:
  bedrock:
    kind: full
    cost_explorer_names: [Amazon Bedrock]
  lambda:
    kind: partial
    ai_percentage: 0.3
    cost_explorer_names: [AWS Lambda]
    include_patterns: [ai]
  s3:
    kind: partial
    cost_explorer_names: [Amazon Simple Storage Service]
  kendra:
    kind: full
    disabled: true
    cost_explorer_names: [Amazon Kendra]
`

func TestLoad_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aicost.yaml")
	if err := os.WriteFile(path, []byte(minimalCatalog), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := c.UnattributedFraction(); got != DefaultUnattributedFraction {
		t.Errorf("UnattributedFraction = %v; want %v", got, DefaultUnattributedFraction)
	}

	projects := c.Projects()
	if len(projects) != 2 {
		t.Fatalf("len(Projects) = %d; want 2", len(projects))
	}
	// beta has the higher priority so it is evaluated first.
	if projects[0].ID != "beta" || projects[1].ID != "alpha" {
		t.Errorf("project order = [%s %s]; want [beta alpha]", projects[0].ID, projects[1].ID)
	}
	if projects[1].Status != StatusPOC {
		t.Errorf("alpha status = %q; want %q", projects[1].Status, StatusPOC)
	}
	if projects[0].Name != "beta" {
		t.Errorf("beta name = %q; want ID fallback %q", projects[0].Name, "beta")
	}

	keys := c.ServiceKeys()
	want := []models.ServiceKey{models.ServiceBedrock, models.ServiceLambda, models.ServiceS3}
	if len(keys) != len(want) {
		t.Fatalf("ServiceKeys = %v; want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("ServiceKeys[%d] = %q; want %q", i, keys[i], want[i])
		}
	}

	s3, _ := c.Service(models.ServiceS3)
	if s3.AIPercentage != DefaultPartialPercentage {
		t.Errorf("s3 AIPercentage = %v; want default %v", s3.AIPercentage, DefaultPartialPercentage)
	}
	bedrock, _ := c.Service(models.ServiceBedrock)
	if bedrock.AIFraction() != 1 {
		t.Errorf("bedrock AIFraction = %v; want 1", bedrock.AIFraction())
	}
	if _, ok := c.Service(models.ServiceKendra); ok {
		t.Error("disabled kendra service should not be in the catalog")
	}
}

func TestLoad_InvalidVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aicost.yaml")
	os.WriteFile(path, []byte("version: 2\n"), 0o644)

	_, err := Load(path)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v; want ErrUnsupportedVersion", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("nonexistent.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_JoinsAllValidationErrors(t *testing.T) {
	doc := `
version: 1
projects:
  - id: a
    status: unknown
    patterns: ["("]
services:
  quantum:
    kind: full
    cost_explorer_names: [x]
`
	_, err := Parse([]byte(doc))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, frag := range []string{"status", "patterns[0]", "services.quantum"} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("error %q missing %q", err, frag)
		}
	}
}

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	if len(c.Projects()) == 0 {
		t.Fatal("default catalog has no projects")
	}
	if _, ok := c.Project("ask-eva"); !ok {
		t.Error("default catalog missing ask-eva")
	}
	lambda, ok := c.Service(models.ServiceLambda)
	if !ok {
		t.Fatal("default catalog missing lambda")
	}
	if lambda.AIPercentage != 0.3 {
		t.Errorf("lambda AIPercentage = %v; want 0.3", lambda.AIPercentage)
	}
}

func TestProject_MatchName(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	if err != nil {
		t.Fatal(err)
	}
	alpha, _ := c.Project("alpha")

	tests := []struct {
		name, arn string
		want      bool
	}{
		{"ALPHA-handler", "", true},
		{"svc-alpha", "", true},
		{"gamma", "arn:aws:lambda:us-east-1:1:function:Alpha", true},
		{"gamma", "", false},
	}
	for _, tt := range tests {
		if got := alpha.MatchName(tt.name, tt.arn); got != tt.want {
			t.Errorf("MatchName(%q, %q) = %v; want %v", tt.name, tt.arn, got, tt.want)
		}
	}
}

func TestCatalog_ResolveTagValue(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]string{
		"alpha":        "alpha",
		"BETA":         "beta",
		"beta project": "beta",
	}
	for v, want := range cases {
		got, ok := c.ResolveTagValue(v)
		if !ok || got != want {
			t.Errorf("ResolveTagValue(%q) = %q, %v; want %q", v, got, ok, want)
		}
	}
	if _, ok := c.ResolveTagValue("nobody"); ok {
		t.Error("ResolveTagValue(nobody) should not resolve")
	}
}

func TestCatalog_ParseServices(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := c.ParseServices([]string{" Bedrock", "lambda", "bedrock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != models.ServiceBedrock || got[1] != models.ServiceLambda {
		t.Errorf("ParseServices = %v; want [bedrock lambda]", got)
	}

	if got, err := c.ParseServices(nil); err != nil || got != nil {
		t.Errorf("ParseServices(nil) = %v, %v; want nil, nil", got, err)
	}
	if _, err := c.ParseServices([]string{"kendra"}); !errors.Is(err, ErrServiceNotEnabled) {
		t.Errorf("disabled kendra: err = %v; want ErrServiceNotEnabled", err)
	}
	if _, err := c.ParseServices([]string{"ec2"}); !errors.Is(err, ErrServiceNotEnabled) {
		t.Errorf("unconfigured ec2: err = %v; want ErrServiceNotEnabled", err)
	}
	if _, err := c.ParseServices([]string{"polly2"}); err == nil || errors.Is(err, ErrServiceNotEnabled) {
		t.Errorf("unknown name: err = %v; want unknown service error", err)
	}
}

func TestServiceConfig_Included(t *testing.T) {
	c, err := Parse([]byte(minimalCatalog))
	if err != nil {
		t.Fatal(err)
	}
	lambda, _ := c.Service(models.ServiceLambda)
	if !lambda.Included("my-AI-fn", "") {
		t.Error("lambda should include names matching include pattern")
	}
	if lambda.Included("billing", "") {
		t.Error("lambda should exclude names outside include patterns")
	}
	s3, _ := c.Service(models.ServiceS3)
	if !s3.Included("anything", "") {
		t.Error("service without include patterns should include everything")
	}
}
