package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
)

func goodSettings() config.Settings {
	return config.Settings{
		SSOStartURL: "https://acme.awsapps.com/start",
		SSORegion:   "us-east-1",
		Region:      "us-east-1",
	}
}

func runDoctorFor(t *testing.T, p *stubProvider, s config.Settings, format, profile string, checkAWS bool) (string, DoctorResult) {
	t.Helper()
	var buf bytes.Buffer
	result, err := runDoctor(context.Background(), p, s, &buf, format, profile, checkAWS)
	if err != nil {
		t.Fatalf("runDoctor returned rendering error: %v", err)
	}
	return buf.String(), result
}

// ── table ─────────────────────────────────────────────────────────────────────

func TestDoctor_HealthyEmbeddedCatalog(t *testing.T) {
	out, result := runDoctorFor(t, &stubProvider{}, goodSettings(), "table", "", false)

	if !result.OverallHealthy {
		t.Errorf("OverallHealthy = false; want true\n%s", out)
	}
	if result.Catalog.Source != "embedded" || result.Catalog.Projects == 0 {
		t.Errorf("catalog = %+v; want embedded with projects", result.Catalog)
	}
	if result.AWS.Checked {
		t.Error("AWS checked without --check-credentials")
	}
	for _, want := range []string{"Environment Diagnostics", "SSO start URL: OK", "Catalog valid: OK"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "AWS") {
		t.Errorf("AWS section rendered without a check:\n%s", out)
	}
}

func TestDoctor_MissingStartURLIsNotFatal(t *testing.T) {
	s := goodSettings()
	s.SSOStartURL = ""
	out, result := runDoctorFor(t, &stubProvider{}, s, "table", "", false)
	if !result.OverallHealthy {
		t.Error("a missing start URL should not fail doctor")
	}
	if !strings.Contains(out, "SSO start URL: NOT SET") {
		t.Errorf("output missing NOT SET:\n%s", out)
	}
}

func TestDoctor_InvalidCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "version: 1\nprojects:\n  - id: unattributed\n    status: Live\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	s := goodSettings()
	s.CatalogPath = path

	out, result := runDoctorFor(t, &stubProvider{}, s, "table", "", false)
	if result.OverallHealthy || result.Catalog.Valid {
		t.Error("invalid catalog reported healthy")
	}
	if len(result.Catalog.Errors) < 2 {
		t.Errorf("errors = %v; want the reserved id and the status", result.Catalog.Errors)
	}
	if !strings.Contains(out, "Catalog valid: FAIL") {
		t.Errorf("output missing FAIL line:\n%s", out)
	}
}

func TestDoctor_CatalogFileMissing(t *testing.T) {
	s := goodSettings()
	s.CatalogPath = filepath.Join(t.TempDir(), "nope.yaml")
	_, result := runDoctorFor(t, &stubProvider{}, s, "table", "", false)
	if result.OverallHealthy || len(result.Catalog.Errors) != 1 {
		t.Errorf("catalog = %+v; want one read error", result.Catalog)
	}
}

// ── AWS ───────────────────────────────────────────────────────────────────────

func TestDoctor_ProfileCredentials(t *testing.T) {
	p := &stubProvider{}
	out, result := runDoctorFor(t, p, goodSettings(), "table", "prod", true)
	if p.lastProfile != "prod" {
		t.Errorf("LoadProfile profile = %q; want prod", p.lastProfile)
	}
	if !result.AWS.Credentials || result.AWS.AccountID != "123456789012" {
		t.Errorf("aws = %+v", result.AWS)
	}
	if !strings.Contains(out, "AWS (profile: prod):") || !strings.Contains(out, "Account: 123456789012") {
		t.Errorf("AWS section wrong:\n%s", out)
	}
}

func TestDoctor_CredentialFailure(t *testing.T) {
	p := &stubProvider{profileErr: errors.New("no credentials")}
	out, result := runDoctorFor(t, p, goodSettings(), "table", "", true)
	if result.OverallHealthy {
		t.Error("credential failure reported healthy")
	}
	if !strings.Contains(out, "Credentials: FAIL (no credentials)") || !strings.Contains(out, "STS Identity: FAIL (skipped)") {
		t.Errorf("failure lines missing:\n%s", out)
	}
}

// ── json ──────────────────────────────────────────────────────────────────────

func TestDoctor_JSON(t *testing.T) {
	out, _ := runDoctorFor(t, &stubProvider{}, goodSettings(), "json", "", true)
	var got DoctorResult
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if !got.OverallHealthy || !got.AWS.Credentials || !got.Catalog.Valid {
		t.Errorf("decoded = %+v", got)
	}
	if !strings.Contains(out, `"overall_healthy": true`) {
		t.Errorf("json key missing:\n%s", out)
	}
}

func TestDoctorCmd_UnhealthyReturnsError(t *testing.T) {
	h := newHarness(t)
	h.provider.profileErr = errors.New("expired token")
	_, _, err := h.execute("", "doctor", "--profile", "prod")
	if !errors.Is(err, errUnhealthy) {
		t.Errorf("err = %v; want errUnhealthy", err)
	}
}
