package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/aicost/internal/version"
)

func setVersion(t *testing.T, v, c, d string) {
	t.Helper()
	orig, origC, origD := version.Version, version.Commit, version.Date
	t.Cleanup(func() {
		version.Version, version.Commit, version.Date = orig, origC, origD
	})
	version.Version, version.Commit, version.Date = v, c, d
}

func TestVersionCmd_Output(t *testing.T) {
	setVersion(t, "test", "abc123", "2025-01-01")

	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("version command returned error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"test", "abc123", "2025-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q; got:\n%s", want, out)
		}
	}
}

func TestVersionCmd_IgnoresBadSettings(t *testing.T) {
	setVersion(t, "test", "abc123", "2025-01-01")

	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"version", "--config", "/nonexistent/aicost.yaml"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version should not read settings: %v", err)
	}
}

func TestVersionInfo_Format(t *testing.T) {
	setVersion(t, "v1.2.3", "deadbeef", "2026-01-15")

	info := version.Info()

	if !strings.HasPrefix(info, "aicost version v1.2.3\n") {
		t.Errorf("Info() first line wrong; got: %q", info)
	}
	if !strings.Contains(info, "commit: deadbeef") {
		t.Errorf("Info() missing commit line; got: %q", info)
	}
	if !strings.Contains(info, "built: 2026-01-15") {
		t.Errorf("Info() missing built line; got: %q", info)
	}
	if !strings.Contains(info, "go: go") {
		t.Errorf("Info() missing go line; got: %q", info)
	}
}
