package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := config.LoadSettings(config.NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SSORegion != "us-east-1" || s.Region != "us-east-1" {
		t.Errorf("regions = %q/%q; want us-east-1", s.SSORegion, s.Region)
	}
	if s.LogLevel != "info" || s.HTTPAddr != "127.0.0.1:8080" || s.OutputDir != "." {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if !errors.Is(s.RequireStartURL(), config.ErrNoStartURL) {
		t.Error("expected ErrNoStartURL without a start URL")
	}
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("AICOST_SSO_START_URL", " https://acme.awsapps.com/start ")
	t.Setenv("AICOST_ROLE", "ReadOnly")

	s, err := config.LoadSettings(config.NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SSOStartURL != "https://acme.awsapps.com/start" {
		t.Errorf("SSOStartURL = %q", s.SSOStartURL)
	}
	if s.Role != "ReadOnly" {
		t.Errorf("Role = %q; want ReadOnly", s.Role)
	}
	if err := s.RequireStartURL(); err != nil {
		t.Errorf("RequireStartURL: %v", err)
	}
}

func TestReadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aicost.yaml")
	data := "sso_start_url: https://file.awsapps.com/start\nregion: eu-west-1\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	v := config.NewViper()
	if err := config.ReadSettingsFile(v, path); err != nil {
		t.Fatalf("ReadSettingsFile: %v", err)
	}
	t.Setenv("AICOST_REGION", "ap-south-1")

	s, err := config.LoadSettings(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SSOStartURL != "https://file.awsapps.com/start" || s.LogLevel != "debug" {
		t.Errorf("file values not applied: %+v", s)
	}
	if s.Region != "ap-south-1" {
		t.Errorf("Region = %q; env must override the file", s.Region)
	}
}

func TestReadSettingsFile_ExplicitMissing(t *testing.T) {
	v := config.NewViper()
	if err := config.ReadSettingsFile(v, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing explicit settings file")
	}
}

func TestReadSettingsFile_HomeOptional(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := config.ReadSettingsFile(config.NewViper(), ""); err != nil {
		t.Errorf("missing home settings file must be ignored: %v", err)
	}
}

func TestSettings_Catalog(t *testing.T) {
	c, err := config.Settings{}.Catalog()
	if err != nil || c == nil {
		t.Fatalf("default catalog: %v", err)
	}
	if _, err := (config.Settings{CatalogPath: filepath.Join(t.TempDir(), "nope.yaml")}).Catalog(); err == nil {
		t.Error("expected an error for a missing catalog file")
	}
}
