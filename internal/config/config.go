package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read into Settings,
// e.g. AICOST_SSO_START_URL.
const EnvPrefix = "AICOST"

// SettingsFileName is the optional settings file looked up in $HOME.
const SettingsFileName = ".aicost.yaml"

// Settings keys. Flags are bound to the same names with "-" for "_".
const (
	KeySSOStartURL = "sso_start_url"
	KeySSORegion   = "sso_region"
	KeyRegion      = "region"
	KeyRole        = "role"
	KeyCatalog     = "catalog"
	KeyLogLevel    = "log_level"
	KeyHTTPAddr    = "http_addr"
	KeyOutputDir   = "output_dir"
)

// Settings is the runtime configuration of the CLI and server. It never
// holds secrets; credentials come from SSO or the AWS credential chain.
type Settings struct {
	// SSOStartURL is the IAM Identity Center portal URL.
	SSOStartURL string `mapstructure:"sso_start_url"`

	// SSORegion is the region of the Identity Center instance.
	SSORegion string `mapstructure:"sso_region"`

	// Region is where resources are listed.
	Region string `mapstructure:"region"`

	// Role is the permission set used for every account. Empty means the
	// first role of each account.
	Role string `mapstructure:"role"`

	// CatalogPath is a project catalog file. Empty means the embedded one.
	CatalogPath string `mapstructure:"catalog"`

	LogLevel  string `mapstructure:"log_level"`
	HTTPAddr  string `mapstructure:"http_addr"`
	OutputDir string `mapstructure:"output_dir"`
}

// NewViper returns a viper instance with the aicost defaults and
// environment binding applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeySSOStartURL, "")
	v.SetDefault(KeySSORegion, "us-east-1")
	v.SetDefault(KeyRegion, "us-east-1")
	v.SetDefault(KeyRole, "")
	v.SetDefault(KeyCatalog, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHTTPAddr, "127.0.0.1:8080")
	v.SetDefault(KeyOutputDir, ".")
	return v
}

// ReadSettingsFile merges the settings file into v. An explicit path must
// exist; without one, $HOME/.aicost.yaml is read when present.
func ReadSettingsFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, SettingsFileName)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil
		}
		v.SetConfigFile(path)
	}
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings %s: %w", path, err)
	}
	return nil
}

// LoadSettings decodes v into Settings.
func LoadSettings(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.SSOStartURL = strings.TrimSpace(s.SSOStartURL)
	return s, nil
}

// ErrNoStartURL is returned when an SSO login is needed but no start URL
// is configured.
var ErrNoStartURL = errors.New("SSO start URL is not configured; set --sso-start-url or " + EnvPrefix + "_SSO_START_URL")

// RequireStartURL returns ErrNoStartURL when s has no SSO start URL.
func (s Settings) RequireStartURL() error {
	if s.SSOStartURL == "" {
		return ErrNoStartURL
	}
	return nil
}

// Catalog loads the configured catalog, or the embedded default.
func (s Settings) Catalog() (*Catalog, error) {
	if s.CatalogPath == "" {
		return Default(), nil
	}
	return Load(s.CatalogPath)
}
