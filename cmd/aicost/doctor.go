package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/output"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
)

// errUnhealthy is returned by doctor when a required check failed. The
// report has already been printed.
var errUnhealthy = errors.New("environment checks failed")

// DoctorResult is the structured output of aicost doctor. It can be
// serialised to JSON via --format=json or rendered as a table (default).
type DoctorResult struct {
	Settings struct {
		StartURL  string `json:"sso_start_url,omitempty"`
		SSORegion string `json:"sso_region"`
		Region    string `json:"region"`
		Role      string `json:"role,omitempty"`
	} `json:"settings"`

	Catalog struct {
		Source   string   `json:"source"`
		Valid    bool     `json:"valid"`
		Projects int      `json:"projects"`
		Services int      `json:"services"`
		Errors   []string `json:"errors,omitempty"`
	} `json:"catalog"`

	AWS struct {
		Checked     bool   `json:"checked"`
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(a *app) *cobra.Command {
	var (
		format   string
		profile  string
		checkAWS bool
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check settings, the project catalog and AWS credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runDoctor(cmd.Context(), a.provider, a.settings, cmd.OutOrStdout(), format, profile, checkAWS || profile != "")
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", `Output format: "table" or "json"`)
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile to check (implies --check-credentials)")
	cmd.Flags().BoolVar(&checkAWS, "check-credentials", false, "Resolve AWS credentials and the caller account")
	return cmd
}

// runDoctor collects every diagnostic, renders it to w in format and
// returns the result. The error covers rendering failures only.
func runDoctor(ctx context.Context, provider common.AWSClientProvider, s config.Settings, w io.Writer, format, profile string, checkAWS bool) (DoctorResult, error) {
	result := collectDoctorResult(ctx, provider, s, profile, checkAWS)

	switch format {
	case "json":
		if err := output.WriteJSON(w, result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}
	return result, nil
}

// collectDoctorResult runs the checks without rendering anything.
func collectDoctorResult(ctx context.Context, provider common.AWSClientProvider, s config.Settings, profile string, checkAWS bool) DoctorResult {
	var result DoctorResult

	result.Settings.StartURL = s.SSOStartURL
	result.Settings.SSORegion = s.SSORegion
	result.Settings.Region = s.Region
	result.Settings.Role = s.Role

	// Catalog: embedded default or file, decoded then validated.
	data := config.DefaultYAML()
	result.Catalog.Source = "embedded"
	if s.CatalogPath != "" {
		result.Catalog.Source = s.CatalogPath
		var err error
		if data, err = os.ReadFile(s.CatalogPath); err != nil {
			result.Catalog.Errors = []string{err.Error()}
			data = nil
		}
	}
	if data != nil {
		if f, err := config.Decode(data); err != nil {
			result.Catalog.Errors = []string{err.Error()}
		} else {
			result.Catalog.Projects = len(f.Projects)
			result.Catalog.Services = len(f.Services)
			for _, e := range config.Validate(f) {
				result.Catalog.Errors = append(result.Catalog.Errors, e.Error())
			}
			result.Catalog.Valid = len(result.Catalog.Errors) == 0
		}
	}

	// AWS: credential chain or profile, then the STS caller account.
	if checkAWS {
		result.AWS.Checked = true
		result.AWS.Profile = profile
		sess, err := provider.LoadProfile(ctx, profile, s.Region)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.Credentials = true
			result.AWS.AccountID = sess.AccountID
		}
	}

	result.OverallHealthy = result.Catalog.Valid &&
		(!result.AWS.Checked || result.AWS.Credentials)
	return result
}

// renderDoctorTable writes the human-readable diagnostics in result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nSettings:")
	if result.Settings.StartURL == "" {
		doctorPrint(w, "SSO start URL", "NOT SET", "needed for SSO login; --profile still works")
	} else {
		doctorPrint(w, "SSO start URL", "OK", result.Settings.StartURL)
	}
	doctorPrint(w, "SSO region", result.Settings.SSORegion, "")
	doctorPrint(w, "Resource region", result.Settings.Region, "")
	if result.Settings.Role != "" {
		doctorPrint(w, "Role", result.Settings.Role, "")
	}

	fmt.Fprintf(w, "\nCatalog (%s):\n", result.Catalog.Source)
	if result.Catalog.Valid {
		doctorPrint(w, "Catalog valid", "OK", fmt.Sprintf("%d projects, %d services", result.Catalog.Projects, result.Catalog.Services))
	} else {
		for _, e := range result.Catalog.Errors {
			doctorPrint(w, "Catalog valid", "FAIL", e)
		}
	}

	if !result.AWS.Checked {
		return
	}
	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		return
	}
	doctorPrint(w, "Credentials", "OK", "")
	doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
}

// doctorPrint writes a single check line to w. A non-empty detail is
// appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
