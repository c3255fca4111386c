package engine

import (
	"context"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatTable ReportFormat = "table"
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatCSV   ReportFormat = "csv"
)

// RunOptions configures a single attribution run.
// It is the sole input to Engine.Run besides the account sessions.
type RunOptions struct {
	// Period is the billing window; its End is inclusive.
	Period models.Period

	// Services restricts the run to these keys. Empty means every service
	// enabled in the catalog.
	Services []models.ServiceKey

	// TagAttribution probes the catalog tag keys for a cost-allocation tag
	// breakdown of each service with spend.
	TagAttribution bool
}

// Engine is the central orchestration interface.
// It coordinates discovery, cost fetching and attribution, returning a fully
// populated Report. Accounts and services are processed sequentially.
//
// Engine must not call the AWS SDK directly; it delegates to the discovery
// and cost providers.
type Engine interface {
	// Discover runs only the resource matcher for one account.
	Discover(ctx context.Context, sess *common.AccountSession, services []models.ServiceKey) (*models.DiscoveryResult, error)

	// Run discovers, fetches and attributes every account in sessions.
	Run(ctx context.Context, sessions []*common.AccountSession, opts RunOptions) (*models.Report, error)
}
