package cost

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ce "github.com/aws/aws-sdk-go-v2/service/costexplorer"
)

// ceClient covers the Cost Explorer operations used by the fetcher.
// Cost Explorer is a global service; always use us-east-1.
type ceClient interface {
	GetCostAndUsage(
		ctx context.Context,
		params *ce.GetCostAndUsageInput,
		optFns ...func(*ce.Options),
	) (*ce.GetCostAndUsageOutput, error)

	// GetCostAndUsageWithResources is the only operation that accepts the
	// RESOURCE_ID group-by dimension.
	GetCostAndUsageWithResources(
		ctx context.Context,
		params *ce.GetCostAndUsageWithResourcesInput,
		optFns ...func(*ce.Options),
	) (*ce.GetCostAndUsageWithResourcesOutput, error)
}

// CostExplorerRegion is the region every Cost Explorer call is sent to.
const CostExplorerRegion = "us-east-1"

// newCEClient is the production client constructor. The region of cfg is
// overridden to CostExplorerRegion.
func newCEClient(cfg aws.Config) ceClient {
	ceCfg := cfg.Copy()
	ceCfg.Region = CostExplorerRegion
	return ce.NewFromConfig(ceCfg)
}
