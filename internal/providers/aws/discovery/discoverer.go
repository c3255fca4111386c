// Package discovery lists AI-related AWS resources per account and assigns
// each one to a catalog project.
package discovery

import (
	"context"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
)

// Discoverer enumerates resources for one account and matches them to
// projects. Only read-only AWS APIs are called.
type Discoverer interface {
	// Discover lists each of services in the session region. A service whose
	// listing fails is recorded in the result's Errors map; the others still
	// run. The error return is reserved for context cancellation.
	Discover(ctx context.Context, sess *common.AccountSession, services []models.ServiceKey) (*models.DiscoveryResult, error)
}
