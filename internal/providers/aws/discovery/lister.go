package discovery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// lister enumerates the resources of one service. Returned records carry
// tags but no project; the Matcher assigns that afterwards.
type lister func(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error)

// listers maps each discoverable service to its lister. Services missing
// here have spend but no listable resources.
var listers = map[models.ServiceKey]lister{
	models.ServiceLambda:    listLambdaFunctions,
	models.ServiceS3:        listS3Buckets,
	models.ServiceDynamoDB:  listDynamoDBTables,
	models.ServiceBedrock:   listBedrockResources,
	models.ServiceKendra:    listKendraIndices,
	models.ServiceSageMaker: listSageMakerEndpoints,
	models.ServiceEC2:       listEC2Instances,
	models.ServiceRDS:       listRDSInstances,
	models.ServiceELB:       listLoadBalancers,
}

// Discoverable reports whether svc has a resource lister.
func Discoverable(svc models.ServiceKey) bool {
	_, ok := listers[svc]
	return ok
}

// scope is the account and region a listing runs against.
type scope struct {
	accountID string
	region    string
	logger    zerolog.Logger

	// regional returns clients for another region of the same account.
	// Global list calls (S3) use it to reach per-region APIs.
	regional func(region string) *clients
}

// clientsIn returns c for the scope region and regional clients otherwise.
func (s scope) clientsIn(c *clients, region string) *clients {
	if region == "" || region == s.region || s.regional == nil {
		return c
	}
	return s.regional(region)
}

// arn builds a regional ARN for services whose list calls return only IDs.
func (s scope) arn(service, resource string) string {
	return fmt.Sprintf("arn:aws:%s:%s:%s:%s", service, s.region, s.accountID, resource)
}

// applyTags stores l on r, downgrading a failed lookup to empty tags.
func (s scope) applyTags(r *models.ResourceRecord, l TagLookup) {
	if l.Err != nil {
		s.logger.Debug().
			Str("service", string(r.Service)).
			Str("resource", r.Name).
			Err(l.Err).
			Msg("tag lookup failed; continuing without tags")
	}
	r.Tags = l.OrEmpty()
}
