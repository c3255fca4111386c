package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// STSClient is the subset of STS operations used by the loader.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)
}

// ClientSet holds the service clients the loader needs. Fields are
// interfaces so tests can swap in stubs.
type ClientSet struct {
	STS STSClient
}

// ClientFactory creates a ClientSet from an aws.Config.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		STS: sts.NewFromConfig(cfg),
	}
}
