package common

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// DefaultRegion is used when neither a flag nor the profile names a region.
const DefaultRegion = "us-east-1"

// DefaultAWSClientProvider is the production implementation of AWSClientProvider.
//
// Inject a custom ClientFactory via NewDefaultAWSClientProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultAWSClientProvider struct {
	factory ClientFactory
}

// NewDefaultAWSClientProvider returns a provider backed by the real AWS SDK.
func NewDefaultAWSClientProvider() *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: NewClientSet}
}

// NewDefaultAWSClientProviderWithFactory returns a provider that uses f to
// create its ClientSet. Pass a mock factory in tests.
func NewDefaultAWSClientProviderWithFactory(f ClientFactory) *DefaultAWSClientProvider {
	return &DefaultAWSClientProvider{factory: f}
}

// LoadProfile loads the shared config for profile and resolves the account
// ID through STS. region overrides the profile region when non-empty.
func (p *DefaultAWSClientProvider) LoadProfile(ctx context.Context, profile, region string) (*AccountSession, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS profile %q: %w", profileDisplayName(profile), err)
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	return p.sessionFromConfig(ctx, cfg, profile)
}

func (p *DefaultAWSClientProvider) sessionFromConfig(ctx context.Context, cfg aws.Config, profile string) (*AccountSession, error) {
	accountID, err := resolveAccountID(ctx, p.factory(cfg).STS)
	if err != nil {
		return nil, fmt.Errorf("resolve account ID for profile %q: %w", profileDisplayName(profile), err)
	}
	return &AccountSession{
		AccountID: accountID,
		Source:    SourceProfile,
		Profile:   profileDisplayName(profile),
		Region:    cfg.Region,
		Config:    cfg,
	}, nil
}

// SessionFromCredential builds a session around static role credentials.
// No network call is made.
func (p *DefaultAWSClientProvider) SessionFromCredential(cred models.SessionCredential, region string) *AccountSession {
	if region == "" {
		region = DefaultRegion
	}
	cfg := aws.Config{
		Region: region,
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cred.AccessKeyID,
			cred.SecretAccessKey,
			cred.SessionToken,
		)),
	}
	return &AccountSession{
		AccountID:   cred.AccountID,
		AccountName: cred.AccountName,
		Source:      SourceSSO,
		RoleName:    cred.RoleName,
		Region:      region,
		Config:      cfg,
		Expiration:  cred.Expiration,
	}
}

// LoadAnonymousConfig returns an unsigned config for region. The SSO OIDC
// and portal APIs authenticate with client secrets and bearer tokens rather
// than SigV4.
func LoadAnonymousConfig(ctx context.Context, region string) (aws.Config, error) {
	if region == "" {
		region = DefaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load SSO config for region %s: %w", region, err)
	}
	return cfg, nil
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// resolveAccountID calls STS GetCallerIdentity to retrieve the numeric AWS
// account ID for the credentials currently loaded in stsClient.
func resolveAccountID(ctx context.Context, stsClient STSClient) (string, error) {
	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return "", fmt.Errorf("STS GetCallerIdentity returned nil account")
	}
	return aws.ToString(out.Account), nil
}
