package sso

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ssosvc "github.com/aws/aws-sdk-go-v2/service/sso"
	"github.com/aws/aws-sdk-go-v2/service/ssooidc"
)

// oidcClient covers the SSO OIDC operations of the device-code flow.
type oidcClient interface {
	RegisterClient(
		ctx context.Context,
		params *ssooidc.RegisterClientInput,
		optFns ...func(*ssooidc.Options),
	) (*ssooidc.RegisterClientOutput, error)

	StartDeviceAuthorization(
		ctx context.Context,
		params *ssooidc.StartDeviceAuthorizationInput,
		optFns ...func(*ssooidc.Options),
	) (*ssooidc.StartDeviceAuthorizationOutput, error)

	CreateToken(
		ctx context.Context,
		params *ssooidc.CreateTokenInput,
		optFns ...func(*ssooidc.Options),
	) (*ssooidc.CreateTokenOutput, error)
}

// portalClient covers the SSO portal operations used after login.
// It satisfies sso.ListAccountsAPIClient and sso.ListAccountRolesAPIClient
// so the SDK v2 paginators can drive it.
type portalClient interface {
	ListAccounts(
		ctx context.Context,
		params *ssosvc.ListAccountsInput,
		optFns ...func(*ssosvc.Options),
	) (*ssosvc.ListAccountsOutput, error)

	ListAccountRoles(
		ctx context.Context,
		params *ssosvc.ListAccountRolesInput,
		optFns ...func(*ssosvc.Options),
	) (*ssosvc.ListAccountRolesOutput, error)

	GetRoleCredentials(
		ctx context.Context,
		params *ssosvc.GetRoleCredentialsInput,
		optFns ...func(*ssosvc.Options),
	) (*ssosvc.GetRoleCredentialsOutput, error)
}

// Clients bundles the two SSO service clients.
type Clients struct {
	OIDC   oidcClient
	Portal portalClient
}

// NewClients constructs real SDK clients from an SSO-region config.
func NewClients(cfg aws.Config) Clients {
	return Clients{
		OIDC:   ssooidc.NewFromConfig(cfg),
		Portal: ssosvc.NewFromConfig(cfg),
	}
}
