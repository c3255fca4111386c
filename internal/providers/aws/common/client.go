package common

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// Source says where an AccountSession's credentials came from.
type Source string

const (
	SourceSSO     Source = "sso"
	SourceProfile Source = "profile"
)

// AccountSession is one AWS account ready for discovery and cost queries.
// It is the unit passed from the credential layer into the engine.
type AccountSession struct {
	AccountID   string
	AccountName string
	Source      Source

	// Profile is set for SourceProfile sessions; RoleName for SourceSSO.
	Profile  string
	RoleName string

	// Region is the region resources are listed in.
	Region string

	// Config is the AWS SDK v2 configuration carrying the credentials.
	Config aws.Config

	// Expiration is the credential expiry; zero for profile sessions.
	Expiration time.Time
}

// ConfigForRegion returns a copy of s.Config targeting region. The copy
// shares the credential cache, so no extra STS or SSO calls are made.
func (s *AccountSession) ConfigForRegion(region string) aws.Config {
	regional := s.Config.Copy()
	regional.Region = region
	return regional
}

// DisplayName returns the account name, falling back to the account ID.
func (s *AccountSession) DisplayName() string {
	if s.AccountName != "" {
		return s.AccountName
	}
	return s.AccountID
}

// AWSClientProvider turns credential sources into AccountSessions.
//
// Implementations must use the AWS SDK v2 only. Never call the aws CLI.
type AWSClientProvider interface {
	// LoadProfile returns a session for the named shared-config profile.
	// Pass an empty string to load the default credential chain.
	LoadProfile(ctx context.Context, profile, region string) (*AccountSession, error)

	// SessionFromCredential wraps temporary SSO role credentials.
	SessionFromCredential(cred models.SessionCredential, region string) *AccountSession

}
