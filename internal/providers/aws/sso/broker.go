// Package sso implements the IAM Identity Center device-code login and the
// exchange of its bearer token for per-account role credentials.
package sso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ssosvc "github.com/aws/aws-sdk-go-v2/service/sso"
	"github.com/aws/aws-sdk-go-v2/service/ssooidc"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

const (
	// ClientName is the OIDC client name registered for each login.
	ClientName = "aicost"

	// DefaultLoginTimeout bounds how long AwaitToken polls.
	DefaultLoginTimeout = 10 * time.Minute

	deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"
)

var (
	ErrLoginTimeout = errors.New("sso login timed out")
	ErrLoginExpired = errors.New("sso device code expired")
	ErrLoginDenied  = errors.New("sso login denied")
	ErrNoRoles      = errors.New("no roles available")
)

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Broker runs the device-code flow against one SSO region.
type Broker struct {
	oidc    oidcClient
	portal  portalClient
	sleep   SleepFunc
	now     func() time.Time
	timeout time.Duration
	logger  zerolog.Logger
}

// Option customises a Broker.
type Option func(*Broker)

// WithSleep replaces the poll-interval sleep.
func WithSleep(f SleepFunc) Option { return func(b *Broker) { b.sleep = f } }

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option { return func(b *Broker) { b.now = now } }

// WithTimeout replaces DefaultLoginTimeout.
func WithTimeout(d time.Duration) Option { return func(b *Broker) { b.timeout = d } }

// WithLogger sets the broker logger.
func WithLogger(l zerolog.Logger) Option { return func(b *Broker) { b.logger = l } }

// NewBroker returns a broker backed by real SDK clients built from cfg,
// which must target the SSO region.
func NewBroker(cfg aws.Config, opts ...Option) *Broker {
	return NewBrokerWithClients(NewClients(cfg), opts...)
}

// NewBrokerWithClients returns a broker using c. Pass stubs in tests.
func NewBrokerWithClients(c Clients, opts ...Option) *Broker {
	b := &Broker{
		oidc:    c.OIDC,
		portal:  c.Portal,
		sleep:   Sleep,
		now:     time.Now,
		timeout: DefaultLoginTimeout,
		logger:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// StartLogin registers a public OIDC client and requests device
// authorization for startURL. The caller presents VerificationURI and
// UserCode to the user, then calls AwaitToken.
func (b *Broker) StartLogin(ctx context.Context, startURL string) (*models.DeviceAuthorization, error) {
	if startURL == "" {
		return nil, fmt.Errorf("sso start URL is required")
	}

	reg, err := b.oidc.RegisterClient(ctx, &ssooidc.RegisterClientInput{
		ClientName: aws.String(ClientName),
		ClientType: aws.String("public"),
	})
	if err != nil {
		return nil, fmt.Errorf("register OIDC client: %w", err)
	}

	dev, err := b.oidc.StartDeviceAuthorization(ctx, &ssooidc.StartDeviceAuthorizationInput{
		ClientId:     reg.ClientId,
		ClientSecret: reg.ClientSecret,
		StartUrl:     aws.String(startURL),
	})
	if err != nil {
		return nil, fmt.Errorf("start device authorization: %w", err)
	}

	interval := dev.Interval
	if interval <= 0 {
		interval = 5
	}

	b.logger.Debug().Str("start_url", startURL).Int32("interval", interval).Msg("device authorization started")

	return &models.DeviceAuthorization{
		ClientID:                aws.ToString(reg.ClientId),
		ClientSecret:            aws.ToString(reg.ClientSecret),
		DeviceCode:              aws.ToString(dev.DeviceCode),
		UserCode:                aws.ToString(dev.UserCode),
		VerificationURI:         aws.ToString(dev.VerificationUri),
		VerificationURIComplete: aws.ToString(dev.VerificationUriComplete),
		Interval:                interval,
		ExpiresAt:               b.now().Add(time.Duration(dev.ExpiresIn) * time.Second),
	}, nil
}

// AwaitToken polls CreateToken until the login is approved, denied, expires
// or the broker timeout elapses.
func (b *Broker) AwaitToken(ctx context.Context, auth *models.DeviceAuthorization) (*models.SSOToken, error) {
	interval := time.Duration(auth.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	start := b.now()
	deadline := start.Add(b.timeout)
	for {
		out, err := b.oidc.CreateToken(ctx, &ssooidc.CreateTokenInput{
			ClientId:     aws.String(auth.ClientID),
			ClientSecret: aws.String(auth.ClientSecret),
			DeviceCode:   aws.String(auth.DeviceCode),
			GrantType:    aws.String(deviceCodeGrant),
		})

		state, slowDown, perr := classifyPoll(err)
		switch state {
		case PollApproved:
			b.logger.Debug().Dur("waited", b.now().Sub(start)).Msg("device authorization approved")
			return &models.SSOToken{
				AccessToken: aws.ToString(out.AccessToken),
				ExpiresAt:   b.now().Add(time.Duration(out.ExpiresIn) * time.Second),
			}, nil
		case PollExpired, PollDenied, PollFailed:
			return nil, perr
		}

		if slowDown {
			interval += 5 * time.Second
		}
		if !auth.ExpiresAt.IsZero() && !b.now().Before(auth.ExpiresAt) {
			return nil, ErrLoginExpired
		}
		// Deadline is wall-clock so slow CreateToken calls count too.
		if b.now().Add(interval).After(deadline) {
			return nil, fmt.Errorf("%w after %s", ErrLoginTimeout, b.timeout)
		}
		if err := b.sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
}

// Login runs StartLogin, hands the authorization to present, then waits for
// approval.
func (b *Broker) Login(ctx context.Context, startURL string, present func(*models.DeviceAuthorization)) (*models.SSOToken, error) {
	auth, err := b.StartLogin(ctx, startURL)
	if err != nil {
		return nil, err
	}
	if present != nil {
		present(auth)
	}
	return b.AwaitToken(ctx, auth)
}

// ListAccounts returns every account the token can access.
func (b *Broker) ListAccounts(ctx context.Context, token *models.SSOToken) ([]models.Account, error) {
	p := ssosvc.NewListAccountsPaginator(b.portal, &ssosvc.ListAccountsInput{
		AccessToken: aws.String(token.AccessToken),
	})

	var accounts []models.Account
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAccounts page: %w", err)
		}
		for _, a := range page.AccountList {
			accounts = append(accounts, models.Account{
				ID:    aws.ToString(a.AccountId),
				Name:  aws.ToString(a.AccountName),
				Email: aws.ToString(a.EmailAddress),
			})
		}
	}
	return accounts, nil
}

// ListRoles returns the role names available in accountID.
func (b *Broker) ListRoles(ctx context.Context, token *models.SSOToken, accountID string) ([]string, error) {
	p := ssosvc.NewListAccountRolesPaginator(b.portal, &ssosvc.ListAccountRolesInput{
		AccessToken: aws.String(token.AccessToken),
		AccountId:   aws.String(accountID),
	})

	var roles []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAccountRoles page for %s: %w", accountID, err)
		}
		for _, r := range page.RoleList {
			if name := aws.ToString(r.RoleName); name != "" {
				roles = append(roles, name)
			}
		}
	}
	return roles, nil
}

// RoleCredentials exchanges token for temporary credentials in account.
// An empty role selects the first role listed for the account.
func (b *Broker) RoleCredentials(ctx context.Context, token *models.SSOToken, account models.Account, role string) (*models.SessionCredential, error) {
	if role == "" {
		roles, err := b.ListRoles(ctx, token, account.ID)
		if err != nil {
			return nil, err
		}
		if len(roles) == 0 {
			return nil, fmt.Errorf("account %s: %w", account.ID, ErrNoRoles)
		}
		role = roles[0]
	}

	out, err := b.portal.GetRoleCredentials(ctx, &ssosvc.GetRoleCredentialsInput{
		AccessToken: aws.String(token.AccessToken),
		AccountId:   aws.String(account.ID),
		RoleName:    aws.String(role),
	})
	if err != nil {
		return nil, fmt.Errorf("GetRoleCredentials for %s/%s: %w", account.ID, role, err)
	}
	rc := out.RoleCredentials
	if rc == nil {
		return nil, fmt.Errorf("GetRoleCredentials for %s/%s returned no credentials", account.ID, role)
	}

	return &models.SessionCredential{
		AccountID:       account.ID,
		AccountName:     account.Name,
		RoleName:        role,
		AccessKeyID:     aws.ToString(rc.AccessKeyId),
		SecretAccessKey: aws.ToString(rc.SecretAccessKey),
		SessionToken:    aws.ToString(rc.SessionToken),
		Expiration:      time.UnixMilli(rc.Expiration).UTC(),
	}, nil
}

// AccountError pairs an account with the reason its credentials could not
// be obtained.
type AccountError struct {
	Account models.Account
	Err     error
}

func (e AccountError) Error() string {
	return fmt.Sprintf("account %s (%s): %v", e.Account.ID, e.Account.Name, e.Err)
}

func (e AccountError) Unwrap() error { return e.Err }

// Credentials fetches role credentials for each account. Accounts that fail
// are returned in the error slice and skipped.
func (b *Broker) Credentials(ctx context.Context, token *models.SSOToken, accounts []models.Account, role string) ([]models.SessionCredential, []AccountError) {
	var (
		creds  []models.SessionCredential
		failed []AccountError
	)
	for _, a := range accounts {
		c, err := b.RoleCredentials(ctx, token, a, role)
		if err != nil {
			b.logger.Warn().Str("account", a.ID).Err(err).Msg("skipping account")
			failed = append(failed, AccountError{Account: a, Err: err})
			continue
		}
		creds = append(creds, *c)
	}
	return creds, failed
}
