package models

import "time"

// DeviceAuthorization is a pending device-code login.
type DeviceAuthorization struct {
	ClientID     string `json:"-"`
	ClientSecret string `json:"-"`
	DeviceCode   string `json:"-"`

	UserCode                string    `json:"user_code"`
	VerificationURI         string    `json:"verification_uri"`
	VerificationURIComplete string    `json:"verification_uri_complete,omitempty"`
	Interval                int32     `json:"interval"`
	ExpiresAt               time.Time `json:"expires_at"`
}

// SSOToken is the bearer token issued once a device login is approved.
type SSOToken struct {
	AccessToken string    `json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether t is present and unexpired at now.
func (t *SSOToken) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}

// Account is an AWS account visible through the SSO portal.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// SessionCredential holds temporary role credentials for one account. It is
// kept in memory only.
type SessionCredential struct {
	AccountID       string    `json:"account_id"`
	AccountName     string    `json:"account_name,omitempty"`
	RoleName        string    `json:"role_name"`
	AccessKeyID     string    `json:"-"`
	SecretAccessKey string    `json:"-"`
	SessionToken    string    `json:"-"`
	Expiration      time.Time `json:"expiration"`
}
