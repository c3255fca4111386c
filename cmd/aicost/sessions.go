package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/output"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/sso"
)

// errNoCredentials is returned when no selected account yielded role
// credentials.
var errNoCredentials = errors.New("no account yielded credentials")

// accountFlags selects the accounts a command runs against.
type accountFlags struct {
	profile     string
	allAccounts bool
	accountIDs  []string
}

func (f *accountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.profile, "profile", "", "Use this AWS profile instead of an SSO login")
	cmd.Flags().BoolVar(&f.allAccounts, "all-accounts", false, "Use every SSO account without prompting")
	cmd.Flags().StringSliceVar(&f.accountIDs, "accounts", nil, "Use only these SSO account IDs")
}

// sessions returns the account sessions selected by f. A profile yields a
// single session; otherwise an SSO device login runs.
func (a *app) sessions(cmd *cobra.Command, f accountFlags) ([]*common.AccountSession, error) {
	ctx := cmd.Context()
	if f.profile != "" {
		s, err := a.provider.LoadProfile(ctx, f.profile, a.settings.Region)
		if err != nil {
			return nil, err
		}
		return []*common.AccountSession{s}, nil
	}

	b, token, err := a.login(cmd)
	if err != nil {
		return nil, err
	}
	accounts, err := b.ListAccounts(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, errors.New("the SSO user has no accounts")
	}

	selected, err := a.chooseAccounts(cmd, accounts, f)
	if err != nil {
		return nil, err
	}

	creds, failed := b.Credentials(ctx, token, selected, a.settings.Role)
	for _, fe := range failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "WARN: skipping %v\n", fe)
	}
	if len(creds) == 0 {
		return nil, errNoCredentials
	}

	out := make([]*common.AccountSession, 0, len(creds))
	for _, c := range creds {
		out = append(out, a.provider.SessionFromCredential(c, a.settings.Region))
	}
	return out, nil
}

// login runs the SSO device flow and returns the broker and token.
func (a *app) login(cmd *cobra.Command) (broker, *models.SSOToken, error) {
	if err := a.settings.RequireStartURL(); err != nil {
		return nil, nil, err
	}
	b, err := a.newBroker(cmd.Context(), a.settings.SSORegion)
	if err != nil {
		return nil, nil, fmt.Errorf("SSO setup: %w", err)
	}
	token, err := b.Login(cmd.Context(), a.settings.SSOStartURL, a.present(cmd.ErrOrStderr()))
	if err != nil {
		return nil, nil, fmt.Errorf("SSO login failed: %w (check the SSO start URL and region)", err)
	}
	return b, token, nil
}

// present prints the verification URL and tries to open a browser.
func (a *app) present(w io.Writer) func(*models.DeviceAuthorization) {
	return func(auth *models.DeviceAuthorization) {
		url := auth.VerificationURIComplete
		if url == "" {
			url = auth.VerificationURI
		}
		fmt.Fprintln(w, "Sign in to AWS SSO in your browser:")
		fmt.Fprintf(w, "  %s\n", url)
		fmt.Fprintf(w, "  Code: %s\n", auth.UserCode)
		if err := a.openURL(url); err != nil {
			a.logger.Debug().Err(err).Msg("could not open browser")
		}
		fmt.Fprintln(w, "Waiting for approval...")
	}
}

// chooseAccounts applies --accounts, --all-accounts or the interactive
// prompt, in that order.
func (a *app) chooseAccounts(cmd *cobra.Command, accounts []models.Account, f accountFlags) ([]models.Account, error) {
	if len(f.accountIDs) > 0 {
		picked := sso.FilterAccounts(accounts, f.accountIDs)
		if len(picked) == 0 {
			return nil, fmt.Errorf("none of the accounts %s is available", strings.Join(f.accountIDs, ", "))
		}
		return picked, nil
	}
	if f.allAccounts {
		return accounts, nil
	}
	return promptAccounts(cmd.InOrStdin(), cmd.ErrOrStderr(), accounts), nil
}

// promptAccounts lists accounts on w and reads a selection from r.
func promptAccounts(r io.Reader, w io.Writer, accounts []models.Account) []models.Account {
	fmt.Fprintf(w, "\n%d accounts available:\n", len(accounts))
	output.RenderAccounts(w, accounts)
	fmt.Fprint(w, "Select accounts (\"all\" or numbers like 1,3): ")

	line, _ := bufio.NewReader(r).ReadString('\n')
	return sso.SelectAccounts(accounts, sso.ParseSelection(line, len(accounts)))
}

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
