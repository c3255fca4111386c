package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/engine"
	"github.com/pankaj-dahiya-devops/aicost/internal/logging"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/discovery"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/sso"
)

// broker is the SSO flow used by the CLI.
type broker interface {
	Login(ctx context.Context, startURL string, present func(*models.DeviceAuthorization)) (*models.SSOToken, error)
	ListAccounts(ctx context.Context, token *models.SSOToken) ([]models.Account, error)
	Credentials(ctx context.Context, token *models.SSOToken, accounts []models.Account, role string) ([]models.SessionCredential, []sso.AccountError)
}

// app holds the settings and collaborators shared by every command.
type app struct {
	v        *viper.Viper
	settings config.Settings
	logger   zerolog.Logger

	provider  common.AWSClientProvider
	newBroker func(ctx context.Context, region string) (broker, error)
	newEngine func(c *config.Catalog, logger zerolog.Logger) engine.Engine
	openURL   func(url string) error
	now       func() time.Time
}

func newApp() *app {
	a := &app{
		v:        config.NewViper(),
		logger:   zerolog.Nop(),
		provider: common.NewDefaultAWSClientProvider(),
		openURL:  openBrowser,
		now:      time.Now,
	}
	a.newBroker = func(ctx context.Context, region string) (broker, error) {
		cfg, err := common.LoadAnonymousConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return sso.NewBroker(cfg, sso.WithLogger(a.logger)), nil
	}
	a.newEngine = func(c *config.Catalog, logger zerolog.Logger) engine.Engine {
		return engine.NewDefaultEngine(c, discovery.NewDefaultDiscoverer(c, logger), engine.NewFetcherFactory(logger), logger)
	}
	return a
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(newApp())
}

func newRootCmdWithApp(a *app) *cobra.Command {
	var settingsFile string

	root := &cobra.Command{
		Use:           "aicost",
		Short:         "aicost: attribute AWS spend to AI projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, settingsFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&settingsFile, "config", "", "Settings file (default: $HOME/"+config.SettingsFileName+")")
	pf.String("sso-start-url", "", "IAM Identity Center start URL")
	pf.String("sso-region", "", "IAM Identity Center region (default: us-east-1)")
	pf.String("region", "", "Region to list resources in (default: us-east-1)")
	pf.String("role", "", "Permission set to assume in every account (default: first role)")
	pf.String("catalog", "", "Project catalog file (default: embedded catalog)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	for key, flag := range map[string]string{
		config.KeySSOStartURL: "sso-start-url",
		config.KeySSORegion:   "sso-region",
		config.KeyRegion:      "region",
		config.KeyRole:        "role",
		config.KeyCatalog:     "catalog",
		config.KeyLogLevel:    "log-level",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newRunCmd(a),
		newDiscoverCmd(a),
		newAccountsCmd(a),
		newServeCmd(a),
		newDoctorCmd(a),
		newVersionCmd(),
	)
	return root
}

// init reads the settings and builds the console logger.
func (a *app) init(cmd *cobra.Command, settingsFile string) error {
	if err := config.ReadSettingsFile(a.v, settingsFile); err != nil {
		return err
	}
	s, err := config.LoadSettings(a.v)
	if err != nil {
		return err
	}
	a.settings = s

	logger, err := logging.New(cmd.ErrOrStderr(), s.LogLevel, logging.FormatConsole)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// catalog loads the configured project catalog.
func (a *app) catalog() (*config.Catalog, error) {
	return a.settings.Catalog()
}
