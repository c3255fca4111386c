package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/sso"
)

// SSOBrokers returns the production BrokerFactory backed by sso.Broker.
func SSOBrokers(logger zerolog.Logger) BrokerFactory {
	return func(ctx context.Context, region string) (Broker, error) {
		cfg, err := common.LoadAnonymousConfig(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("load SSO config for %s: %w", region, err)
		}
		return sso.NewBroker(cfg, sso.WithLogger(logger)), nil
	}
}
