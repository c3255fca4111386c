package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/pankaj-dahiya-devops/aicost/internal/attribution"
	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
	awscost "github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/cost"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/discovery"
)

// ErrNoAccounts is returned by Run when no session was supplied.
var ErrNoAccounts = errors.New("no accounts to process")

// CostSource is the cost fetcher used for one account.
type CostSource interface {
	ServiceSpend(ctx context.Context, svc config.ServiceConfig, accountID string, period models.Period) models.Amount
	ByTag(ctx context.Context, q awscost.Query, tagKey string) (map[string]models.Amount, bool)
}

// CostSourceFactory builds a CostSource from an account's aws.Config.
type CostSourceFactory func(cfg aws.Config) CostSource

// DefaultEngine is the production implementation of Engine.
type DefaultEngine struct {
	catalog    *config.Catalog
	discoverer discovery.Discoverer
	costs      CostSourceFactory
	splitter   *attribution.Splitter
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// NewDefaultEngine constructs a DefaultEngine wired to the supplied
// discoverer and cost source factory.
func NewDefaultEngine(
	catalog *config.Catalog,
	discoverer discovery.Discoverer,
	costs CostSourceFactory,
	logger zerolog.Logger,
) *DefaultEngine {
	return &DefaultEngine{
		catalog:    catalog,
		discoverer: discoverer,
		costs:      costs,
		splitter:   attribution.NewSplitter(catalog),
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// NewFetcherFactory returns the production CostSourceFactory.
func NewFetcherFactory(logger zerolog.Logger) CostSourceFactory {
	return func(cfg aws.Config) CostSource {
		return awscost.NewFetcher(cfg, awscost.WithLogger(logger))
	}
}

// Discover implements Engine.
func (e *DefaultEngine) Discover(ctx context.Context, sess *common.AccountSession, services []models.ServiceKey) (*models.DiscoveryResult, error) {
	return e.discoverer.Discover(ctx, sess, e.listable(e.logger, e.services(services)))
}

// Run implements Engine. A failing account aborts the run only on context
// cancellation; per-service cost and listing failures are already degraded
// by the providers.
func (e *DefaultEngine) Run(ctx context.Context, sessions []*common.AccountSession, opts RunOptions) (*models.Report, error) {
	if len(sessions) == 0 {
		return nil, ErrNoAccounts
	}

	report := &models.Report{
		ReportID:    e.newID(),
		GeneratedAt: e.now().UTC(),
		Period:      opts.Period,
	}

	for _, sess := range sessions {
		ar, err := e.runAccount(ctx, sess, opts)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", sess.AccountID, err)
		}
		report.Accounts = append(report.Accounts, *ar)
		report.ServiceTotal += ar.ServiceTotal
		report.AttributedTotal += ar.AttributedTotal
	}

	report.Projects = mergeProjects(report.Accounts)
	return report, nil
}

// services returns requested filtered to the catalog, or every catalog
// service when requested is empty.
func (e *DefaultEngine) services(requested []models.ServiceKey) []models.ServiceKey {
	if len(requested) == 0 {
		return e.catalog.ServiceKeys()
	}
	var out []models.ServiceKey
	for _, k := range requested {
		if _, ok := e.catalog.Service(k); ok {
			out = append(out, k)
		}
	}
	return out
}

// listable keeps the services that have a resource lister. The others are
// still costed; their spend falls back to the service's catalog kind.
func (e *DefaultEngine) listable(log zerolog.Logger, services []models.ServiceKey) []models.ServiceKey {
	out, skipped := lo.FilterReject(services, func(k models.ServiceKey, _ int) bool {
		return discovery.Discoverable(k)
	})
	if len(skipped) > 0 {
		log.Debug().Strs("services", lo.Map(skipped, func(k models.ServiceKey, _ int) string { return string(k) })).
			Msg("no resource lister; skipping discovery")
	}
	return out
}
