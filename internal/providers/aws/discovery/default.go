package discovery

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/aicost/internal/config"
	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
)

// DefaultDiscoverer is the production Discoverer. Services are listed one
// after another.
//
// Inject a custom factory via NewDefaultDiscovererWithFactory to replace
// the SDK clients with stubs in unit tests.
type DefaultDiscoverer struct {
	catalog *config.Catalog
	matcher *Matcher
	factory clientFactory
	logger  zerolog.Logger
	now     func() time.Time
}

// NewDefaultDiscoverer returns a discoverer backed by the real AWS SDK.
func NewDefaultDiscoverer(c *config.Catalog, logger zerolog.Logger) *DefaultDiscoverer {
	return NewDefaultDiscovererWithFactory(c, logger, newDefaultClients)
}

// NewDefaultDiscovererWithFactory returns a discoverer that builds its
// clients with f.
func NewDefaultDiscovererWithFactory(c *config.Catalog, logger zerolog.Logger, f clientFactory) *DefaultDiscoverer {
	return &DefaultDiscoverer{
		catalog: c,
		matcher: NewMatcher(c),
		factory: f,
		logger:  logger,
		now:     time.Now,
	}
}

// Discover implements Discoverer.
func (d *DefaultDiscoverer) Discover(ctx context.Context, sess *common.AccountSession, services []models.ServiceKey) (*models.DiscoveryResult, error) {
	result := models.NewDiscoveryResult(sess.AccountID, sess.Region, d.now())
	result.AccountName = sess.AccountName

	c := d.factory(sess.Config)
	byRegion := map[string]*clients{sess.Region: c}
	s := scope{
		accountID: sess.AccountID,
		region:    sess.Region,
		logger:    d.logger.With().Str("account", sess.AccountID).Logger(),
		regional: func(region string) *clients {
			rc, ok := byRegion[region]
			if !ok {
				rc = d.factory(sess.ConfigForRegion(region))
				byRegion[region] = rc
			}
			return rc
		},
	}

	for _, key := range services {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		list, ok := listers[key]
		if !ok {
			continue
		}
		svc, ok := d.catalog.Service(key)
		if !ok {
			continue
		}

		records, err := list(ctx, c, s)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			s.logger.Warn().Str("service", string(key)).Err(err).Msg("resource listing failed")
			result.RecordError(key, err)
			continue
		}

		kept := d.matcher.Assign(svc, records)
		result.Services[key] = kept
		s.logger.Debug().
			Str("service", string(key)).
			Int("listed", len(records)).
			Int("kept", len(kept)).
			Msg("service discovered")
	}
	return result, nil
}
