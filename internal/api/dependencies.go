package api

import (
	"os"

	"gorm.io/gorm"

	"csr-collective/engage/internal/common"
	"csr-collective/engage/internal/db/repositories"
	"csr-collective/engage/internal/logging"
	"csr-collective/engage/internal/metrics"
	"csr-collective/engage/internal/providers"
	"csr-collective/engage/internal/services"
)

// Repositories groups the data-access layer.
type Repositories struct {
	Participations *repositories.ParticipationRepository
	Activities     *repositories.ActivityRepository
	Events         *repositories.EventRepository
	Users          *repositories.UserRepository
}

// Services groups the business layer handed to the route registrations.
type Services struct {
	Participation *services.ParticipationService
	Aggregation   *services.AggregationService
	Query         *services.ParticipationQueryService
	Cache         common.CacheInterface
	Ledger        providers.LedgerProvider
}

// InitDependencies wires repositories, providers and services off the shared
// ORM handle. The cache backend is chosen by CACHE_BACKEND; redis falls back
// to in-process caching when unreachable so reads stay up.
func InitDependencies(ormDB *gorm.DB, metricsReg *metrics.MetricsRegistry) (*Repositories, *Services) {
	repos := &Repositories{
		Participations: repositories.NewParticipationRepository(ormDB),
		Activities:     repositories.NewActivityRepository(ormDB),
		Events:         repositories.NewEventRepository(ormDB),
		Users:          repositories.NewUserRepository(ormDB),
	}

	var cache common.CacheInterface
	if os.Getenv("CACHE_BACKEND") == "redis" {
		redisCache, err := common.NewRedisCacheService()
		if err != nil {
			logging.Warn("Redis unavailable, using in-process cache", "error", err.Error())
			cache = common.NewCacheService(60, 120)
		} else {
			cache = redisCache
		}
	} else {
		cache = common.NewCacheService(60, 120)
	}

	ledger := providers.NewHTTPLedgerProvider(metricsReg)

	svcs := &Services{
		Participation: services.NewParticipationService(ormDB, ledger),
		Aggregation:   services.NewAggregationService(repos.Participations, repos.Activities, cache),
		Query:         services.NewParticipationQueryService(repos.Participations, repos.Activities),
		Cache:         cache,
		Ledger:        ledger,
	}
	return repos, svcs
}
