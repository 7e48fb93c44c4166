// Package leads provides the lead lifecycle engine bounded context.
// This file wires the vertical slices together and registers the routes.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"crmcore_backend/internal/adapters"
	"crmcore_backend/internal/events"
	apphttp "crmcore_backend/internal/http"
	"crmcore_backend/internal/leads/catalog"
	"crmcore_backend/internal/leads/conversion"
	"crmcore_backend/internal/leads/dupcheck"
	"crmcore_backend/internal/leads/handler"
	"crmcore_backend/internal/leads/lifecycle"
	"crmcore_backend/internal/leads/management"
	"crmcore_backend/internal/leads/ownership"
	"crmcore_backend/internal/leads/repository"
	"crmcore_backend/internal/leads/routing"
	"crmcore_backend/internal/leads/scoring"
	"crmcore_backend/platform/logger"
	"crmcore_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	management *management.Service
	lifecycle  *lifecycle.Service
	conversion *conversion.Orchestrator
	catalog    *catalog.Service
	seeder     *catalog.Seeder
}

// NewModule builds the engine from shared infrastructure. The seeder is
// subscribed to organization creation events so new tenants get a default
// pipeline, priorities, a BANT framework, and disqualification reasons.
func NewModule(pool *pgxpool.Pool, cache *redis.Client, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	catalogSvc := catalog.NewService(repo, cache, log)
	checker := dupcheck.NewChecker(repo)
	router := routing.NewEvaluator(repo, log)
	scorer := scoring.NewFrameworkScorer(repo)
	owners := ownership.NewHandler(adapters.NewRoleDirectory(pool), adapters.NewRecordTeam(pool), repo, eventBus, log)
	audit := adapters.NewAuditLog(pool, log)

	mgmtSvc := management.NewService(repo, checker, router, scorer, catalogSvc, owners, audit, eventBus, log)
	lifecycleSvc := lifecycle.NewService(lifecycle.NewStore(repo), eventBus, log)
	conversionSvc := conversion.NewOrchestrator(conversion.NewStore(repo), eventBus, log)

	seeder := catalog.NewSeeder(repo, catalogSvc, log)
	seeder.Subscribe(eventBus)

	return &Module{
		handler:    handler.New(mgmtSvc, lifecycleSvc, conversionSvc, catalogSvc, val),
		management: mgmtSvc,
		lifecycle:  lifecycleSvc,
		conversion: conversionSvc,
		catalog:    catalogSvc,
		seeder:     seeder,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// ManagementService returns the lead management service for external use.
func (m *Module) ManagementService() *management.Service {
	return m.management
}

// CatalogService returns the tenant catalog service for external use.
func (m *Module) CatalogService() *catalog.Service {
	return m.catalog
}

// RegisterRoutes mounts lead routes on the authenticated group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup, ctx.WriteRateLimiter.RateLimit())
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
