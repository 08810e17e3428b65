package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"snatch/internal/config"
	"snatch/internal/database"
	"snatch/internal/database/sqlstore"
	"snatch/internal/services"
)

// per-dimension budgets are enforced by the prober; this only bounds stuck connections
const httpClientTimeout = 30 * time.Second

// App holds the wired services shared by the server and the CLI
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Store  services.AccountStore

	Auth     *services.AuthService
	Accounts *services.AccountService
	Searches *services.SearchService
	Billing  *services.BillingService
	Claims   *services.ClaimService
	Notify   *services.NotifyService

	closers []func() error
}

// New opens the configured store and wires every service around it
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret is empty, tokens will not survive a restart")
	}

	a := &App{Config: cfg, Logger: logger}

	store, closeStore, err := OpenStore(&cfg.Database)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, closeStore)

	client, err := services.NewHTTPClient(httpClientTimeout, cfg.Probe.SOCKS5)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	checkers, err := NewCheckers(&cfg.Probe, client)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	prober := services.NewProber(checkers, ProberOptions(&cfg.Probe), logger.Named("prober"))
	quota := services.NewQuotaGate(cfg.Quota.FreeSearches)
	locks := services.NewKeyedMutex()
	clock := services.SystemClock{}

	a.Notify = services.NewNotifyService(&cfg.Analytics, client, logger.Named("analytics"))
	a.Auth = services.NewAuthService(authSecret(cfg), config.ParseDuration(cfg.Auth.TokenTTL, 0))
	a.Accounts = services.NewAccountService(store, a.Auth, quota, locks, a.Notify, clock, logger.Named("accounts"))
	a.Searches = services.NewSearchService(store, prober, quota, locks, a.Notify, clock, logger.Named("search"))
	a.Billing = services.NewBillingService(store, locks, a.Notify, clock, logger.Named("billing"))
	a.Claims = services.NewClaimService(store, locks, a.Notify, clock)

	return a, nil
}

// Close flushes pending analytics and closes the store
func (a *App) Close() error {
	a.Notify.Wait()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the account store selected by cfg.Type
func OpenStore(cfg *config.DatabaseConfig) (services.AccountStore, func() error, error) {
	switch cfg.Type {
	case "memory":
		return database.NewMemoryStore(), func() error { return nil }, nil
	case "sqlx":
		store, err := sqlstore.Open(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return store, store.Close, nil
	case "gorm", "":
		db, err := database.Open(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return database.NewGormStore(db), func() error { return database.Close(db) }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// NewCheckers builds one availability checker per dimension for the configured backend
func NewCheckers(cfg *config.ProbeConfig, client *http.Client) (map[services.Dimension]services.Checker, error) {
	switch cfg.Backend {
	case "simulated", "":
		return services.NewSimulatedCheckers(config.ParseDuration(cfg.SimulatedLatency, 0)), nil
	case "http":
	default:
		return nil, fmt.Errorf("unsupported probe backend: %s", cfg.Backend)
	}

	if cfg.Domain.APIURL == "" {
		return nil, errors.New("probe.domain.api_url is required for the http backend")
	}

	// registries without a lookup endpoint stay simulated
	checkers := services.NewSimulatedCheckers(config.ParseDuration(cfg.SimulatedLatency, 0))
	checkers[services.DimensionDomain] = services.NewWhoisChecker(cfg.Domain.APIURL, cfg.Domain.TLD, client, services.NewLimiter(cfg.RateLimit, cfg.Burst))

	lookups := map[services.Dimension]config.LookupConfig{
		services.DimensionTrademark: cfg.Trademark,
		services.DimensionBusiness:  cfg.Business,
		services.DimensionSocial:    cfg.Social,
	}
	for dim, lookup := range lookups {
		if lookup.URL == "" {
			continue
		}
		checkers[dim] = services.NewHTTPChecker(lookup.URL, lookup.Param, client, services.NewLimiter(cfg.RateLimit, cfg.Burst))
	}
	return checkers, nil
}

// ProberOptions converts the probe configuration into per-dimension budgets
func ProberOptions(cfg *config.ProbeConfig) services.ProberOptions {
	fallback := config.ParseDuration(cfg.Timeout, 2*time.Second)
	return services.ProberOptions{
		DefaultTimeout: fallback,
		Workers:        cfg.Workers,
		Timeouts: map[services.Dimension]time.Duration{
			services.DimensionDomain:    config.ParseDuration(cfg.Domain.Timeout, fallback),
			services.DimensionTrademark: config.ParseDuration(cfg.Trademark.Timeout, fallback),
			services.DimensionBusiness:  config.ParseDuration(cfg.Business.Timeout, fallback),
			services.DimensionSocial:    config.ParseDuration(cfg.Social.Timeout, fallback),
		},
	}
}

func authSecret(cfg *config.Config) string {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret
	}
	return uuid.NewString()
}
