// Package server arma el handler HTTP V2 a partir de la config: abre el
// store, el cache y los providers y conecta services, controllers y router.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/socialauth/internal/cache"
	"github.com/dropDatabas3/socialauth/internal/config"
	"github.com/dropDatabas3/socialauth/internal/email"
	"github.com/dropDatabas3/socialauth/internal/http/v2/controllers"
	socialctrl "github.com/dropDatabas3/socialauth/internal/http/v2/controllers/social"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers/github"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers/google"
	"github.com/dropDatabas3/socialauth/internal/http/v2/render"
	"github.com/dropDatabas3/socialauth/internal/http/v2/router"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/health"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	"github.com/dropDatabas3/socialauth/internal/metrics"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/rate"
	"github.com/dropDatabas3/socialauth/internal/session"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
	migrations "github.com/dropDatabas3/socialauth/migrations/postgres"

	// drivers de store
	_ "github.com/dropDatabas3/socialauth/internal/store/v2/adapters/memory"
	_ "github.com/dropDatabas3/socialauth/internal/store/v2/adapters/pg"
)

// Option ajusta el armado (usado por tests y por cmd).
type Option func(*options)

type options struct {
	extraProviders []providers.Provider
	listeners      []social.Listener
	mailSender     email.Sender
	commit         string
	now            func() time.Time
}

// WithProvider agrega un provider ya construido (pisa al configurado con el mismo id).
func WithProvider(p providers.Provider) Option {
	return func(o *options) { o.extraProviders = append(o.extraProviders, p) }
}

// WithListener suscribe l al bus de señales.
func WithListener(l social.Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, l) }
}

// WithMailSender reemplaza el sender elegido por config.
func WithMailSender(s email.Sender) Option {
	return func(o *options) { o.mailSender = s }
}

// WithCommit fija el commit reportado por /readyz.
func WithCommit(c string) Option {
	return func(o *options) { o.commit = c }
}

// WithClock fija el reloj de los services.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// App es el resultado del armado.
type App struct {
	Handler http.Handler
	Store   *store.Factory
	Cache   cache.Client
	Metrics *metrics.Metrics

	closers []func() error
}

// Close libera store y cache en orden inverso al de apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStore abre el store configurado y, para postgres, aplica migraciones.
func OpenStore(ctx context.Context, cfg *config.Config) (*store.Factory, error) {
	fc := store.FactoryConfig{
		Adapter: store.AdapterConfig{
			Name:         cfg.Storage.Driver,
			DSN:          cfg.Storage.DSN,
			MaxOpenConns: cfg.Storage.MaxOpenConns,
			MaxIdleConns: cfg.Storage.MaxIdleConns,
		},
	}
	if cfg.Storage.Driver == "postgres" {
		fc.MigrationsFS = migrations.PostgresFS
		fc.MigrationsDir = migrations.PostgresDir
	}
	return store.NewFactory(ctx, fc)
}

// Build arma el handler completo. El caller debe llamar App.Close.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	log := logger.From(ctx).With(logger.Component("server"), logger.Op("Build"))
	app := &App{}

	// 1) Store
	factory, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = factory
	app.closers = append(app.closers, factory.Close)

	if cfg.Storage.Driver == "postgres" {
		res, err := factory.Migrate(ctx)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", logger.Int("applied", len(res.Applied)))
	}

	// 2) Cache + sesiones
	cc, err := cache.New(cfg.Cache)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}
	app.Cache = cc
	app.closers = append(app.closers, cc.Close)
	sessions := session.NewManager(cc, cfg.Session)

	// 3) Mail
	sender := o.mailSender
	if sender == nil {
		if cfg.SMTP.Host != "" {
			sender = email.NewSMTPSender(cfg.SMTP)
		} else {
			sender = email.LogSender{}
		}
	}

	// 4) Métricas (opcionales)
	listeners := append([]social.Listener(nil), o.listeners...)
	var outcomes social.OutcomeObserver
	if cfg.Metrics.Enabled {
		m, err := metrics.New(nil)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
		if err := m.RegisterPool(factory.PoolStats); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("metrics: %w", err)
		}
		app.Metrics = m
		outcomes = m
		listeners = append(listeners, m.EventListener())
	}

	// 5) Providers
	reg := providers.NewRegistry()
	reg.RegisterFactory(google.ProviderID, google.New)
	reg.RegisterFactory(github.ProviderID, github.New)
	if err := reg.Configure(cfg.SocialAccount.Providers); err != nil {
		_ = app.Close()
		return nil, err
	}
	for _, p := range o.extraProviders {
		reg.Add(p)
	}
	log.Info("providers configured", logger.Int("count", len(reg.List())))

	// 6) Templates
	renderer, err := render.New()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("render: %w", err)
	}

	// 7) Services → controllers → router
	svcs := services.New(services.Deps{
		DAL:            factory,
		Cache:          cc,
		Mailer:         email.NewMailer(sender),
		Metrics:        outcomes,
		Listeners:      listeners,
		Account:        cfg.AccountServiceConfig(),
		ConnectionsURL: cfg.SocialAccount.ConnectionsURL,
		HealthDeps: health.Deps{
			Version:    cfg.App.Version,
			Commit:     o.commit,
			DBDriver:   factory.Driver(),
			DBCheck:    factory.Ping,
			CacheCheck: cc.Ping,
			PoolStats:  factory.PoolStats,
		},
		Now: o.now,
	})

	acc := cfg.AccountServiceConfig()
	urls := socialctrl.URLs{
		Login:         acc.LoginURL,
		LoginRedirect: acc.LoginRedirectURL,
		Signup:        cfg.SocialAccount.SignupURL,
		Connections:   cfg.SocialAccount.ConnectionsURL,
	}
	ctrls := controllers.New(svcs, controllers.Deps{
		DAL:       factory,
		Providers: reg,
		Renderer:  renderer,
		URLs:      urls,
	})

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		limiter = rate.NewFixedWindow(cc, "rl:", cfg.Rate.MaxRequests, cfg.Rate.Window)
	}

	app.Handler = router.New(router.Deps{
		Controllers: ctrls,
		Sessions:    sessions,
		Metrics:     app.Metrics,
		MetricsPath: cfg.Metrics.Path,
		RateLimiter: limiter,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		LoginURL:    acc.LoginURL,
	})
	return app, nil
}
