// Package services agrupa todos los services HTTP V2.
// Este es el "composition root" de services: cada dominio tiene su
// sub-paquete con Deps, Services y NewServices, y acá se conectan.
//
//	svcs := services.New(services.Deps{...})
//	ctrls := controllers.New(svcs, controllers.Deps{...})
//	router.New(router.Deps{Controllers: ctrls, ...})
package services

import (
	"time"

	"github.com/dropDatabas3/socialauth/internal/cache"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/account"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/health"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services/social"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

// Deps contiene las dependencias base para crear los services.
type Deps struct {
	// ─── Infraestructura ───
	DAL    store.DataAccessLayer
	Cache  cache.Client
	Mailer account.Mailer

	// ─── Observabilidad ───
	Metrics   social.OutcomeObserver // opcional
	Listeners []social.Listener      // suscriptos al bus de señales

	// ─── Configuración ───
	Account        account.Config
	ConnectionsURL string

	// ─── Health Check ───
	HealthDeps health.Deps

	Now func() time.Time
}

// Services agrupa todos los sub-services por dominio.
type Services struct {
	Account account.Services
	Social  social.Services
	Health  health.Services
}

// New crea el agregador de services con todas las dependencias inyectadas.
// Account y Social comparten el mismo bus de señales.
func New(d Deps) *Services {
	bus := social.NewBus()
	bus.Subscribe(account.AuditListener())
	for _, l := range d.Listeners {
		bus.Subscribe(l)
	}

	acc := account.NewServices(account.Deps{
		DAL:    d.DAL,
		Cache:  d.Cache,
		Mailer: d.Mailer,
		Bus:    bus,
		Config: d.Account,
		Now:    d.Now,
	})

	soc := social.NewServices(social.Deps{
		DAL:            d.DAL,
		Policy:         acc.Policy,
		Guard:          acc.Guard,
		Usernames:      acc.Usernames,
		Finisher:       acc.Finisher,
		Recorder:       acc.Recorder,
		Bus:            bus,
		Metrics:        d.Metrics,
		ConnectionsURL: d.ConnectionsURL,
		Now:            d.Now,
	})

	return &Services{
		Account: acc,
		Social:  soc,
		Health:  health.NewServices(d.HealthDeps),
	}
}
