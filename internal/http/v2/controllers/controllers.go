// Package controllers agrupa todos los controllers HTTP V2.
// Este es el "composition root" de controllers.
//
//	svcs := services.New(deps)                 ← services por dominio
//	ctrls := controllers.New(svcs, ctrlDeps)    ← controllers con services
//	handler := router.New(router.Deps{...})     ← rutas con controllers
package controllers

import (
	"github.com/dropDatabas3/socialauth/internal/http/v2/controllers/health"
	"github.com/dropDatabas3/socialauth/internal/http/v2/controllers/social"
	"github.com/dropDatabas3/socialauth/internal/http/v2/providers"
	"github.com/dropDatabas3/socialauth/internal/http/v2/render"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

// Deps contiene lo que los controllers necesitan además de los services.
type Deps struct {
	DAL       store.DataAccessLayer
	Providers *providers.Registry
	Renderer  *render.Renderer
	URLs      social.URLs
}

// Controllers agrupa todos los sub-controllers por dominio.
type Controllers struct {
	Health *health.Controllers
	Social *social.Controllers
}

// New crea el agregador de controllers con todos los services inyectados.
func New(svc *services.Services, d Deps) *Controllers {
	return &Controllers{
		Health: health.NewControllers(svc.Health),
		Social: social.NewControllers(social.Deps{
			Social:       svc.Social,
			Verification: svc.Account.Verification,
			Users:        d.DAL.Users(),
			Providers:    d.Providers,
			Renderer:     d.Renderer,
			URLs:         d.URLs,
		}),
	}
}
