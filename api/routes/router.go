package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shopstudy/shopstudy-backend/api/controllers"
	"github.com/shopstudy/shopstudy-backend/api/middleware"
	authsvc "github.com/shopstudy/shopstudy-backend/internal/auth"
	checkoutsvc "github.com/shopstudy/shopstudy-backend/internal/checkout"
	"github.com/shopstudy/shopstudy-backend/internal/session"
	"github.com/shopstudy/shopstudy-backend/internal/userstore"
	"github.com/shopstudy/shopstudy-backend/pkg/config"
	"github.com/shopstudy/shopstudy-backend/pkg/logger"
)

// RouterParams groups everything the HTTP surface needs.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Store     *userstore.Store
	Projector *session.Projector
	Auth      *authsvc.Service
	Checkout  *checkoutsvc.Service
	Catalog   controllers.Catalog
	Directory controllers.Directory
	Metrics   prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", controllers.AuthLogin(params.Auth, logg))
			r.Post("/register", controllers.AuthRegister(params.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(params.Projector, logg))
		})

		r.Get("/session", controllers.SessionShow(params.Projector, logg))
		r.Put("/settings", controllers.SettingsUpdate(params.Projector, logg))

		r.Get("/products", controllers.ProductsList(params.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductShow(params.Catalog, logg))
		r.Get("/categories", controllers.CategoriesList(params.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartShow(params.Store, params.Projector, logg))
			r.Delete("/", controllers.CartClear(params.Store, params.Projector, logg))
			r.Post("/items", controllers.CartAddItem(params.Store, params.Projector, params.Catalog, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(params.Store, params.Projector, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(params.Store, params.Projector, logg))
		})

		r.Get("/favorites", controllers.FavoritesList(params.Store, logg))
		r.Post("/favorites/{productId}/toggle", controllers.FavoriteToggle(params.Store, params.Projector, logg))

		r.Post("/checkout", controllers.Checkout(params.Checkout, params.Store, logg))
		r.Get("/recipients", controllers.RecipientsList(params.Directory, logg))
		r.Get("/profile", controllers.ProfileShow(params.Store, logg))
	})

	return r
}
