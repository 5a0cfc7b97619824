package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/config"
)

const (
	ApiPath      = "/api/v1"
	ProductsPath = "/products"
	CartsPath    = "/carts"
	OrdersPath   = "/orders"
	UsersPath    = "/users"
)

// Services bundles everything the router dispatches to.
type Services struct {
	Inventory InventoryService
	Carts     CartService
	Orders    OrderService
	Users     UserService
}

func ConfigureRouter(cfg *config.Config, svc Services) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost*", "https://localhost*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(Logging)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("UP"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/env", NewEnvApi(cfg).ConfigureRouter)

	r.With(Authenticate(svc.Users)).Route(ApiPath, func(r chi.Router) {
		r.Route(ProductsPath, NewProductApi(svc.Inventory).ConfigureRouter)
		r.Route(CartsPath, NewCartApi(svc.Carts, svc.Orders).ConfigureRouter)
		r.Route(OrdersPath, NewOrderApi(svc.Orders).ConfigureRouter)
		r.Route(UsersPath, NewUserApi(svc.Users).ConfigureRouter)
	})

	return r
}

func Render(w http.ResponseWriter, r *http.Request, rnd render.Renderer) {
	if err := render.Render(w, r, rnd); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}

func RenderList(w http.ResponseWriter, r *http.Request, l []render.Renderer) {
	if err := render.RenderList(w, r, l); err != nil {
		log.Warn().Err(err).Msg("failed to render")
	}
}
