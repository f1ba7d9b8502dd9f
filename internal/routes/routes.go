package routes

import (
	"log/slog"
	"net/http"

	shopcarthandler "shopcarts/internal/handlers/shopcart"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Routes struct {
	log             *slog.Logger
	shopcartHandler *shopcarthandler.Handler
}

func New(log *slog.Logger, shopcartHandler *shopcarthandler.Handler) *Routes {
	return &Routes{
		log:             log,
		shopcartHandler: shopcartHandler,
	}
}

// Handler builds the router. The shopcart resource is served under both /shopcarts and /api/shopcarts.
func (r *Routes) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(r.log))
	router.Use(middleware.Recoverer)

	router.Get("/", r.shopcartHandler.Index)
	router.Get("/health", r.shopcartHandler.Health)

	router.Route("/shopcarts", r.shopcarts)
	router.Route("/api/shopcarts", r.shopcarts)

	return router
}

func (r *Routes) shopcarts(router chi.Router) {
	h := r.shopcartHandler

	// GET /shopcarts?shopcart_id=&product_id=
	router.Get("/", h.ListItems)

	router.Route("/{shopcart_id}", func(router chi.Router) {
		router.Get("/", h.ReadShopcart)
		router.Post("/", h.CreateItem)
		router.Delete("/", h.DeleteShopcart)
		router.Put("/checkout", h.CheckoutShopcart)

		router.Route("/items/{product_id}", func(router chi.Router) {
			router.Get("/", h.ReadItem)
			router.Put("/", h.UpdateItem)
			router.Delete("/", h.DeleteItem)
			router.Put("/checkout", h.CheckoutItem)
		})
	})
}
