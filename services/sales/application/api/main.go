package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/salesledger/pkg/app"
	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/services/sales/application/handlers"
	appsvcs "github.com/ghuser/salesledger/services/sales/application/services"
	salesworkflows "github.com/ghuser/salesledger/services/sales/application/workflows"
)

// SalesRoutes registers product and order endpoints on r. Every route
// requires a logged-in session.
func SalesRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	if a.TemporalClient != nil {
		svcs.CancelRetries = salesworkflows.NewScheduler(a.TemporalClient)
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.SessionStore, a.Logger))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", handlers.NewPostProductHandler(svcs.Products).Execute)
			r.Get("/", handlers.NewListProductsHandler(svcs.Products).Execute)
			r.Get("/{id}", handlers.NewGetProductHandler(svcs.Products).Execute)
			r.Patch("/{id}", handlers.NewPatchProductHandler(svcs.Products).Execute)
			r.Delete("/{id}", handlers.NewDeleteProductHandler(svcs.Products).Execute)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", handlers.NewPostOrderHandler(svcs.Reservation).Execute)
			r.Get("/", handlers.NewListOrdersHandler(svcs.Orders).Execute)
			r.Get("/{id}", handlers.NewGetOrderHandler(svcs.Orders).Execute)
			r.Patch("/{id}/cancel", handlers.NewCancelOrderHandler(svcs.Cancellation, svcs.CancelRetries, a.Logger).Execute)
		})
	})
}

// AuthRoutes registers the public login and logout endpoints on r.
func AuthRoutes(r chi.Router, a *app.Application) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", handlers.NewLoginHandler(a.Credentials, a.SessionStore, a.Logger).Execute)
		r.Post("/logout", handlers.NewLogoutHandler(a.SessionStore).Execute)
	})
}
