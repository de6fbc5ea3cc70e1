package controller

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/customer-sync/internal/handler"
)

func NewRouter(customers *CustomerController, export *handler.ExportHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Customer list routes
	r.Get("/customers", customers.ListCustomers)
	r.Post("/customers/search", customers.Search)
	r.Post("/customers/next", customers.LoadMore)
	r.Post("/customers/refresh", customers.Refresh)
	r.Get("/customers/export", export.ExportCustomers)
	r.Get("/customers/{id}", customers.GetCustomer)

	return r
}
