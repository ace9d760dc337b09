package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", s.handleVersion)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Patch("/{category}", s.handleUpdateCategory)
			r.Delete("/{category}", s.handleDeleteCategory)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Post("/", s.handleCreateProduct)
			r.Get("/{category}/{id}", s.handleGetProduct)
			r.Patch("/{category}/{id}", s.handleUpdateProduct)
			r.Delete("/{category}/{id}", s.handleDeleteProduct)
		})

		r.Post("/undo", s.handleUndo)
		r.Get("/templates", s.handleListTemplates)
		r.Get("/barcodes/{file}", s.handleBarcode)
		r.Post("/labels", s.handleCreateLabels)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Get("/{id}", s.handleGetJob)
			r.Get("/{id}/files/{name}", s.handleJobFile)
		})

		r.Get("/logs", s.handleLogs)
	})

	return r
}
