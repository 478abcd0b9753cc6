package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/internal/metrics"
)

type RouterOptions struct {
	Owner          OwnerResolver
	AllowedOrigins []string
	Metrics        *metrics.Collector // optional
	Logger         *zap.Logger
}

// NewRouter mounts the todo routes behind owner resolution. /health is public.
func NewRouter(h *TaskHandler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok"}`)
	})

	r.Route("/todos", func(r chi.Router) {
		r.Use(RequireOwner(opts.Owner, opts.Logger))

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Put("/{taskId}", h.Update)
		r.Patch("/{taskId}", h.Update)
		r.Delete("/{taskId}", h.Delete)
	})

	return r
}
