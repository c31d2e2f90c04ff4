package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/middleware"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/response"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether the service's backing store is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Verifier     middleware.TokenVerifier
	LoginLimiter *middleware.RateLimiter
	HealthCheck  HealthCheck
}

// NewRouter mounts every route of the service.
func (h *Handler) NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", h.welcome)
	r.Get("/healthz", h.health(cfg.HealthCheck))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.Use(cfg.LoginLimiter.Handler)
			}
			r.Post("/signup", h.SignUp)
			r.Post("/login", h.LogIn)
		})

		r.Route("/todos", func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.Verifier, h.logger))
			r.Post("/", h.CreateTodo)
			r.Get("/", h.ListTodos)
			r.Put("/", h.UpdateTodo)
			r.Delete("/", h.DeleteTodo)
			r.Put("/{id}", h.UpdateTodo)
			r.Delete("/{id}", h.DeleteTodo)
		})
	})

	return r
}

func (h *Handler) welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Welcome to the Task Wand API"))
}

func (h *Handler) health(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()

			if err := check(ctx); err != nil {
				h.logger.Warn().Err(err).Msg("health check failed")
				response.Fail(w, http.StatusServiceUnavailable, "Service unavailable")
				return
			}
		}

		response.Success(w, http.StatusOK, "OK", nil)
	}
}
