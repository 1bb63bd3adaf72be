package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"causalsim/app"
)

// App represents the HTTP API application.
type App struct {
	router   *chi.Mux
	studies  *app.StudyService
	defaults Defaults
}

// Defaults holds request defaults applied when fields are omitted.
type Defaults struct {
	Trials int
}

// NewApp creates the API application.
func NewApp(studies *app.StudyService, defaults Defaults) *App {
	a := &App{
		router:   chi.NewRouter(),
		studies:  studies,
		defaults: defaults,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a
}

// setupMiddleware configures HTTP middleware.
func (a *App) setupMiddleware() {
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

// setupRoutes configures the API routes.
func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)
	a.router.Route("/studies", func(r chi.Router) {
		r.Post("/randomization", a.handleRunRandomization)
		r.Post("/bootstrap", a.handleRunBootstrap)
		r.Get("/", a.handleListStudies)
		r.Get("/{id}", a.handleGetStudy)
		r.Get("/{id}/report", a.handleStudyReport)
		r.Get("/{id}/export", a.handleStudyExport)
	})
}

// Router exposes the configured router.
func (a *App) Router() http.Handler {
	return a.router
}

// ListenAndServe starts the HTTP server on the given port.
func (a *App) ListenAndServe(port string) error {
	return http.ListenAndServe(":"+port, a.router)
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
