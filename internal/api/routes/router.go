package routes

import (
	"net/http"

	"github.com/maisonvera/concierge/internal/api/handlers"
	"github.com/maisonvera/concierge/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	turnHandler *handlers.TurnHandler
}

// NewRouter creates a new router
func NewRouter(turnHandler *handlers.TurnHandler) *Router {
	return &Router{
		mux:         http.NewServeMux(),
		turnHandler: turnHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Concierge endpoints
	r.mux.HandleFunc("POST /api/concierge/turn", r.turnHandler.HandleTurn)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
