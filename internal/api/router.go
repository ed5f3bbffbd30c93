// Package api is the HTTP surface of spec.md §6, built on a hand-rolled
// Router/Middleware chain in the shape pkg/api/router.go and
// pkg/api/middleware.go already establish for this codebase, with the
// bearer-token AuthMiddleware that teacher carries replaced entirely:
// authentication here is per-route signature recovery (spec.md §1: "there
// are no passwords and no bearer tokens"), so there is no uniform auth
// middleware, only per-handler signature checks delegated to
// internal/registry.
package api

import (
	"net/http"
	"runtime"
	"time"
)

// Middleware wraps an http.Handler, matching pkg/api/router.go's type.
type Middleware func(http.Handler) http.Handler

// Router composes an http.ServeMux with an ordered middleware chain.
type Router struct {
	mux        *http.ServeMux
	middleware []Middleware
	startTime  time.Time
	version    string
}

// NewRouter builds a Router reporting version in /version responses.
func NewRouter(version string) *Router {
	return &Router{mux: http.NewServeMux(), startTime: time.Now(), version: version}
}

// Use appends middleware to the chain; the first Use call is outermost.
func (r *Router) Use(mw Middleware) { r.middleware = append(r.middleware, mw) }

// Handle registers a pattern using Go 1.22+ ServeMux method/path-parameter
// syntax (e.g. "POST /api/package/{ns}").
func (r *Router) Handle(pattern string, handler http.HandlerFunc) {
	r.mux.HandleFunc(pattern, handler)
}

// ServeHTTP implements http.Handler, running the middleware chain around
// the registered routes.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := http.Handler(r.mux)
	for i := len(r.middleware) - 1; i >= 0; i-- {
		handler = r.middleware[i](handler)
	}
	handler.ServeHTTP(w, req)
}

// healthResponse mirrors pkg/api/router.go's HealthResponse shape.
type healthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// RegisterHealth registers the ambient /healthz and /version endpoints
// spec.md's ambient stack expectations require regardless of the Non-goals
// (SPEC_FULL.md §12), in the shape of pkg/api/router.go's
// handleHealth/handleVersion.
func (r *Router) RegisterHealth() {
	r.Handle("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		WriteJSON(w, http.StatusOK, healthResponse{
			Status:    "ok",
			Uptime:    time.Since(r.startTime).String(),
			Version:   r.version,
			Timestamp: time.Now(),
		})
	})
	r.Handle("GET /version", func(w http.ResponseWriter, req *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"version":    r.version,
			"go_version": runtime.Version(),
			"platform":   runtime.GOOS + "/" + runtime.GOARCH,
		})
	})
}
