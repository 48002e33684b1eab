package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/gateway/backend"
	"github.com/aussiebroadwan/learnhub/internal/gateway/edge"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	backend      *backend.Client
	gate         *edge.Gate
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// StaticDir is where page assets live. Empty disables page serving.
	StaticDir string

	// SecretConfigured reports whether the access token secret is set. Only
	// readiness reads it, the gate fails closed on its own.
	SecretConfigured bool
}

func NewRouter(
	be *backend.Client,
	gate *edge.Gate,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		backend:      be,
		gate:         gate,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerSystem()
	r.registerPages()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Backend: r.backend}

	// Login is limited by IP + mobile so one address can't spray accounts
	r.Mux.Handle("POST /api/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.CredentialLimit, "mobile"),
		),
	)
	r.Mux.Handle("POST /api/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.CredentialLimit),
		),
	)
	r.Mux.Handle("POST /api/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RateLimitByIP(httpx.SessionLimit),
		),
	)
	r.Mux.Handle("POST /api/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.SessionLimit),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{Backend: r.backend}

	// /api/me is the older name for the same call
	r.Mux.Handle("GET /api/profile", http.HandlerFunc(h.HandleGet))
	r.Mux.Handle("GET /api/me", http.HandlerFunc(h.HandleGet))

	r.Mux.Handle("POST /api/profile/create/{role}",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.SessionLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.backend, r.SecretConfigured),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerPages() {
	if r.StaticDir == "" {
		return
	}
	// Everything that isn't an API route is a page, and every page goes
	// through the gate first.
	r.Mux.Handle("GET /", r.gate.Middleware(PageHandler(r.StaticDir)))
}
