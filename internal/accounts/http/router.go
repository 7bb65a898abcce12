package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/karwaan/bazaar/internal/accounts/service"
	"github.com/karwaan/bazaar/internal/accounts/store"
	"github.com/karwaan/bazaar/pkg/authx"
	"github.com/karwaan/bazaar/pkg/httpx"
	"github.com/karwaan/bazaar/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     authx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	PolicyService *service.PolicyService

	// InternalToken guards the login-tracking endpoint.
	InternalToken string
}

func NewRouter(
	verifier authx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerAdmin()
	r.registerInternal()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured wraps a handler with authentication and a per-user rate limit.
func (r *Router) secured(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAccounts() {
	profile := &ProfileHandler{Policy: r.PolicyService}
	settings := &SettingsHandler{Policy: r.PolicyService}
	verification := &VerificationHandler{Policy: r.PolicyService}

	r.Mux.Handle("GET /v1/accounts/{id}",
		r.secured(http.HandlerFunc(profile.HandleGet), httpx.LenientLimit))
	r.Mux.Handle("PATCH /v1/accounts/{id}",
		r.secured(http.HandlerFunc(profile.HandlePatch), httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/accounts/{id}",
		r.secured(http.HandlerFunc(profile.HandleDelete), httpx.StrictLimit))

	r.Mux.Handle("GET /v1/accounts/{id}/settings",
		r.secured(http.HandlerFunc(settings.HandleGet), httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/accounts/{id}/settings",
		r.secured(http.HandlerFunc(settings.HandlePut), httpx.ModerateLimit))

	r.Mux.Handle("GET /v1/accounts/{id}/preferences",
		r.secured(http.HandlerFunc(settings.HandleGetPreferences), httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/accounts/{id}/preferences",
		r.secured(http.HandlerFunc(settings.HandlePutPreferences), httpx.ModerateLimit))

	// Code issuance is strict: each request mints a fresh code.
	r.Mux.Handle("POST /v1/accounts/{id}/verification/{channel}",
		r.secured(http.HandlerFunc(verification.HandleRequest), httpx.StrictLimit))
	r.Mux.Handle("POST /v1/accounts/{id}/verification/{channel}/confirm",
		r.secured(http.HandlerFunc(verification.HandleConfirm), httpx.StrictLimit))
}

func (r *Router) registerAdmin() {
	admin := &AdminHandler{Policy: r.PolicyService}
	moderation := &ModerationHandler{Policy: r.PolicyService}

	r.Mux.Handle("GET /v1/admin/accounts",
		r.secured(http.HandlerFunc(admin.HandleList), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/accounts/search",
		r.secured(http.HandlerFunc(admin.HandleSearch), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/accounts/count",
		r.secured(http.HandlerFunc(admin.HandleCount), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/accounts/by-email",
		r.secured(http.HandlerFunc(admin.HandleGetByEmail), httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/admin/accounts",
		r.secured(http.HandlerFunc(admin.HandleCreate), httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/admin/accounts/{id}",
		r.secured(http.HandlerFunc(admin.HandleGet), httpx.ModerateLimit))
	r.Mux.Handle("PATCH /v1/admin/accounts/{id}",
		r.secured(http.HandlerFunc(admin.HandlePatch), httpx.ModerateLimit))

	r.Mux.Handle("PUT /v1/admin/accounts/{id}/role",
		r.secured(http.HandlerFunc(moderation.HandleSetRole), httpx.StrictLimit))
	r.Mux.Handle("POST /v1/admin/accounts/{id}/ban",
		r.secured(http.HandlerFunc(moderation.HandleBan), httpx.StrictLimit))
	r.Mux.Handle("POST /v1/admin/accounts/{id}/unban",
		r.secured(http.HandlerFunc(moderation.HandleUnban), httpx.StrictLimit))
	r.Mux.Handle("POST /v1/admin/accounts/{id}/suspend",
		r.secured(http.HandlerFunc(moderation.HandleSuspend), httpx.StrictLimit))
	r.Mux.Handle("POST /v1/admin/accounts/bulk",
		r.secured(http.HandlerFunc(moderation.HandleBulk), httpx.StrictLimit))
}

func (r *Router) registerInternal() {
	login := &LoginTrackingHandler{
		Policy:        r.PolicyService,
		InternalToken: r.InternalToken,
	}

	// Shared-token auth, not bearer; rate limited by caller IP.
	r.Mux.Handle("POST /v1/internal/accounts/{id}/login",
		httpx.Chain(login,
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
