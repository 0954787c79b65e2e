package http

import (
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/schmeconomics/schmeconomics/api/docs" // Swagger docs
	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/pkg/httpx"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	tokens       httpx.TokenValidator
	secrets      CurrentSecret
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AuthService         *service.AuthService
	UserService         *service.UserService
	AccessTokenLifetime time.Duration
	TrustProxyHeaders   bool
}

func NewRouter(
	tokens httpx.TokenValidator,
	secrets CurrentSecret,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		tokens:       tokens,
		secrets:      secrets,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Schmeconomics Authentication Service API
//	@version		0.1.0
//	@description	Name and password sign-in issuing short-lived HMAC-signed JWT access tokens.
//	@description	The refresh token travels in the refreshToken cookie and is rotated on every refresh.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Auth:                r.AuthService,
		AccessTokenLifetime: r.AccessTokenLifetime,
		TrustProxyHeaders:   r.TrustProxyHeaders,
	}

	// Brute force protection: limit by IP and by IP + user name.
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIP(httpx.ModerateLimit, r.TrustProxyHeaders),
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, r.TrustProxyHeaders, "name"),
		),
	)
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit, r.TrustProxyHeaders),
		),
	)
	r.Mux.Handle("POST /v1/auth/signout",
		httpx.Chain(http.HandlerFunc(h.HandleSignOut),
			httpx.RateLimitByIP(httpx.ModerateLimit, r.TrustProxyHeaders),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UserHandler{Users: r.UserService}

	secured := func(handler http.HandlerFunc, role domain.Role, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware[domain.User](r.tokens, r.UserService, false),
			httpx.RequireRole(role),
			httpx.RateLimitByUser(limit, r.TrustProxyHeaders),
		)
	}

	r.Mux.Handle("GET /v1/users/me", secured(h.HandleMe, domain.RoleUser, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/users/{id}", secured(h.HandleGetByID, domain.RoleUser, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/users/by-name/{name}", secured(h.HandleGetByName, domain.RoleUser, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/users", secured(h.HandleUpdate, domain.RoleUser, httpx.ModerateLimit))
	r.Mux.Handle("POST /v1/users", secured(h.HandleCreate, domain.RoleAdmin, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/users/{id}", secured(h.HandleDelete, domain.RoleAdmin, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently.
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit, r.TrustProxyHeaders),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.secrets),
			httpx.RateLimitByIP(httpx.PublicLimit, r.TrustProxyHeaders),
		),
	)
}
