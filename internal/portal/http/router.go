package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/laeyue/msu-iit-connect/internal/portal/realtime"
	"github.com/laeyue/msu-iit-connect/internal/portal/service"
	"github.com/laeyue/msu-iit-connect/internal/portal/store"
	"github.com/laeyue/msu-iit-connect/pkg/httpx"
	"github.com/laeyue/msu-iit-connect/pkg/jwtx"
	"github.com/laeyue/msu-iit-connect/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store  store.Store
	broker realtime.Broker

	AuthService    *service.AuthService
	RolesService   *service.RolesService
	ProfileService *service.ProfileService
	FeedService    *service.FeedService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	broker realtime.Broker,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		broker:       broker,
		logger:       logger,
	}

	// Default middleware chain applied to every request.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerProfiles()
	r.registerPosts()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /signup - strict rate limit by IP (public registration endpoint)
	signupHandler := &SignUpHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(signupHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /token - strict rate limit keyed by IP + email body field so one
	// address cannot brute force many accounts in parallel.
	tokenHandler := &TokenHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email"),
		),
	)

	// GET /me - authenticated identity echo
	meHandler := &MeHandler{AuthService: r.AuthService}
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(meHandler,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &RoleHandler{RolesService: r.RolesService}

	r.Mux.Handle("GET /v1/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// Grant/revoke require the caller to already hold the administrator role.
	adminOnly := r.adminOnly()

	r.Mux.Handle("PUT /v1/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleGrant),
			httpx.AuthnMiddleware(r.verifier),
			adminOnly,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			httpx.AuthnMiddleware(r.verifier),
			adminOnly,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerProfiles() {
	h := &ProfileHandler{ProfileService: r.ProfileService}

	r.Mux.Handle("GET /v1/profiles/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// Batched lookup for thread rendering: one request per thread, not one
	// per comment author.
	r.Mux.Handle("POST /v1/profiles/lookup",
		httpx.Chain(http.HandlerFunc(h.HandleLookup),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("PATCH /v1/profiles/me",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Account verification is an administrator action.
	r.Mux.Handle("PUT /v1/profiles/{id}/verified",
		httpx.Chain(http.HandlerFunc(h.HandleSetVerified),
			httpx.AuthnMiddleware(r.verifier),
			r.adminOnly(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

// adminOnly wraps a handler so only administrator callers reach it.
func (r *Router) adminOnly() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return requireAdministrator(r.RolesService, next)
	}
}

func (r *Router) registerPosts() {
	posts := &PostsHandler{FeedService: r.FeedService, RolesService: r.RolesService}
	likes := &LikesHandler{FeedService: r.FeedService}
	comments := &CommentsHandler{FeedService: r.FeedService}

	// Feed reads are public.
	r.Mux.Handle("GET /v1/posts",
		httpx.Chain(http.HandlerFunc(posts.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /v1/posts/{id}",
		httpx.Chain(http.HandlerFunc(posts.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("POST /v1/posts",
		httpx.Chain(http.HandlerFunc(posts.HandleCreate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("PUT /v1/posts/{id}/likes/me",
		httpx.Chain(http.HandlerFunc(likes.HandlePut),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/posts/{id}/likes/me",
		httpx.Chain(http.HandlerFunc(likes.HandleDelete),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/posts/{id}/likes/me",
		httpx.Chain(http.HandlerFunc(likes.HandleGetMine),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/posts/{id}/likes/count",
		httpx.Chain(http.HandlerFunc(likes.HandleCount),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	r.Mux.Handle("GET /v1/posts/{id}/comments",
		httpx.Chain(http.HandlerFunc(comments.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /v1/posts/{id}/comments/count",
		httpx.Chain(http.HandlerFunc(comments.HandleCount),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("POST /v1/posts/{id}/comments",
		httpx.Chain(http.HandlerFunc(comments.HandleCreate),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// SSE change stream. One broker subscription per connected client.
	stream := &StreamHandler{Broker: r.broker, FeedService: r.FeedService}
	r.Mux.Handle("GET /v1/posts/{id}/stream",
		httpx.Chain(stream,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.store, r.startTime, r.buildVersion))
}
