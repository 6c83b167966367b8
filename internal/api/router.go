package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tasknest/tasknest/internal/api/handlers"
	"github.com/tasknest/tasknest/internal/api/middleware"
	"github.com/tasknest/tasknest/internal/auth"
	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/queue"
	"github.com/tasknest/tasknest/internal/session"
	"github.com/tasknest/tasknest/internal/store"
)

type Router struct {
	mux        *chi.Mux
	db         *pgxpool.Pool
	redis      *redis.Client
	cfg        *config.Config
	cookieAuth *auth.CookieAuth
	apiKeyAuth *auth.APIKeyAuth

	users   *store.UserStore
	todos   *store.TodoStore
	tokens  *store.TokenStore
	apiKeys *store.APIKeyStore
	issuer  *auth.Issuer
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	sdb := store.NewDB(db)
	tokens := store.NewTokenStore(sdb)
	apiKeys := store.NewAPIKeyStore(sdb)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTTL, tokens)

	return &Router{
		mux:        chi.NewRouter(),
		db:         db,
		redis:      rdb,
		cfg:        cfg,
		cookieAuth: auth.NewCookieAuth(cfg.Auth.JWTSecret),
		apiKeyAuth: auth.NewAPIKeyAuth(cfg.Auth.APIKeyHeader, apiKeys),
		users:      store.NewUserStore(sdb),
		todos:      store.NewTodoStore(sdb),
		tokens:     tokens,
		apiKeys:    apiKeys,
		issuer:     issuer,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	sessionSvc := session.NewService(rt.users, rt.tokens, rt.issuer)
	queueClient := queue.NewClient(rt.cfg.Redis)

	authH := handlers.NewAuthHandler(sessionSvc, queueClient)
	userH := handlers.NewUserHandler(rt.users)
	todoH := handlers.NewTodoHandler(rt.todos)
	apiKeyH := handlers.NewAPIKeyHandler(rt.apiKeys)
	tokenH := handlers.NewTokenAdminHandler(rt.tokens, rt.issuer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authH.Login)
			r.Post("/refresh", authH.Refresh)
			r.Post("/logout", authH.Logout)
		})

		// Session-cookie protected resources
		r.Group(func(r chi.Router) {
			r.Use(rt.cookieAuth.Authenticate)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userH.List)
				r.Post("/", userH.Create)
				r.Get("/{id}", userH.Get)
				r.Patch("/{id}", userH.Update)
				r.Delete("/{id}", userH.Delete)
			})

			r.Route("/todos", func(r chi.Router) {
				r.Get("/", todoH.List)
				r.Post("/", todoH.Create)
				r.Get("/{id}", todoH.Get)
				r.Patch("/{id}", todoH.Update)
				r.Delete("/{id}", todoH.Delete)
			})

			r.Route("/api_keys", func(r chi.Router) {
				r.Get("/", apiKeyH.List)
				r.Post("/", apiKeyH.Create)
				r.Get("/{id}", apiKeyH.Get)
				r.Patch("/{id}", apiKeyH.Update)
				r.Delete("/{id}", apiKeyH.Delete)
			})

			r.Route("/refresh_tokens", func(r chi.Router) {
				r.Get("/", tokenH.ListRefresh)
				r.Post("/", tokenH.CreateRefresh)
				r.Get("/{id}", tokenH.GetRefresh)
				r.Delete("/{id}", tokenH.DeleteRefresh)
			})

			r.Route("/access_tokens", func(r chi.Router) {
				r.Get("/", tokenH.ListAccess)
				r.Post("/", tokenH.CreateAccess)
				r.Get("/{id}", tokenH.GetAccess)
				r.Delete("/{id}", tokenH.DeleteAccess)
			})
		})

		// API-key protected, read-only external surface
		r.Route("/external", func(r chi.Router) {
			r.Use(rt.apiKeyAuth.Authenticate)

			r.Get("/users", userH.List)
			r.Get("/users/{id}", userH.Get)
			r.Get("/todos", todoH.List)
			r.Get("/todos/{id}", todoH.Get)
		})
	})

	return r
}
