package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	checkoutApp "github.com/orinx/billing/internal/application/checkout"
	inviteApp "github.com/orinx/billing/internal/application/invite"
	oauthApp "github.com/orinx/billing/internal/application/oauth"
	webhookApp "github.com/orinx/billing/internal/application/webhook"
	"github.com/orinx/billing/internal/infrastructure/config"
	"github.com/orinx/billing/internal/infrastructure/observability"
	customMW "github.com/orinx/billing/internal/middleware"
)

type RouterDeps struct {
	Pool         *pgxpool.Pool
	RedisClient  *redis.Client
	Processor    *webhookApp.Processor
	CheckoutUC   *checkoutApp.InitCheckoutUseCase
	SendInviteUC *inviteApp.SendInviteUseCase
	AcceptUC     *inviteApp.AcceptInviteUseCase
	StoreTokenUC *oauthApp.StoreTokensUseCase
	Metrics      *observability.Metrics
	ServerConfig config.ServerConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.ServerConfig.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "apikey", "x-client-info", "verif-hash"},
		AllowCredentials: deps.ServerConfig.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthHandler(deps.Pool, deps.RedisClient)
	webhookH := NewWebhookHandler(deps.Processor)
	billingH := NewBillingHandler(deps.CheckoutUC)
	teamH := NewTeamHandler(deps.SendInviteUC, deps.AcceptUC)
	oauthH := NewOAuthHandler(deps.StoreTokenUC)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// The webhook endpoint is never rate limited: bursts of redeliveries
	// from the provider are legitimate traffic, and the signature gate
	// rejects everything else before any work happens.
	r.Post("/webhook", webhookH.Handle)

	rateLimit := customMW.RateLimit(deps.ServerConfig.RateLimitPerMin)

	r.Group(func(r chi.Router) {
		r.Use(rateLimit)

		r.Post("/billing/checkout", billingH.InitCheckout)
		r.With(customMW.RequireBearer()).Post("/teams/invites", teamH.SendInvite)
		r.Post("/teams/invites/accept", teamH.AcceptInvite)
		r.Post("/oauth/tokens", oauthH.StoreTokens)
	})

	return r
}
