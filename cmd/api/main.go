package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	checkoutApp "github.com/orinx/billing/internal/application/checkout"
	inviteApp "github.com/orinx/billing/internal/application/invite"
	oauthApp "github.com/orinx/billing/internal/application/oauth"
	webhookApp "github.com/orinx/billing/internal/application/webhook"
	"github.com/orinx/billing/internal/bootstrap"
	infraRedis "github.com/orinx/billing/internal/infrastructure/redis"
	"github.com/orinx/billing/internal/interfaces/http/handlers"
	"github.com/orinx/billing/internal/platform"
	"github.com/orinx/billing/internal/providers/flutterwave"
	"github.com/orinx/billing/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "billing-api", "billing")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	cfg := app.Config

	// --- Repositories ---
	txManager := postgres.NewTxManager(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	ledgerRepo := postgres.NewLedgerRepository(app.Pool, txManager, outboxRepo)
	inviteRepo := postgres.NewInviteRepository(app.Pool)
	accountRepo := postgres.NewConnectedAccountRepository(app.Pool)

	// --- Payment provider ---
	tokenCache := infraRedis.NewTokenCache(app.Redis)
	tokenSource := flutterwave.NewClientCredentialsSource(
		cfg.Flutterwave.TokenURL,
		cfg.Flutterwave.ClientID,
		cfg.Flutterwave.ClientSecret,
		&http.Client{Timeout: cfg.Flutterwave.VerifyTimeout},
		tokenCache,
		app.Metrics,
	)
	fwClient := flutterwave.NewClient(cfg.Flutterwave.BaseURL, tokenSource, cfg.Flutterwave.VerifyTimeout, app.Metrics)

	// --- Identity platform ---
	userClient := platform.NewUserClient(cfg.Platform.BaseURL, cfg.Platform.AnonKey)
	adminClient := platform.NewAdminClient(cfg.Platform.BaseURL, cfg.Platform.ServiceKey)

	// --- Application services ---
	processor := webhookApp.NewProcessor(cfg.Flutterwave.WebhookHash, fwClient, ledgerRepo, app.Metrics)
	checkoutUC := checkoutApp.NewInitCheckoutUseCase(fwClient, cfg.App.BaseURL, cfg.Flutterwave.Currency)
	sendInviteUC := inviteApp.NewSendInviteUseCase(
		userClient, inviteRepo, adminClient,
		cfg.App.BaseURL, cfg.Invite.TTL, cfg.Invite.DefaultRole,
	)
	acceptUC := inviteApp.NewAcceptInviteUseCase(userClient, inviteRepo)
	storeTokenUC := oauthApp.NewStoreTokensUseCase(accountRepo)

	// --- Build router ---
	router := handlers.NewRouter(handlers.RouterDeps{
		Pool:         app.Pool,
		RedisClient:  app.Redis,
		Processor:    processor,
		CheckoutUC:   checkoutUC,
		SendInviteUC: sendInviteUC,
		AcceptUC:     acceptUC,
		StoreTokenUC: storeTokenUC,
		Metrics:      app.Metrics,
		ServerConfig: cfg.Server,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
