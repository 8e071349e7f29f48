package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/orinx/billing/internal/bootstrap"
	infraRedis "github.com/orinx/billing/internal/infrastructure/redis"
	"github.com/orinx/billing/internal/infrastructure/observability"
	"github.com/orinx/billing/internal/repository/postgres"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// The worker owns the asynchronous half of the pipeline: publishing committed
// outbox entries to the billing stream and sweeping overdue pending invites.
// The webhook request path never waits on either.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "billing-worker", "billing_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	txManager := postgres.NewTxManager(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	inviteRepo := postgres.NewInviteRepository(app.Pool)
	streamProducer := infraRedis.NewStreamProducer(app.Redis)

	workerCfg := app.Config.Worker

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Outbox publisher (polls the outbox table, publishes to Redis Streams).
	g.Go(func() error {
		return runOutboxPublisher(gCtx, app.Logger, app.Metrics, txManager, outboxRepo, streamProducer, workerCfg.OutboxPollInterval, workerCfg.BatchSize)
	})

	// 2. Invite sweeper (expires overdue pending invites).
	g.Go(func() error {
		return runInviteSweeper(gCtx, app.Logger, app.Metrics, inviteRepo, workerCfg.InviteSweepInterval)
	})

	// 3. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runOutboxPublisher(
	ctx context.Context,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	txManager *postgres.TxManager,
	outboxRepo *postgres.OutboxRepository,
	streamProducer *infraRedis.StreamProducer,
	pollInterval time.Duration,
	batchSize int,
) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// Pending rows are claimed FOR UPDATE SKIP LOCKED, so holding the
		// transaction while publishing keeps other instances off this batch.
		err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			entries, err := outboxRepo.GetPending(txCtx, batchSize)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := streamProducer.PublishBillingEvent(
					ctx, entry.ID.String(), entry.EventType, entry.Payload,
				); err != nil {
					logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to publish outbox event")
					if err := outboxRepo.MarkFailed(txCtx, entry.ID); err != nil {
						logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to mark outbox entry failed")
					}
					metrics.OutboxPublished.WithLabelValues("failed").Inc()
					continue
				}
				if err := outboxRepo.MarkPublished(txCtx, entry.ID); err != nil {
					logger.Error().Err(err).Str("outbox_id", entry.ID.String()).Msg("Failed to mark outbox entry published")
					continue
				}
				metrics.OutboxPublished.WithLabelValues("published").Inc()
			}
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("Outbox publisher error")
		}
	}
}

func runInviteSweeper(
	ctx context.Context,
	logger zerolog.Logger,
	metrics *observability.Metrics,
	inviteRepo *postgres.InviteRepository,
	sweepInterval time.Duration,
) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		expired, err := inviteRepo.ExpirePending(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Invite sweeper error")
			continue
		}
		if expired > 0 {
			metrics.InvitesExpired.Add(float64(expired))
			logger.Info().Int64("count", expired).Msg("Expired pending invites")
		}
	}
}
