package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/billing"
	"server/internal/domain"
	"server/internal/infra"
)

// syncWorker drains the billing sync-job queue: each job names a
// customer whose subscription state must be re-fetched and written.
type syncWorker struct {
	jobs         domain.SyncJobRepository
	synchronizer *billing.Synchronizer
	pollInterval time.Duration
	logger       zerolog.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	profiles := repo.NewProfileRepository(pool)
	details := repo.NewSubscriptionDetailRepository(pool)
	jobs := repo.NewSyncJobRepository(pool, cfg.SyncMaxAttempts)

	gateway := billing.NewStripeGateway(cfg.StripeSecretKey)
	mapper := billing.NewPlanMapper(cfg.StripePriceBasic, cfg.StripePricePro, logger)

	worker := &syncWorker{
		jobs:         jobs,
		synchronizer: billing.NewSynchronizer(gateway, profiles, details, mapper, logger),
		pollInterval: cfg.WorkerPollInterval,
		logger:       logger,
	}

	logger.Info().Dur("poll_interval", cfg.WorkerPollInterval).Msg("worker started")
	worker.run(ctx)
	logger.Info().Msg("worker stopped")
}

func (w *syncWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and processes jobs until the queue is empty, so a burst
// of webhook deliveries does not wait one poll interval per job.
func (w *syncWorker) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.jobs.ClaimNext(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, context.Canceled) {
				w.logger.Error().Err(err).Msg("claim job failed")
			}
			return
		}
		w.process(ctx, job)
	}
}

func (w *syncWorker) process(ctx context.Context, job *domain.SyncJob) {
	syncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := w.synchronizer.Sync(syncCtx, job.StripeCustomerID)
	if err == nil {
		if err := w.jobs.MarkDone(ctx, job.ID); err != nil {
			w.logger.Error().Err(err).Str("job_id", job.ID).Msg("mark done failed")
		}
		return
	}

	w.logger.Error().
		Err(err).
		Str("job_id", job.ID).
		Str("event_id", job.EventID).
		Str("customer_id", job.StripeCustomerID).
		Int("attempts", job.Attempts).
		Msg("sync failed")
	if err := w.jobs.MarkFailed(ctx, job.ID, err.Error()); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("mark failed failed")
	}
}
