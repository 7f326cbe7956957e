package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// OfferSweepJob runs the periodic dispatch sweep. Every five seconds it
// expires stale offer rounds and opens fresh offers for ready orders that
// have none.
type OfferSweepJob struct {
	handler commands.OfferOrdersCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewOfferSweepJob creates the dispatch sweep job.
// Uses OfferOrdersCommandHandler to run the matching pass on each tick.
func NewOfferSweepJob(handler commands.OfferOrdersCommandHandler, logger *slog.Logger) *OfferSweepJob {
	return &OfferSweepJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "offer_sweep_job"),
	}
}

// Start begins the sweep, running every five seconds.
func (j *OfferSweepJob) Start() error {
	_, err := j.cron.AddFunc("*/5 * * * * *", func() {
		ctx := context.Background()
		cmd := commands.NewOfferOrdersCommand()

		if err := j.handler.Handle(ctx, cmd); err != nil {
			// Empty pools are quiet periods, not failures
			if !errors.Is(err, commands.ErrNoReadyOrders) && !errors.Is(err, commands.ErrNoAvailableAgents) {
				j.logger.ErrorContext(ctx, "Offer sweep job failed", "error", err)
			}
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Offer sweep job started (running every 5 seconds)")
	return nil
}

// Stop stops the offer sweep job.
func (j *OfferSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Offer sweep job stopped")
}
