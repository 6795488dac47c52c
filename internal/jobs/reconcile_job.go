package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"nft-marketplace/internal/services"
)

// ReconcileJob periodically advances stored ACTIVE auctions past their end
// time to ENDED. The read path already derives expiry lazily, so this sweep
// only keeps the stored state column in step for direct SQL consumers.
type ReconcileJob struct {
	auctionService *services.AuctionService
	cron           *cron.Cron
	spec           string
	logger         *zap.Logger
}

func NewReconcileJob(auctionService *services.AuctionService, spec string, logger *zap.Logger) *ReconcileJob {
	return &ReconcileJob{
		auctionService: auctionService,
		cron:           cron.New(),
		spec:           spec,
		logger:         logger,
	}
}

// Start registers and launches the sweep. A blank spec disables it.
func (j *ReconcileJob) Start() error {
	if j.spec == "" {
		j.logger.Info("reconcile sweep disabled")
		return nil
	}

	if _, err := j.cron.AddFunc(j.spec, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("reconcile sweep started", zap.String("schedule", j.spec))
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish
func (j *ReconcileJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *ReconcileJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := j.auctionService.AdvanceExpired(ctx); err != nil {
		j.logger.Error("reconcile sweep failed", zap.Error(err))
	}
}
