package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron/v2"
)

// StatusRefresher recomputes stored tournament statuses.
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context) (int, error)
}

// TournamentStatusWorker keeps tournament statuses in line with the clock.
type TournamentStatusWorker struct {
	refresher StatusRefresher
	interval  time.Duration
	timeout   time.Duration
	sched     gocron.Scheduler
}

func NewTournamentStatusWorker(refresher StatusRefresher, interval time.Duration) *TournamentStatusWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TournamentStatusWorker{
		refresher: refresher,
		interval:  interval,
		timeout:   interval,
	}
}

// Start runs a refresh immediately and then every interval until ctx is
// done. Overlapping runs are skipped.
func (w *TournamentStatusWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.runOnce(ctx) }),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule status job: %w", err)
	}

	w.sched = sched
	sched.Start()
	log.Info("tournament status worker started", "interval", w.interval)

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			log.Error("status worker shutdown failed", "err", err)
		}
	}()
	return nil
}

func (w *TournamentStatusWorker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	n, err := w.refresher.RefreshStatuses(runCtx)
	if err != nil {
		log.Error("tournament status refresh failed", "err", err)
		return
	}
	if n > 0 {
		log.Info("tournament statuses refreshed", "updated", n)
	}
}
