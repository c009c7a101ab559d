package vote

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper replays failed vote writes on a fixed interval. A failing or
// panicking pass is logged and the next tick runs normally.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	batch    int
	logger   zerolog.Logger
}

// NewSweeper creates a sweeper.
func NewSweeper(svc *Service, interval time.Duration, batch int, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Sweeper{
		svc:      svc,
		interval: interval,
		batch:    batch,
		logger:   logger.With().Str("component", "vote_sweeper").Logger(),
	}
}

// Run blocks until ctx is done.
func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("vote sweep failed")
			}
		}
	}
}

// RunOnce performs one sweep pass.
func (w *Sweeper) RunOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("vote sweep panic: %v", r)
		}
	}()
	report, err := w.svc.ProcessFailedWrites(ctx, w.batch)
	if err != nil {
		return err
	}
	if report.Claimed > 0 {
		w.logger.Info().
			Int("claimed", report.Claimed).
			Int("replayed", report.Replayed).
			Int("duplicates", report.Duplicates).
			Int("failed", report.Failed).
			Int("exhausted", report.Exhausted).
			Msg("vote sweep finished")
	}
	return nil
}
