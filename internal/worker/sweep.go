package worker

// sweep.go
// Background goroutine that periodically resends pending writes which went
// out while the store was unreachable.
// Uses the Circuit Breaker to avoid hammering a downed store.

import (
	"context"
	"time"

	"posync/internal/infra"

	"github.com/rs/zerolog/log"
)

const defaultSweepInterval = 5 * time.Second

// Sweeper resends due pending writes and reports how many went out.
type Sweeper interface {
	SweepPending() int
}

// SweepConfig holds all dependencies for the sweep goroutine.
type SweepConfig struct {
	Interval time.Duration
	Target   Sweeper
	CB       *infra.CircuitBreaker // optional
}

// StartPendingSweep launches a background goroutine that ticks every
// Interval and asks the target to resend its pending writes. The returned
// channel is closed once the goroutine exits after ctx is cancelled.
func StartPendingSweep(ctx context.Context, cfg SweepConfig) <-chan struct{} {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSweepInterval
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sweep: shutting down")
				return
			case <-ticker.C:
				sweepOnce(cfg)
			}
		}
	}()
	return done
}

func sweepOnce(cfg SweepConfig) int {
	// If CB is open, skip entirely: the next half-open trial call comes from a
	// regular fetch
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("sweep: circuit breaker is open, skipping tick")
		return 0
	}
	n := cfg.Target.SweepPending()
	if n > 0 {
		log.Info().Int("count", n).Msg("sweep: resending pending writes")
	}
	return n
}
