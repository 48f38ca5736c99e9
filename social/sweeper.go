package social

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SweepExpired drops expired friend requests and elapsed cooldowns. It returns the number of
// requests removed.
func (s *Service) SweepExpired() int {
	removed := s.ledger.Sweep(s.clock.Now(), s.cfg.RequestTTL())
	pruned := s.cooldowns.Prune()
	s.metrics.swept(removed, s.ledger.Len())

	if removed > 0 || pruned > 0 {
		s.logger.Debug("Swept expired state",
			zap.Int("requests", removed),
			zap.Int("cooldowns", pruned))
	}
	return removed
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Request sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Request sweeper stopped")
			return
		case <-ticker.C:
			s.SweepExpired()
		}
	}
}
