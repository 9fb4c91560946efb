package tracker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

// Loop runs the tracker every interval until ctx is done. A tick that lands while an externally
// triggered run is active is skipped.
func (t *Tracker) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.Run(ctx); err != nil {
				if errors.Is(err, domain.ErrRunInProgress) {
					t.logger.Info("poll skipped, a run is already in progress")
					continue
				}
				t.logger.Warn("poll failed", slog.String("error", err.Error()))
			}
		}
	}
}
