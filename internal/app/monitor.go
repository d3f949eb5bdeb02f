package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Monitor is the staleness sweeper: a named periodic task started on
// boot and stopped by canceling its context. It reclaims connections
// whose transport stayed open but stopped producing updates. The
// transport heartbeat is the second liveness detector and lives in
// the websocket adapter's pumps.
type Monitor struct {
	Orch     *Orchestrator
	Interval time.Duration
	MaxAge   time.Duration
}

// Run blocks until ctx is canceled, sweeping on every tick.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.monitor").Dur("interval", m.Interval).Dur("max_age", m.MaxAge).Msg("stale sweep started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.monitor").Msg("stale sweep stopped")
			return
		case now := <-ticker.C:
			m.Orch.ReapStale(m.MaxAge, now)
		}
	}
}
