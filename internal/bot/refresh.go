package bot

import (
	"context"
	"sync"

	"guildpulse/internal/providers"
)

// refreshQueue runs stat-channel passes off the dispatcher loop, since a
// rename can wait on the platform rate limit. At most one pass per guild is
// in flight; requests arriving meanwhile collapse into one follow-up pass.
type refreshQueue struct {
	stats  StatsRefresher
	logger providers.Logger

	mu    sync.Mutex
	dirty map[string]bool
	wg    sync.WaitGroup
}

func newRefreshQueue(stats StatsRefresher, logger providers.Logger) *refreshQueue {
	return &refreshQueue{stats: stats, logger: logger, dirty: make(map[string]bool)}
}

// Request schedules a pass for guildID and returns immediately.
func (q *refreshQueue) Request(ctx context.Context, guildID string) {
	q.mu.Lock()
	if _, running := q.dirty[guildID]; running {
		q.dirty[guildID] = true
		q.mu.Unlock()
		return
	}
	q.dirty[guildID] = false
	q.mu.Unlock()

	q.wg.Add(1)
	go q.run(ctx, guildID)
}

func (q *refreshQueue) run(ctx context.Context, guildID string) {
	defer q.wg.Done()
	for {
		report, err := q.stats.ReconcileGuild(ctx, guildID)
		if err != nil {
			q.logger.Errorf(providers.TypeBot, "Stats update failed for guild %s: %s", guildID, err)
		} else if report.Renamed > 0 {
			q.logger.Debugf(providers.TypeBot, "Stats of guild %s: %d renames", guildID, report.Renamed)
		}

		q.mu.Lock()
		if !q.dirty[guildID] || ctx.Err() != nil {
			delete(q.dirty, guildID)
			q.mu.Unlock()
			return
		}
		q.dirty[guildID] = false
		q.mu.Unlock()
	}
}

// Wait blocks until every pass started so far has finished.
func (q *refreshQueue) Wait() {
	q.wg.Wait()
}
