package app

import (
	"botdash/internal/dashboard"
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// StatsPoller copies the bot's stats onto the board.
type StatsPoller struct {
	logger *zap.Logger
	source StatsSource
	board  *dashboard.Board

	wg sync.WaitGroup

	refreshCount uint64
	failureCount uint64
}

func NewStatsPoller(logger *zap.Logger, source StatsSource, board *dashboard.Board) *StatsPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsPoller{
		logger: logger,
		source: source,
		board:  board,
	}
}

// Refresh fetches the stats once and writes all four stats targets in a
// single board mutation. On failure the board is left untouched.
func (p *StatsPoller) Refresh(ctx context.Context) error {
	atomic.AddUint64(&p.refreshCount, 1)

	snap, err := p.source.GetStats(ctx)
	if err != nil {
		atomic.AddUint64(&p.failureCount, 1)
		p.logger.Error("failed to refresh stats", zap.Error(err))
		return err
	}

	p.board.ApplyStats(dashboard.FormatStats(*snap))
	return nil
}

// RefreshAsync runs Refresh on its own goroutine. Overlapping refreshes are
// allowed and land in completion order.
func (p *StatsPoller) RefreshAsync(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Refresh(ctx)
	}()
}

// Wait blocks until every RefreshAsync call has returned.
func (p *StatsPoller) Wait() {
	p.wg.Wait()
}

// Counts returns the number of refresh attempts and failures.
func (p *StatsPoller) Counts() (refreshes, failures uint64) {
	return atomic.LoadUint64(&p.refreshCount), atomic.LoadUint64(&p.failureCount)
}
