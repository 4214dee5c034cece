package app

import (
	"botdash/internal/dashboard"
	"botdash/mocks"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func TestSession_StartRefreshesAndRendersEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)
	// One refresh at start and one after the trade.
	stats.EXPECT().GetStats(gomock.Any()).Return(snapshotOf(7, 21, 3, "RUNNING"), nil).Times(2)

	events := newFakeEventSource()
	board := newTestBoard()
	s := NewSession(nil, events, stats, board, testConfig())
	require.NotEmpty(t, s.ID)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Equal(t, 1, events.Connects())
	assert.True(t, s.Connected())

	require.Eventually(t, func() bool {
		return board.Stats().BotStatus == "RUNNING"
	}, waitFor, tick)

	events.push(dashboard.EventTerminalOutput, `{"data":"hello"}`)
	events.push(dashboard.EventTradingUpdate, `{"pair":"BTC/USD","status":"buy","pnl":1.5}`)

	require.Eventually(t, func() bool {
		return board.TradeCount() == 1
	}, waitFor, tick)

	s.Stop()

	snap := board.Snapshot()
	assert.Equal(t, []string{"hello"}, snap.Terminal)
	assert.Equal(t, "$1.50", snap.Trades[0].PnL)
	assert.Equal(t, "7", snap.Stats.TotalTrades)

	refreshes, _ := s.Poller().Counts()
	assert.Equal(t, uint64(2), refreshes)
}

func TestSession_StartTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)
	stats.EXPECT().GetStats(gomock.Any()).Return(&dashboard.StatsSnapshot{}, nil).AnyTimes()

	s := NewSession(nil, newFakeEventSource(), stats, newTestBoard(), testConfig())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	err := s.Start(context.Background())
	assert.ErrorIs(t, err, errSessionStarted)
}

func TestSession_StopIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)
	stats.EXPECT().GetStats(gomock.Any()).Return(&dashboard.StatsSnapshot{}, nil).AnyTimes()

	events := newFakeEventSource()
	s := NewSession(nil, events, stats, newTestBoard(), testConfig())

	// Stop before Start does nothing.
	s.Stop()
	assert.Equal(t, 0, events.Closes())

	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	s.Stop()

	assert.Equal(t, 1, events.Closes())
	assert.False(t, s.Connected())
}

func TestSession_ReconnectsAfterTransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)
	stats.EXPECT().GetStats(gomock.Any()).Return(&dashboard.StatsSnapshot{}, nil).AnyTimes()

	events := newFakeEventSource()
	s := NewSession(nil, events, stats, newTestBoard(), testConfig())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	events.errCh <- errors.New("read: connection reset")

	require.Eventually(t, func() bool {
		return events.Connects() == 2 && s.Connected()
	}, waitFor, tick)
	assert.Equal(t, uint64(1), s.Reconnects())

	// Events keep flowing after the reconnect.
	events.push(dashboard.EventStatus, `{"msg":"Connected to trading bot"}`)
	require.Eventually(t, func() bool {
		return len(s.Board().Snapshot().Terminal) == 1
	}, waitFor, tick)
}

func TestSession_RetriesInitialConnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)
	stats.EXPECT().GetStats(gomock.Any()).Return(&dashboard.StatsSnapshot{}, nil).AnyTimes()

	events := newFakeEventSource(errors.New("dial refused"), errors.New("dial refused"))
	s := NewSession(nil, events, stats, newTestBoard(), testConfig())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, s.Connected, waitFor, tick)
	assert.Equal(t, 3, events.Connects())
}

func TestSession_ParentContextCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)
	stats.EXPECT().GetStats(gomock.Any()).Return(&dashboard.StatsSnapshot{}, nil).AnyTimes()

	events := newFakeEventSource()
	s := NewSession(nil, events, stats, newTestBoard(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Stop did not return after the parent context was canceled")
	}
}

func TestSession_RefreshOutsideSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)
	stats.EXPECT().GetStats(gomock.Any()).Return(&dashboard.StatsSnapshot{}, nil).Times(2)

	s := NewSession(nil, newFakeEventSource(), stats, newTestBoard(), testConfig())

	// Ignored before Start.
	s.Refresh()

	require.NoError(t, s.Start(context.Background()))
	s.Refresh()
	s.Stop()

	// Ignored after Stop.
	s.Refresh()
	s.Poller().Wait()
}

func TestSession_InvalidPollInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	stats := mocks.NewMockStatsSource(ctrl)

	cfg := testConfig()
	cfg.Stats.PollInterval = 0

	events := newFakeEventSource()
	s := NewSession(nil, events, stats, newTestBoard(), cfg)
	require.Error(t, s.Start(context.Background()))
	assert.Equal(t, 0, events.Connects())
}
