package dashboard

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() func() time.Time {
	at := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestBoard_InitialState(t *testing.T) {
	b := NewBoard(BoardOptions{})

	snap := b.Snapshot()
	assert.Equal(t, uint64(0), snap.Version)
	assert.Empty(t, snap.Terminal)
	assert.Empty(t, snap.Trades)

	for target, want := range map[Target]string{
		TargetTotalTrades: "-",
		TargetTotalPnL:    "$-",
		TargetAvgPnL:      "$-",
		TargetBotStatus:   "UNKNOWN",
	} {
		got, err := b.Text(target)
		require.NoError(t, err)
		assert.Equal(t, want, got, target)
	}
	assert.Equal(t, StatusStopped, b.Stats().BotStatusClass)
}

func TestBoard_TextRejectsContainers(t *testing.T) {
	b := NewBoard(BoardOptions{})

	_, err := b.Text(TargetTerminal)
	assert.Error(t, err)
	_, err = b.Text(TargetTrades)
	assert.Error(t, err)
}

func TestBoard_ContainersAreSeparate(t *testing.T) {
	b := NewBoard(BoardOptions{Now: fixedNow()})

	b.AppendTerminal("hello")
	b.InsertTrade(FormatTrade(TradeUpdate{Pair: "BTC-USD", Status: "filled", PnL: optional.Some(1.0)}, time.Now(), ""))
	b.AppendTerminal("world")

	snap := b.Snapshot()
	assert.Equal(t, []string{"hello", "world"}, snap.Terminal)
	require.Len(t, snap.Trades, 1)
	assert.Equal(t, "BTC-USD", snap.Trades[0].Pair)
	assert.Equal(t, uint64(3), snap.Version)
}

func TestBoard_TradeCapacity(t *testing.T) {
	b := NewBoard(BoardOptions{})

	for i := 0; i < 60; i++ {
		b.InsertTrade(TradeEntry{Pair: fmt.Sprintf("P%d", i)})
	}

	assert.Equal(t, 50, b.TradeCount())
	assert.Equal(t, "P59", b.Snapshot().Trades[0].Pair)
}

func TestBoard_ApplyStats(t *testing.T) {
	now := fixedNow()
	b := NewBoard(BoardOptions{Now: now})

	b.ApplyStats(FormatStats(StatsSnapshot{
		TotalTrades: optional.Some(12.0),
		TotalPnL:    optional.Some(340.5),
		AvgPnL:      optional.Some(28.4),
		BotStatus:   optional.Some("RUNNING"),
	}))

	snap := b.Snapshot()
	assert.Equal(t, "12", snap.Stats.TotalTrades)
	assert.Equal(t, "$340.5", snap.Stats.TotalPnL)
	assert.Equal(t, "$28.4", snap.Stats.AvgPnL)
	assert.Equal(t, "RUNNING", snap.Stats.BotStatus)
	assert.Equal(t, StatusRunning, snap.Stats.BotStatusClass)
	assert.Equal(t, now(), snap.StatsUpdatedAt)
}

func TestBoard_Observers(t *testing.T) {
	b := NewBoard(BoardOptions{})

	var got []uint64
	remove := b.AddObserver(ObserverFunc(func(s Snapshot) {
		got = append(got, s.Version)
	}))

	b.AppendTerminal("a")
	b.AppendTerminal("b")
	remove()
	b.AppendTerminal("c")

	assert.Equal(t, []uint64{1, 2}, got)
}

func TestBoard_ObserverMayReadBoard(t *testing.T) {
	b := NewBoard(BoardOptions{})

	var count int
	b.AddObserver(ObserverFunc(func(Snapshot) {
		count = b.TradeCount()
	}))

	b.InsertTrade(TradeEntry{Pair: "X"})

	assert.Equal(t, 1, count)
}

func TestBoard_NilObserver(t *testing.T) {
	b := NewBoard(BoardOptions{})

	remove := b.AddObserver(nil)
	remove()
	b.AppendTerminal("ok")
}

func TestBoard_ConcurrentWriters(t *testing.T) {
	b := NewBoard(BoardOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.InsertTrade(TradeEntry{Pair: fmt.Sprintf("%d-%d", i, j)})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.AppendTerminal("line")
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.ApplyStats(FormatStats(StatsSnapshot{}))
				_ = b.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := b.Snapshot()
	assert.Equal(t, 50, len(snap.Trades))
	assert.Equal(t, 400, len(snap.Terminal))
	assert.Equal(t, uint64(8*150), snap.Version)
}
