package dashboard

import (
	"fmt"
	"sync"
	"time"
)

// Target identifies a fixed region of the board.
type Target string

const (
	TargetTerminal    Target = "terminal"
	TargetTrades      Target = "trades"
	TargetTotalTrades Target = "total-trades"
	TargetTotalPnL    Target = "total-pnl"
	TargetAvgPnL      Target = "avg-pnl"
	TargetBotStatus   Target = "bot-status"
)

// BoardObserver is notified with a fresh snapshot after every mutation.
type BoardObserver interface {
	OnBoardUpdate(s Snapshot)
}

// ObserverFunc adapts a function to BoardObserver.
type ObserverFunc func(s Snapshot)

func (f ObserverFunc) OnBoardUpdate(s Snapshot) { f(s) }

// Snapshot is an immutable copy of the board. Version increases with every
// mutation so renderers can discard out-of-order deliveries.
type Snapshot struct {
	Version        uint64       `json:"version"`
	Terminal       []string     `json:"terminal"`
	Trades         []TradeEntry `json:"trades"`
	Stats          StatsView    `json:"stats"`
	StatsUpdatedAt time.Time    `json:"stats_updated_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// BoardOptions configures a Board.
type BoardOptions struct {
	TradeLogCapacity int
	TerminalMaxLines int
	Now              func() time.Time
}

// Board is the render target shared by the event receiver and the stats
// poller. The terminal pane and the trade list are separate containers; the
// stats panel is written only by ApplyStats.
type Board struct {
	mu             sync.Mutex
	terminal       *TerminalLog
	trades         *TradeLog
	stats          StatsView
	statsUpdatedAt time.Time
	updatedAt      time.Time
	version        uint64
	now            func() time.Time

	obsMu     sync.RWMutex
	observers map[uint64]BoardObserver
	nextObsID uint64
}

func NewBoard(opts BoardOptions) *Board {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Board{
		terminal:  NewTerminalLog(opts.TerminalMaxLines),
		trades:    NewTradeLog(opts.TradeLogCapacity),
		stats:     FormatStats(StatsSnapshot{}),
		now:       now,
		observers: make(map[uint64]BoardObserver),
	}
}

// AppendTerminal adds a literal line to the bottom of the terminal pane.
func (b *Board) AppendTerminal(line string) {
	b.mu.Lock()
	b.terminal.Append(line)
	snap := b.touchLocked()
	b.mu.Unlock()

	b.notifyObservers(snap)
}

// InsertTrade puts e at the top of the trade list and returns the number of
// evicted entries.
func (b *Board) InsertTrade(e TradeEntry) int {
	b.mu.Lock()
	evicted := b.trades.Insert(e)
	snap := b.touchLocked()
	b.mu.Unlock()

	b.notifyObservers(snap)
	return evicted
}

// ApplyStats replaces all four stats targets at once.
func (b *Board) ApplyStats(v StatsView) {
	b.mu.Lock()
	b.stats = v
	b.statsUpdatedAt = b.now()
	snap := b.touchLocked()
	b.mu.Unlock()

	b.notifyObservers(snap)
}

// Stats returns the current stats panel.
func (b *Board) Stats() StatsView {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// TradeCount returns the number of entries in the trade list.
func (b *Board) TradeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trades.Len()
}

// Text returns the text shown in a single-value target.
func (b *Board) Text(t Target) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch t {
	case TargetTotalTrades:
		return b.stats.TotalTrades, nil
	case TargetTotalPnL:
		return b.stats.TotalPnL, nil
	case TargetAvgPnL:
		return b.stats.AvgPnL, nil
	case TargetBotStatus:
		return b.stats.BotStatus, nil
	default:
		return "", fmt.Errorf("target %q has no single text value", t)
	}
}

// Snapshot returns a copy of the whole board.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// AddObserver registers an observer for board updates and returns a
// function that removes it.
func (b *Board) AddObserver(obs BoardObserver) (remove func()) {
	if obs == nil {
		return func() {}
	}
	b.obsMu.Lock()
	id := b.nextObsID
	b.nextObsID++
	b.observers[id] = obs
	b.obsMu.Unlock()

	return func() {
		b.obsMu.Lock()
		delete(b.observers, id)
		b.obsMu.Unlock()
	}
}

func (b *Board) touchLocked() Snapshot {
	b.version++
	b.updatedAt = b.now()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() Snapshot {
	return Snapshot{
		Version:        b.version,
		Terminal:       b.terminal.Lines(),
		Trades:         b.trades.Entries(),
		Stats:          b.stats,
		StatsUpdatedAt: b.statsUpdatedAt,
		UpdatedAt:      b.updatedAt,
	}
}

// notifyObservers runs outside the board lock so observers may read the board.
func (b *Board) notifyObservers(s Snapshot) {
	b.obsMu.RLock()
	observers := make([]BoardObserver, 0, len(b.observers))
	for _, obs := range b.observers {
		observers = append(observers, obs)
	}
	b.obsMu.RUnlock()

	for _, obs := range observers {
		obs.OnBoardUpdate(s)
	}
}
