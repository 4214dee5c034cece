package app

import (
	"botdash/clients/botevents"
	"botdash/internal/dashboard"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	statusLinePrefix   = "[status] "
	mlUpdateLinePrefix = "[ml] "
)

// EventReceiver renders pushed bot events onto the board.
type EventReceiver struct {
	logger     *zap.Logger
	board      *dashboard.Board
	timeLayout string
	now        func() time.Time

	// onTrade runs after every trade insert.
	onTrade func()

	mu             sync.Mutex
	eventCounts    map[string]int
	unknownCounts  map[string]int
	evictedEntries int
}

func NewEventReceiver(logger *zap.Logger, board *dashboard.Board, timeLayout string, onTrade func()) *EventReceiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if onTrade == nil {
		onTrade = func() {}
	}
	return &EventReceiver{
		logger:        logger,
		board:         board,
		timeLayout:    timeLayout,
		now:           time.Now,
		onTrade:       onTrade,
		eventCounts:   make(map[string]int),
		unknownCounts: make(map[string]int),
	}
}

// Handle renders a single event.
func (r *EventReceiver) Handle(ev botevents.Event) {
	switch ev.Name {
	case dashboard.EventTerminalOutput:
		r.count(ev.Name, false)
		msg := dashboard.ParseTerminalMessage(ev.Payload)
		r.board.AppendTerminal(msg.Data)

	case dashboard.EventTradingUpdate:
		r.count(ev.Name, false)
		update := dashboard.ParseTradeUpdate(ev.Payload)

		at := ev.ReceivedAt
		if at.IsZero() {
			at = r.now()
		}
		evicted := r.board.InsertTrade(dashboard.FormatTrade(update, at, r.timeLayout))
		if evicted > 0 {
			r.mu.Lock()
			r.evictedEntries += evicted
			r.mu.Unlock()
		}

		r.logger.Debug("trade rendered",
			zap.String("pair", update.Pair),
			zap.String("status", update.Status),
			zap.Int("evicted", evicted),
		)
		r.onTrade()

	case dashboard.EventStatus:
		r.count(ev.Name, false)
		msg := dashboard.ParseStatusMessage(ev.Payload)
		r.board.AppendTerminal(statusLinePrefix + msg.Msg)

	case dashboard.EventMLUpdate:
		r.count(ev.Name, false)
		r.board.AppendTerminal(mlUpdateLinePrefix + dashboard.CompactPayload(ev.Payload))

	default:
		r.count(ev.Name, true)
		r.logger.Debug("ignoring unknown bot event", zap.String("event", ev.Name))
	}
}

func (r *EventReceiver) count(name string, unknown bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if unknown {
		r.unknownCounts[name]++
		return
	}
	r.eventCounts[name]++
}

// EventTypeCounts returns a copy of the per-event counters.
func (r *EventReceiver) EventTypeCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.eventCounts))
	for k, v := range r.eventCounts {
		out[k] = v
	}
	return out
}

// UnknownEventCounts returns a copy of the counters for unrecognized events.
func (r *EventReceiver) UnknownEventCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int, len(r.unknownCounts))
	for k, v := range r.unknownCounts {
		out[k] = v
	}
	return out
}

// EvictedEntries returns the number of trade entries pushed out of the log.
func (r *EventReceiver) EvictedEntries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictedEntries
}
