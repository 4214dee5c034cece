package dashboard

// DefaultTradeLogCapacity is the number of trade entries kept on screen.
const DefaultTradeLogCapacity = 50

// TradeLog keeps rendered trades newest-first and evicts the oldest entry
// whenever an insert pushes it past capacity. It is not safe for concurrent
// use; Board serializes access.
type TradeLog struct {
	capacity int
	entries  []TradeEntry
}

// NewTradeLog creates a log holding at most capacity entries. A capacity
// below one falls back to DefaultTradeLogCapacity.
func NewTradeLog(capacity int) *TradeLog {
	if capacity < 1 {
		capacity = DefaultTradeLogCapacity
	}
	return &TradeLog{
		capacity: capacity,
		entries:  make([]TradeEntry, 0, capacity+1),
	}
}

// Insert puts e at the front and returns how many entries were evicted.
func (l *TradeLog) Insert(e TradeEntry) int {
	l.entries = append(l.entries, TradeEntry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = e

	evicted := 0
	for len(l.entries) > l.capacity {
		l.entries[len(l.entries)-1] = TradeEntry{}
		l.entries = l.entries[:len(l.entries)-1]
		evicted++
	}
	return evicted
}

// Len returns the number of entries.
func (l *TradeLog) Len() int {
	return len(l.entries)
}

// Capacity returns the maximum number of entries.
func (l *TradeLog) Capacity() int {
	return l.capacity
}

// Entries returns a copy of the entries, newest first.
func (l *TradeLog) Entries() []TradeEntry {
	out := make([]TradeEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
