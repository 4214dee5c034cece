package app

import (
	"botdash/clients/botevents"
	"botdash/clients/notifier"
	"botdash/config"
	"botdash/internal/dashboard"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/moznion/go-optional"
)

// fakeEventSource is an in-memory EventSource.
type fakeEventSource struct {
	mu          sync.Mutex
	connectErrs []error
	connects    int
	closes      int

	msgCh chan botevents.Event
	errCh chan error
}

func newFakeEventSource(connectErrs ...error) *fakeEventSource {
	return &fakeEventSource{
		connectErrs: connectErrs,
		msgCh:       make(chan botevents.Event, 16),
		errCh:       make(chan error, 4),
	}
}

func (f *fakeEventSource) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	if len(f.connectErrs) > 0 {
		err := f.connectErrs[0]
		f.connectErrs = f.connectErrs[1:]
		return err
	}
	return nil
}

func (f *fakeEventSource) Messages() <-chan botevents.Event { return f.msgCh }
func (f *fakeEventSource) Errors() <-chan error            { return f.errCh }

func (f *fakeEventSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeEventSource) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeEventSource) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeEventSource) push(name, payload string) {
	f.msgCh <- botevents.Event{Name: name, Payload: json.RawMessage(payload), ReceivedAt: time.Now()}
}

// recordingNotifier captures alerts.
type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notifier.StatusAlert
}

func (n *recordingNotifier) SendStatusAlert(alert notifier.StatusAlert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) Alerts() []notifier.StatusAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifier.StatusAlert, len(n.alerts))
	copy(out, n.alerts)
	return out
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Stats.PollInterval = time.Hour
	cfg.Socket.ReconnectDelay = 10 * time.Millisecond
	cfg.HealthServer.Enabled = false
	return cfg
}

func newTestBoard() *dashboard.Board {
	return dashboard.NewBoard(dashboard.BoardOptions{TradeLogCapacity: 50})
}

func snapshotOf(trades, pnl, avg float64, status string) *dashboard.StatsSnapshot {
	return &dashboard.StatsSnapshot{
		TotalTrades: optional.Some(trades),
		TotalPnL:    optional.Some(pnl),
		AvgPnL:      optional.Some(avg),
		BotStatus:   optional.Some(status),
	}
}
