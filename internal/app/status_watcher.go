package app

import (
	"botdash/clients/notifier"
	"botdash/internal/dashboard"
	"sync"
	"time"

	"go.uber.org/zap"
)

var _ dashboard.BoardObserver = (*StatusWatcher)(nil)

// StatusWatcher sends an alert whenever the bot status class flips between
// running and stopped. The first applied stats only set the baseline.
type StatusWatcher struct {
	logger    *zap.Logger
	notifier  notifier.Notifier
	sessionID string
	now       func() time.Time

	mu          sync.Mutex
	seen        bool
	lastVersion uint64
	lastClass   dashboard.StatusClass
	lastStatus  string
	alertCount  int

	wg sync.WaitGroup
}

func NewStatusWatcher(logger *zap.Logger, n notifier.Notifier, sessionID string) *StatusWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusWatcher{
		logger:    logger,
		notifier:  n,
		sessionID: sessionID,
		now:       time.Now,
	}
}

// OnBoardUpdate implements dashboard.BoardObserver.
func (w *StatusWatcher) OnBoardUpdate(s dashboard.Snapshot) {
	if s.StatsUpdatedAt.IsZero() {
		return
	}

	w.mu.Lock()
	if s.Version <= w.lastVersion {
		w.mu.Unlock()
		return
	}
	w.lastVersion = s.Version

	class := s.Stats.BotStatusClass
	if !w.seen {
		w.seen = true
		w.lastClass = class
		w.lastStatus = s.Stats.BotStatus
		w.mu.Unlock()
		w.logger.Info("bot status baseline", zap.String("status", s.Stats.BotStatus))
		return
	}
	if class == w.lastClass {
		w.lastStatus = s.Stats.BotStatus
		w.mu.Unlock()
		return
	}

	alert := notifier.StatusAlert{
		Reason:         notifier.AlertReasonBotStopped,
		PreviousStatus: w.lastStatus,
		Status:         s.Stats.BotStatus,
		TotalTrades:    s.Stats.TotalTrades,
		TotalPnL:       s.Stats.TotalPnL,
		AvgPnL:         s.Stats.AvgPnL,
		SessionID:      w.sessionID,
		Timestamp:      w.now(),
	}
	if class == dashboard.StatusRunning {
		alert.Reason = notifier.AlertReasonBotStarted
	}
	w.lastClass = class
	w.lastStatus = s.Stats.BotStatus
	w.alertCount++
	w.mu.Unlock()

	w.logger.Info("bot status changed",
		zap.String("from", alert.PreviousStatus),
		zap.String("to", alert.Status),
		zap.String("reason", string(alert.Reason)),
	)

	if w.notifier == nil {
		return
	}
	// Notifiers do network I/O; keep it off the mutating goroutine.
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.notifier.SendStatusAlert(alert)
	}()
}

// AlertCount returns the number of transitions seen.
func (w *StatusWatcher) AlertCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alertCount
}

// Wait blocks until every dispatched alert has been handed to the notifier.
func (w *StatusWatcher) Wait() {
	w.wg.Wait()
}
