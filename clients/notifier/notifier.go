package notifier

import (
	"time"
)

// AlertReason indicates why an alert was triggered.
type AlertReason string

const (
	AlertReasonBotStopped AlertReason = "bot_stopped" // Status left RUNNING
	AlertReasonBotStarted AlertReason = "bot_started" // Status became RUNNING
)

// StatusAlert contains all the data needed for a bot status notification.
type StatusAlert struct {
	Reason AlertReason

	// Raw bot_status text before and after the transition
	PreviousStatus string
	Status         string

	// Rendered stats at the time of the transition
	TotalTrades string
	TotalPnL    string
	AvgPnL      string

	// Alert metadata
	SessionID string
	Timestamp time.Time
}

// Running reports whether the alert announces a running bot.
func (a StatusAlert) Running() bool {
	return a.Reason == AlertReasonBotStarted
}

// Notifier is the interface for sending status alerts to various channels.
type Notifier interface {
	// SendStatusAlert sends a status alert notification.
	SendStatusAlert(alert StatusAlert)

	// Close cleans up any resources.
	Close() error
}

// MultiNotifier broadcasts alerts to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a new MultiNotifier with the given notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	// Filter out nil notifiers
	var active []Notifier
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &MultiNotifier{notifiers: active}
}

// SendStatusAlert sends the alert to all registered notifiers.
func (m *MultiNotifier) SendStatusAlert(alert StatusAlert) {
	for _, n := range m.notifiers {
		n.SendStatusAlert(alert)
	}
}

// Close closes all registered notifiers.
func (m *MultiNotifier) Close() error {
	var lastErr error
	for _, n := range m.notifiers {
		if err := n.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active notifiers.
func (m *MultiNotifier) Count() int {
	return len(m.notifiers)
}
