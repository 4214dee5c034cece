package app

import (
	"botdash/clients/botevents"
	"botdash/internal/dashboard"
	"context"
)

// StatsSource fetches the bot's aggregate stats.
type StatsSource interface {
	GetStats(ctx context.Context) (*dashboard.StatsSnapshot, error)
}

// EventSource delivers the bot's pushed events.
type EventSource interface {
	Connect(ctx context.Context) error
	Messages() <-chan botevents.Event
	Errors() <-chan error
	Close() error
}
