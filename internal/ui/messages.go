package ui

import "botdash/internal/dashboard"

// BoardMsg carries a fresh board snapshot.
type BoardMsg struct {
	Snapshot dashboard.Snapshot
}
