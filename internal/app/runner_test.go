package app

import (
	"botdash/clients"
	"botdash/config"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestRunner(t *testing.T) (*Runner, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_trades":4,"total_pnl":10,"avg_pnl":2.5,"bot_status":"RUNNING"}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Defaults()
	cfg.Stats.BaseURL = server.URL
	cfg.Socket.URL = server.URL // Socket.IO upgrade fails; the session keeps retrying
	cfg.Socket.ReconnectDelay = 50 * time.Millisecond
	cfg.HealthServer.Enabled = false
	cfg.Alerts.Enabled = false

	return NewRunner(clients.NewClients(zap.NewNop(), cfg), cfg), server
}

func TestNewRunner(t *testing.T) {
	runner, _ := newTestRunner(t)

	if runner.Board() == nil {
		t.Fatal("expected a board")
	}
	if runner.session == nil || runner.session.ID == "" {
		t.Fatal("expected a session with an ID")
	}
	if runner.watcher == nil {
		t.Fatal("expected a status watcher")
	}
}

func TestRunner_RunRefreshesStats(t *testing.T) {
	runner, _ := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for runner.Board().Stats().BotStatus != "RUNNING" {
		if time.Now().After(deadline) {
			cancel()
			t.Fatal("stats were not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := runner.GetStats()
	if stats.SessionID != runner.session.ID {
		t.Errorf("unexpected session id %q", stats.SessionID)
	}
	if stats.Board.BotStatus != "RUNNING" {
		t.Errorf("unexpected board status %q", stats.Board.BotStatus)
	}
	if stats.Refreshes.Total == 0 {
		t.Error("expected at least one refresh")
	}
	if stats.WebSocket.Connected {
		t.Error("socket should not be connected to a plain HTTP server")
	}
	if stats.Notifications.DiscordEnabled || stats.Notifications.TelegramEnabled {
		t.Error("notifications should be disabled")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunner_GetStatsBeforeRun(t *testing.T) {
	runner, _ := newTestRunner(t)

	stats := runner.GetStats()
	if stats.Build.Commit == "" {
		t.Error("expected a build commit")
	}
	if stats.Board.TradeCount != 0 {
		t.Errorf("expected empty board, got %d trades", stats.Board.TradeCount)
	}
	if stats.Runtime.NumCPU == 0 {
		t.Error("expected runtime stats")
	}
}
