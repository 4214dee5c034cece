package app

import (
	clts "botdash/clients"
	"botdash/config"
	"botdash/internal/dashboard"
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
)

// Build info - populated from embedded VCS info at init time
var (
	BuildCommit = "dev"
	BuildTime   = "unknown"
)

func init() {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if setting.Value != "" {
					BuildCommit = setting.Value
				}
			case "vcs.time":
				BuildTime = setting.Value
			}
		}
	}
}

type Runner struct {
	clients      *clts.Clients
	cfg          *config.Config
	board        *dashboard.Board
	session      *Session
	watcher      *StatusWatcher
	healthServer *HealthServer
	startTime    time.Time
}

// ServiceStats holds comprehensive service statistics.
type ServiceStats struct {
	// Build info
	Build struct {
		Commit    string `json:"commit"`
		Time      string `json:"time,omitempty"`
		GoVersion string `json:"go_version"`
	} `json:"build"`

	// Service info
	SessionID string `json:"session_id"`
	StartTime string `json:"start_time"`
	Uptime    string `json:"uptime"`
	UptimeSec int64  `json:"uptime_seconds"`

	// Bot socket stats
	WebSocket struct {
		Connected      bool   `json:"connected"`
		MessageCount   uint64 `json:"message_count"`
		DroppedCount   uint64 `json:"dropped_count"`
		Reconnects     uint64 `json:"reconnects"`
		SocketID       string `json:"socket_id,omitempty"`
		LastMessageAt  string `json:"last_message_at,omitempty"`
		LastMessageAgo string `json:"last_message_ago,omitempty"`
	} `json:"websocket"`

	// Board stats
	Board struct {
		Version        uint64 `json:"version"`
		TradeCount     int    `json:"trade_count"`
		EvictedTrades  int    `json:"evicted_trades"`
		TerminalLines  int    `json:"terminal_lines"`
		BotStatus      string `json:"bot_status"`
		StatsUpdatedAt string `json:"stats_updated_at,omitempty"`
	} `json:"board"`

	// Stats refreshes
	Refreshes struct {
		Total    uint64 `json:"total"`
		Failures uint64 `json:"failures"`
	} `json:"refreshes"`

	// Event type counts (from the bot socket)
	EventTypes    map[string]int `json:"event_types,omitempty"`
	UnknownEvents map[string]int `json:"unknown_events,omitempty"`

	// Status alerts sent
	StatusAlerts int `json:"status_alerts"`

	// Notification status
	Notifications struct {
		DiscordEnabled   bool   `json:"discord_enabled"`
		DiscordChannelID string `json:"discord_channel_id,omitempty"`
		TelegramEnabled  bool   `json:"telegram_enabled"`
		TelegramChatID   string `json:"telegram_chat_id,omitempty"`
	} `json:"notifications"`

	// Runtime stats
	Runtime struct {
		Goroutines int    `json:"goroutines"`
		HeapAlloc  uint64 `json:"heap_alloc"`  // bytes currently allocated on heap
		HeapSys    uint64 `json:"heap_sys"`    // bytes obtained from system for heap
		NumGC      uint32 `json:"num_gc"`      // number of completed GC cycles
		LastGC     string `json:"last_gc"`     // time of last GC
		GoVersion  string `json:"go_version"`  // Go version
		NumCPU     int    `json:"num_cpu"`     // number of CPUs
		GOOS       string `json:"goos"`        // operating system
		GOARCH     string `json:"goarch"`      // architecture
	} `json:"runtime"`
}

func NewRunner(clients *clts.Clients, cfg *config.Config) *Runner {
	board := dashboard.NewBoard(dashboard.BoardOptions{
		TradeLogCapacity: cfg.Board.TradeLogCapacity,
		TerminalMaxLines: cfg.Board.TerminalMaxLines,
	})
	session := NewSession(clients.Logger, clients.BotEvents, clients.Stats, board, cfg)

	return &Runner{
		clients: clients,
		cfg:     cfg,
		board:   board,
		session: session,
		watcher: NewStatusWatcher(clients.Logger, clients.Notifier, session.ID),
	}
}

// Board returns the board the runner renders into.
func (r *Runner) Board() *dashboard.Board {
	return r.board
}

// Refresh forces an immediate stats refresh.
func (r *Runner) Refresh() {
	r.session.Refresh()
}

// Run starts the session and blocks until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()
	logger := r.clients.Logger
	cfg := r.cfg

	logger.Info("starting dashboard",
		zap.String("sessionID", r.session.ID),
		zap.String("commit", BuildCommit),
		zap.Bool("isProd", cfg.IsProd),
		zap.Bool("alertsEnabled", cfg.Alerts.Enabled),
	)

	removeWatcher := r.board.AddObserver(r.watcher)
	defer removeWatcher()

	if err := r.session.Start(ctx); err != nil {
		return err
	}

	// Start health check server if enabled
	if cfg.HealthServer.Enabled {
		r.healthServer = NewHealthServer(logger, r.board, r.GetStats)
		r.healthServer.Start(cfg.HealthServer.Port)
		logger.Info("health server started", zap.Int("port", cfg.HealthServer.Port))
	}

	<-ctx.Done()
	logger.Info("runner shutting down")

	r.session.Stop()
	r.watcher.Wait()

	// Shutdown health server
	if r.healthServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = r.healthServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	return nil
}

func (r *Runner) GetStats() ServiceStats {
	var stats ServiceStats

	// Build info
	stats.Build.Commit = BuildCommit
	stats.Build.Time = BuildTime
	stats.Build.GoVersion = runtime.Version()

	// Service info
	stats.SessionID = r.session.ID
	stats.StartTime = r.startTime.UTC().Format(time.RFC3339)
	uptime := time.Since(r.startTime)
	stats.Uptime = uptime.Round(time.Second).String()
	stats.UptimeSec = int64(uptime.Seconds())

	// Bot socket stats
	stats.WebSocket.Connected = r.session.Connected()
	stats.WebSocket.Reconnects = r.session.Reconnects()
	if r.clients.BotEvents != nil {
		wsStats := r.clients.BotEvents.Stats()
		stats.WebSocket.MessageCount = wsStats.MessageCount
		stats.WebSocket.DroppedCount = wsStats.DroppedCount
		stats.WebSocket.SocketID = wsStats.SessionID
		if !wsStats.LastMessageAt.IsZero() {
			stats.WebSocket.LastMessageAt = wsStats.LastMessageAt.UTC().Format(time.RFC3339)
			stats.WebSocket.LastMessageAgo = time.Since(wsStats.LastMessageAt).Round(time.Second).String()
		}
	}

	// Board stats
	snap := r.board.Snapshot()
	stats.Board.Version = snap.Version
	stats.Board.TradeCount = len(snap.Trades)
	stats.Board.EvictedTrades = r.session.Receiver().EvictedEntries()
	stats.Board.TerminalLines = len(snap.Terminal)
	stats.Board.BotStatus = snap.Stats.BotStatus
	if !snap.StatsUpdatedAt.IsZero() {
		stats.Board.StatsUpdatedAt = snap.StatsUpdatedAt.UTC().Format(time.RFC3339)
	}

	stats.Refreshes.Total, stats.Refreshes.Failures = r.session.Poller().Counts()
	stats.EventTypes = r.session.Receiver().EventTypeCounts()
	stats.UnknownEvents = r.session.Receiver().UnknownEventCounts()
	stats.StatusAlerts = r.watcher.AlertCount()

	// Notification status
	cfg := r.cfg
	stats.Notifications.DiscordEnabled = r.clients.Discord != nil && r.clients.Discord.Enabled()
	if stats.Notifications.DiscordEnabled {
		stats.Notifications.DiscordChannelID = pickEnv(cfg.IsProd, cfg.Discord.ProdChannelID, cfg.Discord.BetaChannelID)
	}
	stats.Notifications.TelegramEnabled = r.clients.Telegram != nil && r.clients.Telegram.Enabled()
	if stats.Notifications.TelegramEnabled {
		stats.Notifications.TelegramChatID = pickEnv(cfg.IsProd, cfg.Telegram.ProdChatID, cfg.Telegram.BetaChatID)
	}

	// Runtime stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats.Runtime.Goroutines = runtime.NumGoroutine()
	stats.Runtime.HeapAlloc = memStats.HeapAlloc
	stats.Runtime.HeapSys = memStats.HeapSys
	stats.Runtime.NumGC = memStats.NumGC
	if memStats.LastGC > 0 {
		stats.Runtime.LastGC = time.Unix(0, int64(memStats.LastGC)).UTC().Format(time.RFC3339)
	}
	stats.Runtime.GoVersion = runtime.Version()
	stats.Runtime.NumCPU = runtime.NumCPU()
	stats.Runtime.GOOS = runtime.GOOS
	stats.Runtime.GOARCH = runtime.GOARCH

	return stats
}
