package app

import (
	"botdash/internal/dashboard"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader for live board pushes
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsKeepaliveInterval = 5 * time.Second

	// wsTerminalLines caps the terminal tail sent with each /ws push.
	wsTerminalLines = 500
)

// HealthServer serves health checks, service stats and the live board.
type HealthServer struct {
	logger *zap.Logger
	board  *dashboard.Board
	stats  func() ServiceStats

	keepalive     time.Duration
	terminalLines int
	server        *http.Server
}

func NewHealthServer(logger *zap.Logger, board *dashboard.Board, stats func() ServiceStats) *HealthServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthServer{
		logger:    logger,
		board:     board,
		stats:     stats,
		keepalive:     wsKeepaliveInterval,
		terminalLines: wsTerminalLines,
	}
}

// Handler returns the server's routes.
func (h *HealthServer) Handler() http.Handler {
	r := mux.NewRouter()

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// Current board as JSON
	r.HandleFunc("/api/board", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, h.board.Snapshot())
	}).Methods(http.MethodGet)

	// JSON stats endpoint
	r.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		if h.stats == nil {
			http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, h.stats())
	}).Methods(http.MethodGet)

	// WebSocket endpoint for live board updates
	r.HandleFunc("/ws", h.handleWebSocket).Methods(http.MethodGet)

	// HTML dashboard
	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(dashboardHTML))
	}).Methods(http.MethodGet)

	return r
}

// handleWebSocket pushes a snapshot on connect, after every board change and
// on every keepalive tick.
func (h *HealthServer) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Only the latest pending snapshot matters.
	updates := make(chan dashboard.Snapshot, 1)
	remove := h.board.AddObserver(dashboard.ObserverFunc(func(s dashboard.Snapshot) {
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- s:
			default:
			}
		}
	}))
	defer remove()

	// Reader detects client disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	initial := h.board.Snapshot()
	if err := conn.WriteJSON(h.tail(initial)); err != nil {
		return
	}
	lastVersion := initial.Version

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		var snap dashboard.Snapshot
		select {
		case <-gone:
			return
		case <-req.Context().Done():
			return
		case snap = <-updates:
			if snap.Version <= lastVersion {
				continue
			}
		case <-ticker.C:
			snap = h.board.Snapshot()
		}

		lastVersion = snap.Version
		if err := conn.WriteJSON(h.tail(snap)); err != nil {
			return // Client disconnected
		}
	}
}

// tail trims the terminal log to the newest lines so each push stays
// bounded. /api/board still serves the full log.
func (h *HealthServer) tail(s dashboard.Snapshot) dashboard.Snapshot {
	if h.terminalLines > 0 && len(s.Terminal) > h.terminalLines {
		s.Terminal = s.Terminal[len(s.Terminal)-h.terminalLines:]
	}
	return s
}

// Start listens on port in the background.
func (h *HealthServer) Start(port int) {
	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("health server error", zap.Error(err))
		}
	}()
}

// Shutdown stops a started server.
func (h *HealthServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Bot Dashboard</title>
    <style>
        body { background: #0d1117; color: #c9d1d9; font-family: -apple-system, BlinkMacSystemFont, sans-serif; margin: 24px; }
        .stats { display: flex; gap: 24px; margin-bottom: 16px; }
        .stat span { display: block; font-size: 12px; color: #8b949e; }
        .stat b { font-size: 20px; }
        .running { color: #3fb950; }
        .stopped { color: #f85149; }
        .profit { color: #3fb950; }
        .loss { color: #f85149; }
        #terminal { background: #010409; font-family: monospace; height: 280px; overflow-y: auto; padding: 8px; white-space: pre-wrap; }
        #trades { list-style: none; padding: 0; }
        #trades li { padding: 4px 0; border-bottom: 1px solid #21262d; }
    </style>
</head>
<body>
    <div class="stats">
        <div class="stat"><span>Total trades</span><b id="total-trades">-</b></div>
        <div class="stat"><span>Total PnL</span><b id="total-pnl">$-</b></div>
        <div class="stat"><span>Avg PnL</span><b id="avg-pnl">$-</b></div>
        <div class="stat"><span>Status</span><b id="bot-status" class="stopped">UNKNOWN</b></div>
    </div>
    <div id="terminal"></div>
    <ul id="trades"></ul>
    <script>
        function render(s) {
            document.getElementById('total-trades').textContent = s.stats.total_trades;
            document.getElementById('total-pnl').textContent = s.stats.total_pnl;
            document.getElementById('avg-pnl').textContent = s.stats.avg_pnl;
            const status = document.getElementById('bot-status');
            status.textContent = s.stats.bot_status;
            status.className = s.stats.bot_status_class;

            const term = document.getElementById('terminal');
            term.replaceChildren(...(s.terminal || []).map(line => {
                const div = document.createElement('div');
                div.textContent = line;
                return div;
            }));
            term.scrollTop = term.scrollHeight;

            document.getElementById('trades').replaceChildren(...(s.trades || []).map(t => {
                const li = document.createElement('li');
                const pnl = document.createElement('span');
                pnl.className = t.pnl_class;
                pnl.textContent = t.pnl;
                li.append(t.time + ' ' + t.pair + ' ' + t.status + ' ', pnl);
                return li;
            }));
        }

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss' : 'ws';
            const ws = new WebSocket(proto + '://' + location.host + '/ws');
            ws.onmessage = e => render(JSON.parse(e.data));
            ws.onclose = () => setTimeout(connect, 2000);
        }
        connect();
    </script>
</body>
</html>`
