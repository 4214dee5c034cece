package app

import (
	"botdash/config"
	"botdash/internal/dashboard"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errSessionStarted = errors.New("session already started")

// Session wires the event source and the stats source to a board and owns
// their lifecycle.
type Session struct {
	ID string

	logger    *zap.Logger
	cfg       *config.Config
	events    EventSource
	board     *dashboard.Board
	poller    *StatsPoller
	receiver  *EventReceiver
	scheduler *Scheduler

	mu        sync.Mutex
	started   bool
	stopped   bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	connected  atomic.Bool
	reconnects uint64
}

func NewSession(logger *zap.Logger, events EventSource, stats StatsSource, board *dashboard.Board, cfg *config.Config) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("session_id", id))

	s := &Session{
		ID:        id,
		logger:    logger,
		cfg:       cfg,
		events:    events,
		board:     board,
		poller:    NewStatsPoller(logger, stats, board),
		scheduler: NewScheduler(logger),
		ctx:       context.Background(),
	}
	s.receiver = NewEventReceiver(logger, board, cfg.Board.TimeLayout, s.refreshAfterTrade)
	return s
}

// Start connects the event source, begins consuming events, refreshes the
// stats once and schedules the periodic refresh.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errSessionStarted
	}
	s.started = true
	s.startedAt = time.Now()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("session starting",
		zap.String("socketURL", s.cfg.Socket.URL),
		zap.String("statsURL", s.cfg.Stats.BaseURL),
		zap.Duration("pollInterval", s.cfg.Stats.PollInterval),
		zap.Int("tradeLogCapacity", s.cfg.Board.TradeLogCapacity),
	)

	if err := s.scheduler.Every(s.cfg.Stats.PollInterval, "stats-refresh", func() {
		_ = s.poller.Refresh(s.ctx)
	}); err != nil {
		s.cancel()
		return fmt.Errorf("start session: %w", err)
	}

	if err := s.events.Connect(s.ctx); err != nil {
		s.logger.Warn("failed to connect bot socket, will retry", zap.Error(err))
	} else {
		s.connected.Store(true)
	}

	s.wg.Add(1)
	go s.consume()

	s.poller.RefreshAsync(s.ctx)
	s.scheduler.Start()

	return nil
}

// Stop stops the scheduler, closes the event source and waits for every
// session goroutine. It is safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.logger.Info("session stopping")
	s.cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	s.scheduler.Stop(stopCtx)
	stopCancel()

	if err := s.events.Close(); err != nil {
		s.logger.Warn("failed to close bot socket", zap.Error(err))
	}
	s.connected.Store(false)

	s.wg.Wait()
	s.poller.Wait()
	s.logger.Info("session stopped")
}

// Refresh triggers an out-of-schedule stats refresh.
func (s *Session) Refresh() {
	s.mu.Lock()
	running := s.started && !s.stopped
	s.mu.Unlock()
	if !running {
		return
	}
	s.poller.RefreshAsync(s.ctx)
}

func (s *Session) refreshAfterTrade() {
	s.poller.RefreshAsync(s.ctx)
}

// consume serializes event rendering and reconnects after transport errors.
func (s *Session) consume() {
	defer s.wg.Done()

	if !s.connected.Load() {
		s.reconnect()
	}

	msgCh := s.events.Messages()
	errCh := s.events.Errors()

	for {
		select {
		case <-s.ctx.Done():
			return

		case ev := <-msgCh:
			s.receiver.Handle(ev)

		case err := <-errCh:
			s.logger.Warn("bot socket error", zap.Error(err))
			s.connected.Store(false)
			s.reconnect()
		}
	}
}

// reconnect retries the event source every ReconnectDelay until it connects
// or the session ends.
func (s *Session) reconnect() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.cfg.Socket.ReconnectDelay):
		}

		_ = s.events.Close()
		atomic.AddUint64(&s.reconnects, 1)

		if err := s.events.Connect(s.ctx); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("failed to reconnect bot socket", zap.Error(err))
			continue
		}

		s.connected.Store(true)
		s.logger.Info("bot socket reconnected")
		return
	}
}

// Board returns the session's render target.
func (s *Session) Board() *dashboard.Board {
	return s.board
}

// Receiver returns the session's event receiver.
func (s *Session) Receiver() *EventReceiver {
	return s.receiver
}

// Poller returns the session's stats poller.
func (s *Session) Poller() *StatsPoller {
	return s.poller
}

// Connected reports whether the event source is currently connected.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Reconnects returns the number of reconnect attempts.
func (s *Session) Reconnects() uint64 {
	return atomic.LoadUint64(&s.reconnects)
}

// StartedAt returns when Start was called.
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}
