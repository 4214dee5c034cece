package botevents

import (
	"botdash/config"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// defaultPingTimeout matches the Engine.IO default pingInterval plus pingTimeout.
const defaultPingTimeout = 45 * time.Second

var (
	errServerClosed = errors.New("server closed the engine session")
	errDisconnected = errors.New("server disconnected the socket")
)

// Event is a named Socket.IO event pushed by the bot.
type Event struct {
	Name       string
	Payload    json.RawMessage
	ReceivedAt time.Time
}

type WSStats struct {
	MessageCount   uint64
	DroppedCount   uint64
	LastMessageAt  time.Time
	SessionID      string
	ReadTimeout    time.Duration
	ConnectedSince time.Time
}

type BotEventsClient struct {
	logger *zap.Logger

	baseURL     string
	dialer      *websocket.Dialer
	pingTimeout time.Duration

	connMu         sync.Mutex
	writeMu        sync.Mutex
	conn           *websocket.Conn
	sid            string
	readTimeout    time.Duration
	connectedSince time.Time

	msgCh   chan Event
	errCh   chan error
	closeCh chan struct{}

	msgCount        uint64
	dropCount       uint64
	lastMsgUnixNano int64
}

func NewBotEventsClient(logger *zap.Logger, cfg *config.Config) *BotEventsClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	pingTimeout := cfg.Socket.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = defaultPingTimeout
	}

	return &BotEventsClient{
		logger:      logger,
		baseURL:     cfg.Socket.URL,
		dialer:      websocket.DefaultDialer,
		pingTimeout: pingTimeout,

		msgCh:   make(chan Event, 1024),
		errCh:   make(chan error, 64),
		closeCh: make(chan struct{}),
	}
}

// Connect dials the bot's Socket.IO endpoint, completes the Engine.IO
// handshake and joins the default namespace. Events are delivered on
// Messages until the connection drops, Close is called or ctx is done.
func (c *BotEventsClient) Connect(ctx context.Context) error {
	c.connMu.Lock()
	alreadyConnected := c.conn != nil
	c.connMu.Unlock()
	if alreadyConnected {
		return fmt.Errorf("already connected")
	}

	endpoint, err := EndpointURL(c.baseURL)
	if err != nil {
		return err
	}

	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial bot socket: %w", err)
	}

	c.logger.Info("bot socket dialed", zap.String("url", endpoint))

	conn.SetCloseHandler(func(code int, text string) error {
		c.logger.Warn(
			"bot socket close frame received",
			zap.Int("code", code),
			zap.String("reason", text),
		)
		return nil
	})

	hs, readTimeout, err := c.handshake(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	c.connMu.Lock()
	c.conn = conn
	c.sid = hs.SID
	c.readTimeout = readTimeout
	c.connectedSince = time.Now()
	done := c.closeCh
	c.connMu.Unlock()

	c.logger.Info(
		"bot socket connected",
		zap.String("sid", hs.SID),
		zap.Duration("read_timeout", readTimeout),
	)

	go c.readLoop(conn, readTimeout, done)

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()

	return nil
}

// handshake reads the engine open packet, sends the namespace connect and
// waits for the server's acknowledgement.
func (c *BotEventsClient) handshake(conn *websocket.Conn) (handshake, time.Duration, error) {
	_ = conn.SetReadDeadline(time.Now().Add(c.pingTimeout))

	_, frame, err := conn.ReadMessage()
	if err != nil {
		return handshake{}, 0, fmt.Errorf("read open packet: %w", err)
	}
	hs, err := decodeHandshake(frame)
	if err != nil {
		return handshake{}, 0, err
	}

	readTimeout := c.pingTimeout
	if hs.PingInterval > 0 && hs.PingTimeout > 0 {
		readTimeout = time.Duration(hs.PingInterval+hs.PingTimeout) * time.Millisecond
	}

	if err := c.writeTo(conn, string([]byte{engineMessage, socketConnect})); err != nil {
		return handshake{}, 0, fmt.Errorf("send namespace connect: %w", err)
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return handshake{}, 0, fmt.Errorf("await namespace ack: %w", err)
		}
		if len(frame) >= 2 && frame[0] == engineMessage {
			switch frame[1] {
			case socketConnect:
				return hs, readTimeout, nil
			case socketConnectError:
				return handshake{}, 0, fmt.Errorf("namespace connect refused: %s", decodeConnectError(frame[2:]))
			}
		}
		if err := c.handleFrame(conn, frame); err != nil {
			return handshake{}, 0, err
		}
	}
}

func (c *BotEventsClient) Messages() <-chan Event {
	return c.msgCh
}

func (c *BotEventsClient) Errors() <-chan error {
	return c.errCh
}

func (c *BotEventsClient) Stats() WSStats {
	n := atomic.LoadUint64(&c.msgCount)
	dropped := atomic.LoadUint64(&c.dropCount)
	ns := atomic.LoadInt64(&c.lastMsgUnixNano)

	var t time.Time
	if ns > 0 {
		t = time.Unix(0, ns)
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	return WSStats{
		MessageCount:   n,
		DroppedCount:   dropped,
		LastMessageAt:  t,
		SessionID:      c.sid,
		ReadTimeout:    c.readTimeout,
		ConnectedSince: c.connectedSince,
	}
}

// Connected reports whether a socket session is open.
func (c *BotEventsClient) Connected() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

func (c *BotEventsClient) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	// Signal goroutines to stop by closing closeCh
	select {
	case <-c.closeCh:
		// Channel was already closed
	default:
		close(c.closeCh)
	}

	// Create fresh channel for potential reconnection
	c.closeCh = make(chan struct{})

	var err error
	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.TextMessage, []byte{engineMessage, socketDisconnect})
		c.writeMu.Unlock()

		err = c.conn.Close()
		c.conn = nil
		c.sid = ""
		c.connectedSince = time.Time{}
	}

	return err
}

func (c *BotEventsClient) writeTo(conn *websocket.Conn, packet string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return conn.WriteMessage(websocket.TextMessage, []byte(packet))
}

func (c *BotEventsClient) readLoop(conn *websocket.Conn, readTimeout time.Duration, done <-chan struct{}) {
	c.logger.Info("bot socket read loop started")

	first := true

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, b, err := conn.ReadMessage()
		if err == nil {
			err = c.handleFrame(conn, b)
		}
		if err != nil {
			select {
			case <-done:
				c.logger.Info("bot socket read loop exiting: closed")
				return
			default:
			}

			c.logger.Warn("bot socket read loop exiting", zap.Error(err))
			// Close before reporting so a reconnect never races this session.
			_ = c.Close()
			select {
			case c.errCh <- err:
			default:
			}
			return
		}

		if first {
			first = false
			c.logger.Info(
				"bot socket received first frame",
				zap.Int("bytes", len(b)),
				zap.ByteString("frame", b),
			)
		}
	}
}

// handleFrame processes one Engine.IO packet. A non-nil error ends the
// session.
func (c *BotEventsClient) handleFrame(conn *websocket.Conn, b []byte) error {
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case enginePing:
		return c.writeTo(conn, string([]byte{enginePong}))
	case enginePong, engineNoop:
		return nil
	case engineClose:
		return errServerClosed
	case engineMessage:
		return c.handleSocketPacket(b[1:])
	default:
		c.logger.Debug("bot socket ignoring engine packet", zap.String("frame", truncate(b)))
		return nil
	}
}

func (c *BotEventsClient) handleSocketPacket(b []byte) error {
	if len(b) == 0 {
		return nil
	}

	switch b[0] {
	case socketEvent:
		name, payload, err := decodeEvent(b[1:])
		if err != nil {
			c.logger.Warn(
				"bot socket bad event packet",
				zap.Error(err),
				zap.String("frame", truncate(b)),
			)
			return nil
		}
		c.forward(Event{Name: name, Payload: payload, ReceivedAt: time.Now()})
		return nil
	case socketDisconnect:
		return errDisconnected
	case socketConnectError:
		return fmt.Errorf("namespace connect error: %s", decodeConnectError(b[1:]))
	case socketConnect, socketAck:
		return nil
	default:
		c.logger.Debug("bot socket ignoring socket packet", zap.String("frame", truncate(b)))
		return nil
	}
}

func (c *BotEventsClient) forward(ev Event) {
	atomic.AddUint64(&c.msgCount, 1)
	atomic.StoreInt64(&c.lastMsgUnixNano, ev.ReceivedAt.UnixNano())

	select {
	case c.msgCh <- ev:
	default:
		atomic.AddUint64(&c.dropCount, 1)
		c.logger.Warn("dropping bot event: msgCh full", zap.String("event", ev.Name))
	}
}
