package botevents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Engine.IO v4 packet types.
const (
	engineOpen    = '0'
	engineClose   = '1'
	enginePing    = '2'
	enginePong    = '3'
	engineMessage = '4'
	engineNoop    = '6'
)

// Socket.IO v5 packet types, carried inside engine message packets.
const (
	socketConnect      = '0'
	socketDisconnect   = '1'
	socketEvent        = '2'
	socketAck          = '3'
	socketConnectError = '4'
)

var (
	errNotEvent   = errors.New("not an event packet")
	errEmptyEvent = errors.New("event packet has no name")
)

// handshake is the body of the engine open packet.
type handshake struct {
	SID          string `json:"sid"`
	PingInterval int    `json:"pingInterval"` // ms
	PingTimeout  int    `json:"pingTimeout"`  // ms
}

// connectError is the body of a socket connect error packet.
type connectError struct {
	Message string `json:"message"`
}

// EndpointURL converts the bot's base URL (http, https, ws or wss) into the
// Engine.IO websocket endpoint.
func EndpointURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse socket url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported socket url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("socket url %q has no host", base)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func decodeHandshake(frame []byte) (handshake, error) {
	var h handshake
	if len(frame) == 0 || frame[0] != engineOpen {
		return h, fmt.Errorf("expected open packet, got %q", truncate(frame))
	}
	if err := json.Unmarshal(frame[1:], &h); err != nil {
		return h, fmt.Errorf("decode handshake: %w", err)
	}
	return h, nil
}

// decodeEvent parses a socket event packet body (the part after "42"):
// an optional "/namespace," prefix, an optional ack id, then a JSON array
// whose first element is the event name. Only the first argument is kept.
func decodeEvent(body []byte) (string, json.RawMessage, error) {
	if len(body) > 0 && body[0] == '/' {
		i := bytes.IndexByte(body, ',')
		if i < 0 {
			return "", nil, errNotEvent
		}
		body = body[i+1:]
	}

	i := 0
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		i++
	}
	body = body[i:]

	var args []json.RawMessage
	if err := json.Unmarshal(body, &args); err != nil {
		return "", nil, fmt.Errorf("decode event args: %w", err)
	}
	if len(args) == 0 {
		return "", nil, errEmptyEvent
	}

	var name string
	if err := json.Unmarshal(args[0], &name); err != nil || name == "" {
		return "", nil, errEmptyEvent
	}

	var payload json.RawMessage
	if len(args) > 1 {
		payload = args[1]
	}
	return name, payload, nil
}

func decodeConnectError(body []byte) string {
	var ce connectError
	if err := json.Unmarshal(body, &ce); err == nil && ce.Message != "" {
		return ce.Message
	}
	return string(body)
}

func truncate(b []byte) string {
	const limit = 64
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
