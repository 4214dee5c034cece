package botevents

import (
	"errors"
	"strings"
	"testing"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		base     string
		expected string
	}{
		{"http://localhost:8000", "ws://localhost:8000/socket.io/?EIO=4&transport=websocket"},
		{"https://bot.example.com/", "wss://bot.example.com/socket.io/?EIO=4&transport=websocket"},
		{"ws://10.0.0.5:9000/prefix", "ws://10.0.0.5:9000/prefix/socket.io/?EIO=4&transport=websocket"},
		{"wss://bot.example.com", "wss://bot.example.com/socket.io/?EIO=4&transport=websocket"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := EndpointURL(tt.base)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("EndpointURL(%q) = %q, want %q", tt.base, got, tt.expected)
			}
		})
	}
}

func TestEndpointURL_Invalid(t *testing.T) {
	for _, base := range []string{"ftp://bot.example.com", "localhost:8000", "http://", "::"} {
		if _, err := EndpointURL(base); err == nil {
			t.Errorf("expected error for %q", base)
		}
	}
}

func TestDecodeHandshake(t *testing.T) {
	hs, err := decodeHandshake([]byte(`0{"sid":"abc","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hs.SID != "abc" {
		t.Errorf("unexpected sid: %s", hs.SID)
	}
	if hs.PingInterval != 25000 || hs.PingTimeout != 20000 {
		t.Errorf("unexpected ping settings: %+v", hs)
	}

	if _, err := decodeHandshake([]byte(`40`)); err == nil {
		t.Error("expected error for non-open packet")
	}
	if _, err := decodeHandshake([]byte(`0{bad`)); err == nil {
		t.Error("expected error for bad json")
	}
	if _, err := decodeHandshake(nil); err == nil {
		t.Error("expected error for empty frame")
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantName    string
		wantPayload string
	}{
		{
			name:        "trading update",
			body:        `["trading_update",{"pair":"BTC-USD","status":"filled","pnl":1.5}]`,
			wantName:    "trading_update",
			wantPayload: `{"pair":"BTC-USD","status":"filled","pnl":1.5}`,
		},
		{
			name:        "terminal output",
			body:        `["terminal_output",{"data":"hello"}]`,
			wantName:    "terminal_output",
			wantPayload: `{"data":"hello"}`,
		},
		{
			name:     "no payload",
			body:     `["ping_me"]`,
			wantName: "ping_me",
		},
		{
			name:        "with ack id",
			body:        `12["status",{"msg":"hi"}]`,
			wantName:    "status",
			wantPayload: `{"msg":"hi"}`,
		},
		{
			name:        "with namespace",
			body:        `/admin,["status",{"msg":"hi"}]`,
			wantName:    "status",
			wantPayload: `{"msg":"hi"}`,
		},
		{
			name:        "extra args ignored",
			body:        `["terminal_output",{"data":"a"},{"data":"b"}]`,
			wantName:    "terminal_output",
			wantPayload: `{"data":"a"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, payload, err := decodeEvent([]byte(tt.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.wantName {
				t.Errorf("unexpected name: %s", name)
			}
			if string(payload) != tt.wantPayload {
				t.Errorf("unexpected payload: %s", string(payload))
			}
		})
	}
}

func TestDecodeEvent_Invalid(t *testing.T) {
	tests := []struct {
		body    string
		wantErr error
	}{
		{`[]`, errEmptyEvent},
		{`[42,{"a":1}]`, errEmptyEvent},
		{`[""]`, errEmptyEvent},
		{`/admin`, errNotEvent},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			_, _, err := decodeEvent([]byte(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	for _, body := range []string{`{"a":1}`, `garbage`, ``} {
		if _, _, err := decodeEvent([]byte(body)); err == nil {
			t.Errorf("expected error for %q", body)
		}
	}
}

func TestDecodeConnectError(t *testing.T) {
	if got := decodeConnectError([]byte(`{"message":"Not authorized"}`)); got != "Not authorized" {
		t.Errorf("unexpected message: %s", got)
	}
	if got := decodeConnectError([]byte(`"plain"`)); got != `"plain"` {
		t.Errorf("unexpected message: %s", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 100)
	got := truncate([]byte(long))
	if len(got) != 67 || !strings.HasSuffix(got, "...") {
		t.Errorf("unexpected truncation: %q", got)
	}
	if truncate([]byte("short")) != "short" {
		t.Error("short frames should be unchanged")
	}
}
