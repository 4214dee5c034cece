package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"
)

// Event names delivered over the bot's socket.
const (
	EventTerminalOutput = "terminal_output"
	EventTradingUpdate  = "trading_update"
	EventStatus         = "status"
	EventMLUpdate       = "ml_update"
)

// TerminalMessage is one line of bot console output.
type TerminalMessage struct {
	Data string `json:"data"`
}

// TradeUpdate is a single trading event pushed by the bot.
type TradeUpdate struct {
	Pair   string
	Status string
	PnL    optional.Option[float64]
}

// StatusMessage is the greeting the server emits on connect.
type StatusMessage struct {
	Msg string `json:"msg"`
}

var errNullSnapshot = errors.New("stats body is null")

// StatsSnapshot is the body returned by GET /api/stats. Every field is
// optional; absent, null and non-numeric values decode as None.
type StatsSnapshot struct {
	TotalTrades optional.Option[float64]
	TotalPnL    optional.Option[float64]
	AvgPnL      optional.Option[float64]
	BotStatus   optional.Option[string]
}

// ParseTerminalMessage decodes a terminal_output payload. A payload that is
// not an object, or has no string data field, yields an empty line.
func ParseTerminalMessage(raw json.RawMessage) TerminalMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return TerminalMessage{}
	}
	return TerminalMessage{Data: decodeString(fields["data"]).TakeOr("")}
}

// ParseStatusMessage decodes a status payload.
func ParseStatusMessage(raw json.RawMessage) StatusMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return StatusMessage{}
	}
	return StatusMessage{Msg: decodeString(fields["msg"]).TakeOr("")}
}

// CompactPayload renders an event payload as single-line JSON. Anything that
// is not valid JSON yields an empty string.
func CompactPayload(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}

// ParseTradeUpdate decodes a trading_update payload. Missing strings become
// empty and a pnl that is neither a number nor a numeric string is None.
func ParseTradeUpdate(raw json.RawMessage) TradeUpdate {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return TradeUpdate{PnL: optional.None[float64]()}
	}
	return TradeUpdate{
		Pair:   decodeString(fields["pair"]).TakeOr(""),
		Status: decodeString(fields["status"]).TakeOr(""),
		PnL:    decodeNumber(fields["pnl"]),
	}
}

// UnmarshalJSON implements json.Unmarshaler. The body must be a JSON object;
// individual fields are decoded leniently.
func (s *StatsSnapshot) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errNullSnapshot
	}

	s.TotalTrades = decodeNumber(fields["total_trades"])
	s.TotalPnL = decodeNumber(fields["total_pnl"])
	s.AvgPnL = decodeNumber(fields["avg_pnl"])
	s.BotStatus = decodeString(fields["bot_status"])
	return nil
}

// MarshalJSON implements json.Marshaler, omitting None fields.
func (s StatsSnapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4)
	if v, err := s.TotalTrades.Take(); err == nil {
		out["total_trades"] = v
	}
	if v, err := s.TotalPnL.Take(); err == nil {
		out["total_pnl"] = v
	}
	if v, err := s.AvgPnL.Take(); err == nil {
		out["avg_pnl"] = v
	}
	if v, err := s.BotStatus.Take(); err == nil {
		out["bot_status"] = v
	}
	return json.Marshal(out)
}

func decodeNumber(raw json.RawMessage) optional.Option[float64] {
	if len(raw) == 0 || string(raw) == "null" {
		return optional.None[float64]()
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return optional.Some(f)
	}

	// Numbers occasionally arrive as strings.
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return optional.None[float64]()
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return optional.None[float64]()
	}
	return optional.Some(f)
}

func decodeString(raw json.RawMessage) optional.Option[string] {
	if len(raw) == 0 || string(raw) == "null" {
		return optional.None[string]()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return optional.None[string]()
	}
	return optional.Some(s)
}
