package dashboard

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

const (
	// Placeholder stands in for a missing numeric stat.
	Placeholder = "-"
	// UnknownStatus stands in for a missing bot status.
	UnknownStatus = "UNKNOWN"
	// DefaultTimeLayout renders wall-clock time like an en-US locale time string.
	DefaultTimeLayout = "3:04:05 PM"

	currencyPrefix = "$"
)

// StatsView is the rendered form of a StatsSnapshot, one string per target.
type StatsView struct {
	TotalTrades    string      `json:"total_trades"`
	TotalPnL       string      `json:"total_pnl"`
	AvgPnL         string      `json:"avg_pnl"`
	BotStatus      string      `json:"bot_status"`
	BotStatusClass StatusClass `json:"bot_status_class"`
}

// TradeEntry is a rendered trading update.
type TradeEntry struct {
	Time        string    `json:"time"`
	Pair        string    `json:"pair"`
	Status      string    `json:"status"`
	StatusClass string    `json:"status_class"`
	PnL         string    `json:"pnl"`
	PnLClass    PnLClass  `json:"pnl_class"`
	ReceivedAt  time.Time `json:"received_at"`
}

// FormatStats renders a snapshot. Missing numbers become "-" (or "$-" for
// money) and a missing or empty status becomes UNKNOWN.
func FormatStats(s StatsSnapshot) StatsView {
	status := s.BotStatus.TakeOr("")
	if status == "" {
		status = UnknownStatus
	}

	return StatsView{
		TotalTrades:    formatNumber(s.TotalTrades),
		TotalPnL:       currencyPrefix + formatNumber(s.TotalPnL),
		AvgPnL:         currencyPrefix + formatNumber(s.AvgPnL),
		BotStatus:      status,
		BotStatusClass: ClassifyStatus(s.BotStatus.TakeOr("")),
	}
}

// FormatTrade renders an update received at the given time.
func FormatTrade(u TradeUpdate, at time.Time, layout string) TradeEntry {
	if layout == "" {
		layout = DefaultTimeLayout
	}

	return TradeEntry{
		Time:        at.Format(layout),
		Pair:        u.Pair,
		Status:      strings.ToUpper(u.Status),
		StatusClass: u.Status,
		PnL:         FormatMoney(u.PnL),
		PnLClass:    ClassifyPnL(u.PnL),
		ReceivedAt:  at,
	}
}

// FormatMoney renders pnl with two decimals and a dollar prefix, e.g. $-3.50.
func FormatMoney(pnl optional.Option[float64]) string {
	v, err := pnl.Take()
	if err != nil {
		return currencyPrefix + Placeholder
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return currencyPrefix + Placeholder
	}
	return currencyPrefix + exactDecimal(v).StringFixed(2)
}

// exactDecimal converts v using its binary value rather than its shortest
// decimal form, so 1.005 (stored as 1.00499...) rounds down. Forty digits
// are past any float64 that is not an exact tie at two places.
func exactDecimal(v float64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatFloat(v, 'f', 40, 64))
}

func formatNumber(n optional.Option[float64]) string {
	v, err := n.Take()
	if err != nil {
		return Placeholder
	}
	return decimal.NewFromFloat(v).String()
}
