package dashboard

import "github.com/moznion/go-optional"

// RunningStatus is the only bot_status value rendered as running.
const RunningStatus = "RUNNING"

// StatusClass is the presentation state of the bot status indicator.
type StatusClass string

const (
	StatusRunning StatusClass = "running"
	StatusStopped StatusClass = "stopped"
)

// PnLClass is the presentation state of a trade's profit and loss.
type PnLClass string

const (
	PnLProfit  PnLClass = "profit"
	PnLLoss    PnLClass = "loss"
	PnLUnknown PnLClass = "unknown"
)

// ClassifyStatus maps a raw bot status to its style. The match is exact and
// case-sensitive: "running" is stopped.
func ClassifyStatus(status string) StatusClass {
	if status == RunningStatus {
		return StatusRunning
	}
	return StatusStopped
}

// ClassifyPnL returns profit for pnl >= 0, loss for negative pnl and unknown
// when no numeric pnl was received.
func ClassifyPnL(pnl optional.Option[float64]) PnLClass {
	v, err := pnl.Take()
	if err != nil {
		return PnLUnknown
	}
	if v >= 0 {
		return PnLProfit
	}
	return PnLLoss
}
