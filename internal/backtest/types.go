// Package backtest simulates capital and position changes from a bar series
// and its per-bar signals, producing a trade ledger, an equity curve, and
// summary performance metrics.
package backtest

import "errors"

// ErrNoTrades means the run executed no entries at all. The equity curve is
// still valid; the metrics block is the explicit zeroed record.
var ErrNoTrades = errors.New("no trades executed")

// ErrNoCompletedTrades means entry signals were seen but no round trip
// completed (e.g. the only entry fell on the final bar and was skipped).
var ErrNoCompletedTrades = errors.New("no completed trades")

// TradeType is the direction of a completed trade.
type TradeType string

const (
	TradeLong  TradeType = "LONG"
	TradeShort TradeType = "SHORT"
)

// Trade is one completed round trip. Immutable once closed.
type Trade struct {
	Type       TradeType `json:"type"`
	EntryTime  int64     `json:"entry_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitTime   int64     `json:"exit_time"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
	Commission float64   `json:"commission_total"` // entry + exit legs
	PnL        float64   `json:"pnl"`
	PnLPct     float64   `json:"pnl_pct"`
}

// EquityPoint is one mark-to-market sample of the account, one per bar.
type EquityPoint struct {
	TS            int64   `json:"timestamp"`
	Capital       float64 `json:"capital"`
	PositionValue float64 `json:"position_value"`
	Equity        float64 `json:"equity"`
}

// Metrics is the immutable summary computed from a completed run.
// Percentages (WinRate, returns, drawdowns) are on a 0–100 scale.
type Metrics struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`

	TotalPnL       float64 `json:"total_pnl"`
	TotalReturnPct float64 `json:"total_return_pct"`
	AvgTradePnL    float64 `json:"avg_trade_pnl"`
	MedianTradePnL float64 `json:"median_trade_pnl"`

	AvgWin      float64 `json:"avg_win"`
	AvgLoss     float64 `json:"avg_loss"`
	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	// ProfitFactor is +Inf when there are wins but zero gross loss.
	ProfitFactor   float64 `json:"profit_factor"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	AvgDrawdownPct float64 `json:"avg_drawdown_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`

	MaxConsecutiveWins   int     `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	Expectancy           float64 `json:"expectancy"`
}

// Result bundles everything one engine run produces.
type Result struct {
	Trades      []Trade       `json:"trades"`
	Equity      []EquityPoint `json:"equity"`
	Metrics     Metrics       `json:"metrics"`
	FinalEquity float64       `json:"final_equity"`
}

// positionState is the engine-internal position state. Exactly one position
// exists per run, owned by the engine and discarded at run end.
type positionState int

const (
	positionFlat positionState = iota
	positionLong
	positionShort
)

type position struct {
	state      positionState
	entryTime  int64
	entryPrice float64
	quantity   float64
	entryFee   float64
}
