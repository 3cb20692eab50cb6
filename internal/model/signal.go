package model

// Signal represents a per-bar trade signal emitted by the signal state machine.
type Signal string

const (
	SignalBuy       Signal = "BUY"
	SignalSell      Signal = "SELL"
	SignalExitLong  Signal = "EXIT_LONG"
	SignalExitShort Signal = "EXIT_SHORT"
	SignalHold      Signal = "HOLD"
)

// Actionable reports whether the signal requests a position change.
// Anything outside the five-symbol alphabet is treated as HOLD downstream,
// so unknown values are simply not actionable.
func (s Signal) Actionable() bool {
	switch s {
	case SignalBuy, SignalSell, SignalExitLong, SignalExitShort:
		return true
	default:
		return false
	}
}
