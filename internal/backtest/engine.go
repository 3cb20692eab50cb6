package backtest

import (
	"fmt"

	"momentum-systemv1/internal/model"
)

// Config holds the engine's cost and sizing model.
type Config struct {
	InitialCapital float64 // starting capital, > 0
	Commission     float64 // fraction of notional per leg, >= 0 (0.001 = 0.1%)
	Slippage       float64 // fraction of price per fill, >= 0
	PositionSize   float64 // fraction of capital committed per entry, (0, 1]
}

// DefaultConfig mirrors the reference engine defaults.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 10000,
		Commission:     0.001,
		Slippage:       0.0005,
		PositionSize:   1.0,
	}
}

// Validate checks the cost model ranges.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return model.NewConfigError("initial_capital", "must be > 0, got %g", c.InitialCapital)
	}
	if c.Commission < 0 {
		return model.NewConfigError("commission", "must be >= 0, got %g", c.Commission)
	}
	if c.Slippage < 0 {
		return model.NewConfigError("slippage", "must be >= 0, got %g", c.Slippage)
	}
	if c.PositionSize <= 0 || c.PositionSize > 1 {
		return model.NewConfigError("position_size", "must be in (0, 1], got %g", c.PositionSize)
	}
	return nil
}

// Engine runs a single backtest. One engine owns one position, one trade
// ledger, and one equity curve for the duration of a run; nothing is shared.
type Engine struct {
	cfg Config
}

// New creates an engine with a validated config.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Run simulates the signal sequence against the bar series.
//
// Entries debit capital (longs debit the full notional; shorts debit only the
// entry commission — cash is not reserved against margin). Every bar appends
// an equity point marked at the bar close. A position still open after the
// final bar is force-closed at that bar's close, so every run ends flat.
//
// An entry signal on the final bar is ignored: force-closing it on the same
// bar would produce a trade with exit_time == entry_time.
//
// Returns ErrNoTrades / ErrNoCompletedTrades alongside the partial result
// when the ledger is empty; callers must branch before reading Metrics.
func (e *Engine) Run(bars []model.Bar, signals []model.Signal) (*Result, error) {
	if len(signals) != len(bars) {
		return nil, fmt.Errorf("backtest: %d signals for %d bars", len(signals), len(bars))
	}

	capital := e.cfg.InitialCapital
	pos := position{state: positionFlat}
	res := &Result{
		Trades: []Trade{},
		Equity: make([]EquityPoint, 0, len(bars)),
	}
	sawEntry := false
	lastIdx := len(bars) - 1

	for i := range bars {
		price := bars[i].Close
		ts := bars[i].TS

		switch signals[i] {
		case model.SignalBuy:
			switch pos.state {
			case positionFlat:
				sawEntry = true
				if i < lastIdx {
					capital = e.enterLong(&pos, capital, price, ts)
				}
			case positionShort:
				capital = e.exitShort(res, &pos, capital, price, ts)
			}
		case model.SignalSell:
			switch pos.state {
			case positionFlat:
				sawEntry = true
				if i < lastIdx {
					capital = e.enterShort(&pos, capital, price, ts)
				}
			case positionLong:
				capital = e.exitLong(res, &pos, capital, price, ts)
			}
		case model.SignalExitLong:
			if pos.state == positionLong {
				capital = e.exitLong(res, &pos, capital, price, ts)
			}
		case model.SignalExitShort:
			if pos.state == positionShort {
				capital = e.exitShort(res, &pos, capital, price, ts)
			}
		default:
			// HOLD and anything outside the signal alphabet: no action.
		}

		res.Equity = append(res.Equity, EquityPoint{
			TS:            ts,
			Capital:       capital,
			PositionValue: markToMarket(&pos, price),
			Equity:        capital + markToMarket(&pos, price),
		})
	}

	// Force-close whatever is still open at the final close.
	if len(bars) > 0 && pos.state != positionFlat {
		price := bars[lastIdx].Close
		ts := bars[lastIdx].TS
		if pos.state == positionLong {
			capital = e.exitLong(res, &pos, capital, price, ts)
		} else {
			capital = e.exitShort(res, &pos, capital, price, ts)
		}
		res.Equity[lastIdx] = EquityPoint{
			TS:      ts,
			Capital: capital,
			Equity:  capital,
		}
	}

	if len(res.Equity) > 0 {
		res.FinalEquity = res.Equity[len(res.Equity)-1].Equity
	} else {
		res.FinalEquity = capital
	}
	res.Metrics = Analyze(res.Trades, res.Equity, e.cfg.InitialCapital)

	if len(res.Trades) == 0 {
		if sawEntry {
			return res, ErrNoCompletedTrades
		}
		return res, ErrNoTrades
	}
	return res, nil
}

func (e *Engine) enterLong(pos *position, capital, price float64, ts int64) float64 {
	buyPrice := price * (1 + e.cfg.Slippage)
	notional := capital * e.cfg.PositionSize
	fee := notional * e.cfg.Commission

	pos.state = positionLong
	pos.entryTime = ts
	pos.entryPrice = buyPrice
	pos.quantity = (notional - fee) / buyPrice
	pos.entryFee = fee
	return capital - notional
}

func (e *Engine) exitLong(res *Result, pos *position, capital, price float64, ts int64) float64 {
	sellPrice := price * (1 - e.cfg.Slippage)
	proceeds := pos.quantity * sellPrice
	fee := proceeds * e.cfg.Commission

	pnl := proceeds - fee - pos.quantity*pos.entryPrice - pos.entryFee
	res.Trades = append(res.Trades, Trade{
		Type:       TradeLong,
		EntryTime:  pos.entryTime,
		EntryPrice: pos.entryPrice,
		ExitTime:   ts,
		ExitPrice:  sellPrice,
		Quantity:   pos.quantity,
		Commission: pos.entryFee + fee,
		PnL:        pnl,
		PnLPct:     (sellPrice/pos.entryPrice - 1) * 100,
	})

	capital += proceeds - fee
	*pos = position{state: positionFlat}
	return capital
}

func (e *Engine) enterShort(pos *position, capital, price float64, ts int64) float64 {
	sellPrice := price * (1 - e.cfg.Slippage)
	notional := capital * e.cfg.PositionSize
	fee := notional * e.cfg.Commission

	pos.state = positionShort
	pos.entryTime = ts
	pos.entryPrice = sellPrice
	pos.quantity = (notional - fee) / sellPrice
	pos.entryFee = fee
	// Shorts do not reserve cash against margin; only the entry commission
	// leaves the account here.
	return capital - fee
}

func (e *Engine) exitShort(res *Result, pos *position, capital, price float64, ts int64) float64 {
	buyPrice := price * (1 + e.cfg.Slippage)
	fee := pos.quantity * buyPrice * e.cfg.Commission

	delta := pos.quantity * (pos.entryPrice - buyPrice)
	pnl := delta - fee - pos.entryFee
	res.Trades = append(res.Trades, Trade{
		Type:       TradeShort,
		EntryTime:  pos.entryTime,
		EntryPrice: pos.entryPrice,
		ExitTime:   ts,
		ExitPrice:  buyPrice,
		Quantity:   pos.quantity,
		Commission: pos.entryFee + fee,
		PnL:        pnl,
		PnLPct:     (pos.entryPrice/buyPrice - 1) * 100,
	})

	capital += delta - fee
	*pos = position{state: positionFlat}
	return capital
}

// markToMarket values the open position at the given close price.
// Longs are worth quantity·close; shorts carry their unrealized price delta.
func markToMarket(pos *position, close float64) float64 {
	switch pos.state {
	case positionLong:
		return pos.quantity * close
	case positionShort:
		return pos.quantity * (pos.entryPrice - close)
	default:
		return 0
	}
}
