package report

import (
	"math"
	"strings"
	"testing"

	"momentum-systemv1/internal/backtest"
	"momentum-systemv1/internal/optimize"
)

func TestWriteMetrics(t *testing.T) {
	var sb strings.Builder
	m := backtest.Metrics{
		TotalTrades:   12,
		WinningTrades: 7,
		LosingTrades:  5,
		WinRate:       58.3,
		TotalPnL:      1234.5,
		ProfitFactor:  math.Inf(1),
	}
	WriteMetrics(&sb, m, 10000, 11234.5)

	out := sb.String()
	for _, want := range []string{"Total trades", "12", "inf", "11234.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteTrades(t *testing.T) {
	var sb strings.Builder
	WriteTrades(&sb, nil, 10)
	if !strings.Contains(sb.String(), "no trades") {
		t.Errorf("empty ledger output: %s", sb.String())
	}

	sb.Reset()
	trades := []backtest.Trade{
		{Type: backtest.TradeLong, EntryTime: 1_700_000_000_000, ExitTime: 1_700_000_060_000, PnL: 42},
		{Type: backtest.TradeShort, EntryTime: 1_700_000_120_000, ExitTime: 1_700_000_180_000, PnL: -7},
		{Type: backtest.TradeLong, EntryTime: 1_700_000_240_000, ExitTime: 1_700_000_300_000, PnL: 3},
	}
	WriteTrades(&sb, trades, 2)

	out := sb.String()
	if !strings.Contains(out, "showing last 2 of 3 trades") {
		t.Errorf("limit header missing:\n%s", out)
	}
	if strings.Contains(out, "42.00") {
		t.Errorf("oldest trade should be cut by the limit:\n%s", out)
	}
}

func TestWriteRanking(t *testing.T) {
	var sb strings.Builder
	WriteRanking(&sb, nil, "sharpe_ratio", 5)
	if !strings.Contains(sb.String(), "no viable") {
		t.Errorf("empty ranking output: %s", sb.String())
	}

	sb.Reset()
	points := []optimize.ParameterPoint{
		{Params: map[string]float64{"ma_length": 120, "ntz_threshold": 10}, Score: 1.5},
		{Params: map[string]float64{"ma_length": 60, "ntz_threshold": 5}, Score: 0.9},
	}
	WriteRanking(&sb, points, "sharpe_ratio", 1)

	out := sb.String()
	if !strings.Contains(out, "ma_length=120") {
		t.Errorf("top combination missing:\n%s", out)
	}
	if strings.Contains(out, "ma_length=60") {
		t.Errorf("topN=1 should cut the second point:\n%s", out)
	}
}

func TestWriteWalkForward(t *testing.T) {
	var sb strings.Builder
	res := &optimize.WalkForwardResult{
		Windows: []optimize.Window{
			{Index: 0, TrainStart: 0, TrainEnd: 100, TestStart: 100, TestEnd: 150,
				BestParams: map[string]float64{"ntz_threshold": 10}},
		},
		MeanReturn: 2.5,
		MeanSharpe: 0.8,
	}
	WriteWalkForward(&sb, res)

	out := sb.String()
	if !strings.Contains(out, "[0, 100)") || !strings.Contains(out, "[100, 150)") {
		t.Errorf("window boundaries missing:\n%s", out)
	}
	if !strings.Contains(out, "mean return 2.50%") {
		t.Errorf("aggregate line missing:\n%s", out)
	}
}
