package config

import (
	"log"
	"os"
	"strconv"

	"momentum-systemv1/internal/backtest"
	"momentum-systemv1/internal/indicator"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Infrastructure
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MetricsAddr   string
	LogLevel      string

	// Strategy defaults (overridable per run via CLI flags)
	SmoothBars   int
	MALength     int
	MAType       string
	NTZThreshold float64
	Lookback     int

	// Simulation defaults
	InitialCapital float64
	Commission     float64
	Slippage       float64
	PositionSize   float64

	// Optimizer
	Parallelism int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		SQLitePath:    getEnv("SQLITE_PATH", "data/bars.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		SmoothBars:   getEnvInt("SMOOTH_BARS", 3),
		MALength:     getEnvInt("MA_LENGTH", 120),
		MAType:       getEnv("MA_TYPE", "EMA"),
		NTZThreshold: getEnvFloat("NTZ_THRESHOLD", 10),
		Lookback:     getEnvInt("SLOPE_LOOKBACK", 500),

		InitialCapital: getEnvFloat("INITIAL_CAPITAL", 10000),
		Commission:     getEnvFloat("COMMISSION", 0.001),
		Slippage:       getEnvFloat("SLIPPAGE", 0.0005),
		PositionSize:   getEnvFloat("POSITION_SIZE", 1.0),

		Parallelism: getEnvInt("OPT_PARALLELISM", 0),
	}
}

// IndicatorParams maps the strategy section onto indicator parameters.
func (c *Config) IndicatorParams() (indicator.Params, error) {
	maType, err := indicator.ParseMAType(c.MAType)
	if err != nil {
		return indicator.Params{}, err
	}
	p := indicator.Params{
		SmoothBars:   c.SmoothBars,
		MALength:     c.MALength,
		MAType:       maType,
		NTZThreshold: c.NTZThreshold,
		Lookback:     c.Lookback,
	}
	if err := p.Validate(); err != nil {
		return indicator.Params{}, err
	}
	return p, nil
}

// EngineConfig maps the simulation section onto a backtest configuration.
func (c *Config) EngineConfig() (backtest.Config, error) {
	cfg := backtest.Config{
		InitialCapital: c.InitialCapital,
		Commission:     c.Commission,
		Slippage:       c.Slippage,
		PositionSize:   c.PositionSize,
	}
	if err := cfg.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
