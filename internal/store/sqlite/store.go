// Package sqlite is the historical bar store: a single OHLCV table keyed by
// timestamp, written in batches by the ingestion tooling and read back as
// ordered ranges by the backtesting CLIs.
package sqlite

import (
	"database/sql"
	"fmt"
	"log"

	"momentum-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS ohlcv (
	timestamp INTEGER PRIMARY KEY,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	quote_volume REAL NOT NULL DEFAULT 0,
	trades INTEGER NOT NULL DEFAULT 0,
	taker_buy_base REAL NOT NULL DEFAULT 0,
	taker_buy_quote REAL NOT NULL DEFAULT 0,
	CHECK (high >= low),
	CHECK (volume >= 0)
);
CREATE INDEX IF NOT EXISTS idx_ohlcv_timestamp ON ohlcv(timestamp);
`

const insertBatchSize = 1000

// Store wraps the SQLite OHLCV database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the bar database at path.
// WAL mode keeps concurrent range reads cheap while a writer is batching.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite init schema: %w", err)
	}

	log.Printf("[sqlite] opened %s", path)
	return &Store{db: db}, nil
}

// ReadRange returns bars with startMS <= timestamp <= endMS, ordered ascending.
func (s *Store) ReadRange(startMS, endMS int64) ([]model.Bar, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, open, high, low, close, volume,
		       quote_volume, trades, taker_buy_base, taker_buy_quote
		FROM ohlcv
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, startMS, endMS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query ohlcv: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.TS, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume,
			&b.QuoteVolume, &b.Trades, &b.TakerBuyBase, &b.TakerBuyQuote); err != nil {
			return nil, fmt.Errorf("sqlite scan ohlcv: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// Count returns the number of stored bars.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ohlcv`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite count ohlcv: %w", err)
	}
	return n, nil
}

// Bounds returns the first and last stored timestamps (0, 0 when empty).
func (s *Store) Bounds() (first, last int64, err error) {
	err = s.db.QueryRow(`SELECT COALESCE(MIN(timestamp), 0), COALESCE(MAX(timestamp), 0) FROM ohlcv`).
		Scan(&first, &last)
	if err != nil {
		return 0, 0, fmt.Errorf("sqlite bounds ohlcv: %w", err)
	}
	return first, last, nil
}

// WriteBars upserts bars in transactions of insertBatchSize.
// Re-ingesting an overlapping range replaces the stored rows, so ingestion
// can be re-run without creating duplicates.
func (s *Store) WriteBars(bars []model.Bar) error {
	for off := 0; off < len(bars); off += insertBatchSize {
		end := off + insertBatchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := s.writeBatch(bars[off:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) writeBatch(bars []model.Bar) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO ohlcv
		(timestamp, open, high, low, close, volume,
		 quote_volume, trades, taker_buy_base, taker_buy_quote)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for i := range bars {
		b := &bars[i]
		if _, err := stmt.Exec(b.TS, b.Open, b.High, b.Low, b.Close, b.Volume,
			b.QuoteVolume, b.Trades, b.TakerBuyBase, b.TakerBuyQuote); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert bar %d: %w", b.TS, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
