// Package store persists daily bars and ranking runs in a local SQLite file.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"setuplab/pkg/model"
)

// ErrNotFound is returned when a list or ticker has no stored bars
var ErrNotFound = errors.New("not found")

const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	list   TEXT NOT NULL,
	ticker TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume INTEGER NOT NULL,
	PRIMARY KEY (list, ticker, date)
);
CREATE TABLE IF NOT EXISTS rankings (
	run_id     TEXT NOT NULL,
	created_at TEXT NOT NULL,
	list       TEXT NOT NULL,
	setup      TEXT NOT NULL,
	position   INTEGER NOT NULL,
	ticker     TEXT NOT NULL,
	score      REAL NOT NULL,
	payload    TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS rankings_list_setup ON rankings (list, setup, created_at);
`

// Store is the bar cache. Safe for concurrent use; writes are serialised
// by a single connection.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceBars swaps every stored bar of (list, ticker) for bars
func (s *Store) ReplaceBars(ctx context.Context, list, ticker string, bars []model.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bars WHERE list = ? AND ticker = ?`, list, ticker); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", list, ticker, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO bars
		(list, ticker, date, open, high, low, close, volume) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, list, ticker, b.Time.Format(dateLayout),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("inserting %s/%s %s: %w", list, ticker, b.DateKey(), err)
		}
	}
	return tx.Commit()
}

// Bars returns the stored bars of (list, ticker) in [start, end], ascending.
// Zero start or end leaves that side open. ErrNotFound when nothing matches.
func (s *Store) Bars(ctx context.Context, list, ticker string, start, end time.Time) ([]model.Candle, error) {
	query := `SELECT date, open, high, low, close, volume FROM bars WHERE list = ? AND ticker = ?`
	args := []any{list, ticker}
	if !start.IsZero() {
		query += ` AND date >= ?`
		args = append(args, start.Format(dateLayout))
	}
	if !end.IsZero() {
		query += ` AND date <= ?`
		args = append(args, end.Format(dateLayout))
	}
	query += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s/%s: %w", list, ticker, err)
	}
	defer rows.Close()

	var out []model.Candle
	for rows.Next() {
		var (
			date string
			c    model.Candle
		)
		if err := rows.Scan(&date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scanning bar: %w", err)
		}
		c.Time, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("bad date %q: %w", date, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s/%s: %w", list, ticker, ErrNotFound)
	}
	return out, nil
}

// Lists returns the names of lists with stored bars
func (s *Store) Lists(ctx context.Context) ([]string, error) {
	return s.strings(ctx, `SELECT DISTINCT list FROM bars ORDER BY list`)
}

// Tickers returns the tickers stored for list
func (s *Store) Tickers(ctx context.Context, list string) ([]string, error) {
	return s.strings(ctx, `SELECT DISTINCT ticker FROM bars WHERE list = ? ORDER BY ticker`, list)
}

func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LastDate returns the most recent stored date of (list, ticker)
func (s *Store) LastDate(ctx context.Context, list, ticker string) (time.Time, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM bars WHERE list = ? AND ticker = ?`, list, ticker).Scan(&date)
	if err != nil {
		return time.Time{}, err
	}
	if !date.Valid {
		return time.Time{}, fmt.Errorf("%s/%s: %w", list, ticker, ErrNotFound)
	}
	return time.Parse(dateLayout, date.String)
}

// ListSummary describes what is stored for one list
type ListSummary struct {
	List    string    `json:"list"`
	Tickers int       `json:"tickers"`
	Bars    int       `json:"bars"`
	First   time.Time `json:"first"`
	Last    time.Time `json:"last"`
}

// Summary returns per-list counts and date spans
func (s *Store) Summary(ctx context.Context) ([]ListSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT list, COUNT(DISTINCT ticker), COUNT(*), MIN(date), MAX(date)
		FROM bars GROUP BY list ORDER BY list`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListSummary
	for rows.Next() {
		var ls ListSummary
		var first, last string
		if err := rows.Scan(&ls.List, &ls.Tickers, &ls.Bars, &first, &last); err != nil {
			return nil, err
		}
		ls.First, _ = time.Parse(dateLayout, first)
		ls.Last, _ = time.Parse(dateLayout, last)
		out = append(out, ls)
	}
	return out, rows.Err()
}

// RankingEntry is one ranked ticker with its serialised detail
type RankingEntry struct {
	Ticker  string
	Score   float64
	Payload []byte // JSON
}

// RankingRun is a stored ranking
type RankingRun struct {
	ID        string
	CreatedAt time.Time
	List      string
	Setup     string
	Entries   []RankingEntry
}

// SaveRanking stores entries, in order, as a new run and returns its ID
func (s *Store) SaveRanking(ctx context.Context, list, setup string, entries []RankingEntry) (string, error) {
	id := uuid.New().String()
	created := s.now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i, e := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO rankings
			(run_id, created_at, list, setup, position, ticker, score, payload) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, created, list, setup, i, e.Ticker, e.Score, string(e.Payload)); err != nil {
			return "", fmt.Errorf("inserting ranking: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// LatestRanking returns the most recent run for (list, setup)
func (s *Store) LatestRanking(ctx context.Context, list, setup string) (*RankingRun, error) {
	var id, created string
	err := s.db.QueryRowContext(ctx, `SELECT run_id, created_at FROM rankings
		WHERE list = ? AND setup = ? ORDER BY created_at DESC LIMIT 1`, list, setup).Scan(&id, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ranking %s/%s: %w", list, setup, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	run := &RankingRun{ID: id, List: list, Setup: setup}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)

	rows, err := s.db.QueryContext(ctx, `SELECT ticker, score, payload FROM rankings
		WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var e RankingEntry
		var payload string
		if err := rows.Scan(&e.Ticker, &e.Score, &payload); err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		run.Entries = append(run.Entries, e)
	}
	return run, rows.Err()
}
