package storage

import (
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "modernc.org/sqlite"

	"oml/pkg/common"
)

// SQLiteJournal persists events to a local sqlite database.
type SQLiteJournal struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT,
		kind TEXT,
		input REAL,
		outcome TEXT,
		latency_ns INTEGER,
		ts INTEGER
	);`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("init events table: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
	`); err != nil {
		log.Printf("Warning: failed to set sqlite pragmas: %v", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func (s *SQLiteJournal) Append(e common.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		"INSERT INTO events (id, kind, input, outcome, latency_ns, ts) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, string(e.Kind), e.Input, string(e.Outcome), e.Latency, e.Time,
	)
	return err
}

func (s *SQLiteJournal) Recent(n int) ([]common.Event, error) {
	rows, err := s.db.Query(
		"SELECT seq, id, kind, input, outcome, latency_ns, ts FROM events ORDER BY seq DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []common.Event
	for rows.Next() {
		var e common.Event
		var kind, outcome string
		if err := rows.Scan(&e.Seq, &e.ID, &kind, &e.Input, &outcome, &e.Latency, &e.Time); err != nil {
			return nil, err
		}
		e.Kind = common.RequestKind(kind)
		e.Outcome = common.Outcome(outcome)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query walked newest-first; flip to ascending sequence order.
	for l, r := 0, len(events)-1; l < r; l, r = l+1, r-1 {
		events[l], events[r] = events[r], events[l]
	}
	return events, nil
}

func (s *SQLiteJournal) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count)
	return count, err
}

func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
