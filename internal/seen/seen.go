// Package seen tracks which videos the watch command has already
// relayed, so a notification fires once per video across runs.
package seen

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &Store{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS notified (
			video_id    TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			notified_at DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// Filter returns the subset of ids that have not been notified yet,
// preserving order.
func (s *Store) Filter(ids []string) ([]string, error) {
	var unseen []string
	for _, id := range ids {
		var one int
		err := s.readDB.QueryRow(
			"SELECT 1 FROM notified WHERE video_id = ?", id).Scan(&one)
		switch {
		case err == sql.ErrNoRows:
			unseen = append(unseen, id)
		case err != nil:
			return nil, fmt.Errorf("checking %s: %w", id, err)
		}
	}
	return unseen, nil
}

// Mark records that a notification went out for the video. Marking the
// same id again just refreshes the timestamp.
func (s *Store) Mark(videoID, title string) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO notified (video_id, title, notified_at) VALUES (?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			notified_at = excluded.notified_at
	`, videoID, title, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("marking %s: %w", videoID, err)
	}
	return nil
}

// Count reports how many videos have been notified so far.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.readDB.QueryRow("SELECT COUNT(*) FROM notified").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting notified: %w", err)
	}
	return n, nil
}
