package submitter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Journal records every scrobble the remote API accepted, keyed by
// (artist, title, timestamp). Replaying a log a second time submits
// only the entries the journal has not seen, so a run that died halfway
// through a batch can be rerun without double-submitting the head.
type Journal struct {
	db *sql.DB
}

// Submission is one journal row.
type Submission struct {
	ID          int64
	Artist      string
	Title       string
	Album       string
	Timestamp   time.Time // adjusted time sent to the API
	SubmittedAt time.Time
}

// NewJournal opens (and if needed creates) the journal database.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps in-memory databases coherent and is plenty
	// for a single-instance CLI.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS submissions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			artist TEXT NOT NULL,
			title TEXT NOT NULL,
			album TEXT,
			timestamp INTEGER NOT NULL,
			submitted_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
			UNIQUE(artist, title, timestamp)
		);

		CREATE INDEX IF NOT EXISTS idx_submissions_timestamp ON submissions(timestamp);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Contains reports whether a submission with this natural key has
// already been recorded.
func (j *Journal) Contains(ctx context.Context, artist, title string, timestamp time.Time) (bool, error) {
	var n int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM submissions WHERE artist = ? AND title = ? AND timestamp = ?",
		artist, title, timestamp.Unix(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query journal: %w", err)
	}
	return n > 0, nil
}

// Record inserts accepted submissions in one transaction. Rows that
// collide with an existing natural key are ignored rather than erroring;
// recording the same listen twice is harmless.
func (j *Journal) Record(ctx context.Context, submissions []Submission) error {
	if len(submissions) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO submissions (artist, title, album, timestamp) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range submissions {
		if _, err := stmt.ExecContext(ctx, s.Artist, s.Title, s.Album, s.Timestamp.Unix()); err != nil {
			return fmt.Errorf("failed to record %q: %w", s.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns all recorded submissions, newest first.
func (j *Journal) List(ctx context.Context) ([]Submission, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, artist, title, COALESCE(album, ''), timestamp, submitted_at
		FROM submissions
		ORDER BY timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var submissions []Submission
	for rows.Next() {
		var s Submission
		var ts, submittedAt int64
		if err := rows.Scan(&s.ID, &s.Artist, &s.Title, &s.Album, &ts, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		s.Timestamp = time.Unix(ts, 0).UTC()
		s.SubmittedAt = time.Unix(submittedAt, 0).UTC()
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal: %w", err)
	}
	return submissions, nil
}

// Count returns the number of recorded submissions.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var count int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}
