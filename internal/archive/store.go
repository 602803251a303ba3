package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jwulff/jobwatch/internal/api"
	"github.com/jwulff/jobwatch/internal/tail"
)

const schema = `
	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		baseUrl TEXT NOT NULL,
		createdAt REAL NOT NULL,
		jobCount INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		exportId INTEGER NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		status TEXT NOT NULL,
		progress REAL NOT NULL,
		artist TEXT,
		title TEXT,
		url TEXT,
		createdAt TEXT,
		totalDuration TEXT,
		PRIMARY KEY (exportId, id)
	);

	CREATE TABLE IF NOT EXISTS phases (
		exportId INTEGER NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
		jobId TEXT NOT NULL,
		seq INTEGER NOT NULL,
		status TEXT NOT NULL,
		startedAt TEXT,
		endedAt TEXT,
		durationSeconds REAL,
		PRIMARY KEY (exportId, jobId, seq)
	);

	CREATE TABLE IF NOT EXISTS logs (
		exportId INTEGER NOT NULL REFERENCES exports(id) ON DELETE CASCADE,
		jobId TEXT NOT NULL,
		seq INTEGER NOT NULL,
		timestamp TEXT,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (exportId, jobId, seq)
	);
`

// Store is a job snapshot archive backed by SQLite.
type Store struct {
	db *sql.DB
}

// Create opens path for writing, creating the file and schema if needed.
func Create(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// A single connection keeps :memory: databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Open opens an existing archive read-only.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot is everything one export writes.
type Snapshot struct {
	BaseURL string
	At      time.Time
	Jobs    map[string]api.Job
	// Logs holds the entries fetched per job id. Jobs without an entry get
	// no log rows.
	Logs map[string][]api.LogEntry
}

// WriteSnapshot stores snap in one transaction and returns its export id.
// Log messages are stored sanitized.
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO exports (baseUrl, createdAt, jobCount) VALUES (?, ?, ?)`,
		snap.BaseURL, unixFromTime(snap.At), len(snap.Jobs))
	if err != nil {
		return 0, fmt.Errorf("insert export: %w", err)
	}
	exportID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export id: %w", err)
	}

	ids := make([]string, 0, len(snap.Jobs))
	for id := range snap.Jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		j := snap.Jobs[id]
		var total string
		if j.TimelineSummary != nil {
			total = j.TimelineSummary.TotalDurationFormatted
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO jobs (exportId, id, status, progress, artist, title, url, createdAt, totalDuration)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, exportID, id, string(j.Status), j.Progress, j.Artist, j.Title, j.URL, j.CreatedAt, total); err != nil {
			return 0, fmt.Errorf("insert job %s: %w", id, err)
		}

		for i, p := range j.Timeline {
			var dur sql.NullFloat64
			if p.DurationSeconds != nil {
				dur = sql.NullFloat64{Float64: *p.DurationSeconds, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO phases (exportId, jobId, seq, status, startedAt, endedAt, durationSeconds)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, exportID, id, i, string(p.Status), p.StartedAt, p.EndedAt, dur); err != nil {
				return 0, fmt.Errorf("insert phase %s/%d: %w", id, i, err)
			}
		}

		for i, e := range snap.Logs[id] {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO logs (exportId, jobId, seq, timestamp, level, message)
				VALUES (?, ?, ?, ?, ?, ?)
			`, exportID, id, i, e.Timestamp, e.Level, tail.Sanitize(e.Message)); err != nil {
				return 0, fmt.Errorf("insert log %s/%d: %w", id, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return exportID, nil
}

// LatestExport returns the most recent export, or nil when there is none.
func (s *Store) LatestExport(ctx context.Context) (*Export, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, baseUrl, createdAt, jobCount
		FROM exports
		ORDER BY id DESC
		LIMIT 1
	`)

	var e Export
	var createdAt float64
	if err := row.Scan(&e.ID, &e.BaseURL, &createdAt, &e.JobCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan export: %w", err)
	}
	e.CreatedAt = timeFromUnix(createdAt)
	return &e, nil
}

// Jobs returns the jobs of an export ordered by id.
func (s *Store) Jobs(ctx context.Context, exportID int64) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT exportId, id, status, progress, artist, title, url, createdAt, totalDuration
		FROM jobs
		WHERE exportId = ?
		ORDER BY id ASC
	`, exportID)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var artist, title, url, created, total sql.NullString
		if err := rows.Scan(&j.ExportID, &j.ID, &j.Status, &j.Progress,
			&artist, &title, &url, &created, &total); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Artist, j.Title, j.URL = artist.String, title.String, url.String
		j.CreatedAt, j.TotalDuration = created.String, total.String
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Phases returns a job's timeline records in order.
func (s *Store) Phases(ctx context.Context, exportID int64, jobID string) ([]Phase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT jobId, seq, status, startedAt, endedAt, durationSeconds
		FROM phases
		WHERE exportId = ? AND jobId = ?
		ORDER BY seq ASC
	`, exportID, jobID)
	if err != nil {
		return nil, fmt.Errorf("query phases: %w", err)
	}
	defer rows.Close()

	var phases []Phase
	for rows.Next() {
		var p Phase
		var started, ended sql.NullString
		var dur sql.NullFloat64
		if err := rows.Scan(&p.JobID, &p.Seq, &p.Status, &started, &ended, &dur); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		p.StartedAt, p.EndedAt = started.String, ended.String
		if dur.Valid {
			d := dur.Float64
			p.DurationSeconds = &d
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// Logs returns a job's log lines in order.
func (s *Store) Logs(ctx context.Context, exportID int64, jobID string) ([]LogLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT jobId, seq, timestamp, level, message
		FROM logs
		WHERE exportId = ? AND jobId = ?
		ORDER BY seq ASC
	`, exportID, jobID)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var lines []LogLine
	for rows.Next() {
		var l LogLine
		var ts sql.NullString
		if err := rows.Scan(&l.JobID, &l.Seq, &ts, &l.Level, &l.Message); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Timestamp = ts.String
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
