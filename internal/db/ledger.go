package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Launch is one pipeline run, recorded before the process starts and
// completed when it exits.
type Launch struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Mode        string
	Source      string
	WeightsPath string
	ExpPath     string
	ExpFallback bool
	Argv        []string
	ExitCode    *int
	Interrupted bool
	DryRun      bool
}

// Acquisition is one weights download attempt.
type Acquisition struct {
	ID        int64
	RunID     string
	CreatedAt time.Time
	Model     string
	URL       string
	DestPath  string
	Status    string
	Bytes     int64
	Elapsed   time.Duration
	Error     string
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

// RecordLaunch inserts or replaces the launch row keyed by RunID.
func (db *DB) RecordLaunch(l Launch) error {
	if l.RunID == "" {
		return fmt.Errorf("launch run id must be set")
	}
	argv, err := json.Marshal(l.Argv)
	if err != nil {
		return fmt.Errorf("failed to encode argv: %w", err)
	}

	var exitCode sql.NullInt64
	if l.ExitCode != nil {
		exitCode = sql.NullInt64{Int64: int64(*l.ExitCode), Valid: true}
	}

	_, err = db.Exec(
		`INSERT OR REPLACE INTO launches (
			run_id, started_at, finished_at, mode, source, weights_path,
			exp_path, exp_fallback, argv, exit_code, interrupted, dry_run
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.RunID, l.StartedAt.UnixMilli(), nullTime(l.FinishedAt), l.Mode, l.Source, l.WeightsPath,
		l.ExpPath, boolInt(l.ExpFallback), string(argv), exitCode, boolInt(l.Interrupted), boolInt(l.DryRun),
	)
	if err != nil {
		return fmt.Errorf("failed to record launch %s: %w", l.RunID, err)
	}
	return nil
}

// FinishLaunch stores the exit status of a recorded launch.
func (db *DB) FinishLaunch(runID string, finishedAt time.Time, exitCode int, interrupted bool) error {
	res, err := db.Exec(
		`UPDATE launches SET finished_at = ?, exit_code = ?, interrupted = ? WHERE run_id = ?`,
		finishedAt.UnixMilli(), exitCode, boolInt(interrupted), runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish launch %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("launch %s not found", runID)
	}
	return nil
}

// RecordAcquisition inserts a download attempt and returns its id.
func (db *DB) RecordAcquisition(a Acquisition) (int64, error) {
	var errText sql.NullString
	if a.Error != "" {
		errText = sql.NullString{String: a.Error, Valid: true}
	}
	var runID sql.NullString
	if a.RunID != "" {
		runID = sql.NullString{String: a.RunID, Valid: true}
	}

	res, err := db.Exec(
		`INSERT INTO acquisitions (
			run_id, created_at, model, url, dest_path, status, bytes, elapsed_ms, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, a.CreatedAt.UnixMilli(), a.Model, a.URL, a.DestPath, a.Status,
		a.Bytes, a.Elapsed.Milliseconds(), errText,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record acquisition: %w", err)
	}
	return res.LastInsertId()
}

// RecentLaunches returns up to limit launches, newest first.
func (db *DB) RecentLaunches(limit int) ([]Launch, error) {
	rows, err := db.Query(
		`SELECT run_id, started_at, finished_at, mode, source, weights_path,
			exp_path, exp_fallback, argv, exit_code, interrupted, dry_run
		FROM launches ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Launch
	for rows.Next() {
		var (
			l                             Launch
			started                       int64
			finished, exitCode            sql.NullInt64
			fallback, interrupted, dryRun int
			argv                          string
		)
		if err := rows.Scan(&l.RunID, &started, &finished, &l.Mode, &l.Source, &l.WeightsPath,
			&l.ExpPath, &fallback, &argv, &exitCode, &interrupted, &dryRun); err != nil {
			return nil, err
		}
		l.StartedAt = time.UnixMilli(started).UTC()
		if finished.Valid {
			l.FinishedAt = time.UnixMilli(finished.Int64).UTC()
		}
		if exitCode.Valid {
			c := int(exitCode.Int64)
			l.ExitCode = &c
		}
		l.ExpFallback = fallback != 0
		l.Interrupted = interrupted != 0
		l.DryRun = dryRun != 0
		if err := json.Unmarshal([]byte(argv), &l.Argv); err != nil {
			return nil, fmt.Errorf("launch %s: bad argv: %w", l.RunID, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// RecentAcquisitions returns up to limit download attempts, newest first.
func (db *DB) RecentAcquisitions(limit int) ([]Acquisition, error) {
	rows, err := db.Query(
		`SELECT acquisition_id, run_id, created_at, model, url, dest_path,
			status, bytes, elapsed_ms, error
		FROM acquisitions ORDER BY created_at DESC, acquisition_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Acquisition
	for rows.Next() {
		var (
			a              Acquisition
			runID, errText sql.NullString
			created, ms    int64
		)
		if err := rows.Scan(&a.ID, &runID, &created, &a.Model, &a.URL, &a.DestPath,
			&a.Status, &a.Bytes, &ms, &errText); err != nil {
			return nil, err
		}
		a.RunID = runID.String
		a.Error = errText.String
		a.CreatedAt = time.UnixMilli(created).UTC()
		a.Elapsed = time.Duration(ms) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}
