package history

import (
	"fmt"

	"github.com/starford/zettpub/internal/models"
)

// DefaultLimit bounds ListRuns when no limit is given.
const DefaultLimit = 20

// Record stores run and the pages it published, and returns the run ID.
func (db *DB) Record(run *models.Run) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`
		INSERT INTO runs (started_at, finished_at, message, commit_sha, pushed, nothing_to_do)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Message, run.Commit, run.Pushed, run.NothingToDo)
	if err != nil {
		return 0, fmt.Errorf("history: insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: run id: %w", err)
	}

	if len(run.Pages) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO pages (run_id, position, id, source, title, file, checksum)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("history: prepare page insert: %w", err)
		}
		defer stmt.Close()
		for i, p := range run.Pages {
			if _, err := stmt.Exec(id, i, p.ID, p.Source, p.Title, p.File, p.Checksum); err != nil {
				return 0, fmt.Errorf("history: insert page: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("history: commit: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns the most recent runs first, without their pages.
func (db *DB) ListRuns(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, message, commit_sha, pushed, nothing_to_do
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var out []models.Run
	for rows.Next() {
		var r models.Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Message, &r.Commit, &r.Pushed, &r.NothingToDo); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunPages returns the pages published by run id, in publish order.
func (db *DB) RunPages(id int64) ([]models.Page, error) {
	rows, err := db.conn.Query(`
		SELECT id, source, title, file, checksum
		FROM pages
		WHERE run_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("history: run pages: %w", err)
	}
	defer rows.Close()

	var out []models.Page
	for rows.Next() {
		var p models.Page
		if err := rows.Scan(&p.ID, &p.Source, &p.Title, &p.File, &p.Checksum); err != nil {
			return nil, fmt.Errorf("history: scan page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
