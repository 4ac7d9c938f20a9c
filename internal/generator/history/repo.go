package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry is one row of the generation log. Best-effort bookkeeping; the
// pipeline never fails because history could not be written.
type Entry struct {
	GenerationID string    `json:"generation_id"`
	ArtifactID   string    `json:"artifact_id"`
	Prompt       string    `json:"prompt"`
	Domain       string    `json:"domain"`
	FileCount    int       `json:"file_count"`
	SizeBytes    int64     `json:"size_bytes"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repo persists generation history in Postgres. A nil Repo (no database
// configured) is valid and silently skips every operation.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	if db == nil {
		return nil
	}
	return &Repo{db: db}
}

// Enabled reports whether history is actually being recorded.
func (r *Repo) Enabled() bool {
	return r != nil && r.db != nil
}

const insertQuery = `
INSERT INTO generation_history
	(generation_id, artifact_id, prompt, domain, file_count, size_bytes, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Record appends one entry to the log.
func (r *Repo) Record(ctx context.Context, e Entry) error {
	if !r.Enabled() {
		return nil
	}
	_, err := r.db.ExecContext(ctx, insertQuery,
		e.GenerationID, e.ArtifactID, e.Prompt, e.Domain,
		e.FileCount, e.SizeBytes, e.Status, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record generation history: %w", err)
	}
	return nil
}

const recentQuery = `
SELECT generation_id, artifact_id, prompt, domain, file_count, size_bytes, status, created_at
FROM generation_history
ORDER BY created_at DESC
LIMIT $1`

// Recent returns the newest entries, most recent first.
func (r *Repo) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if !r.Enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, recentQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("query generation history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.GenerationID, &e.ArtifactID, &e.Prompt, &e.Domain,
			&e.FileCount, &e.SizeBytes, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan generation history row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate generation history: %w", err)
	}
	return out, nil
}
