package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/railyardhq/railyard/internal/engine"
	"github.com/railyardhq/railyard/internal/events"
)

// RunFilter narrows ListRuns results. Zero values match everything.
type RunFilter struct {
	// Increment filters to runs planned for one increment name
	Increment string
	// ReadyOnly keeps only runs whose final assessment passed
	ReadyOnly bool
	// Since keeps runs started at or after this time
	Since time.Time
	// Limit caps the number of rows returned; 0 means no limit
	Limit int
}

// RunSummary is one row of the run listing, cheap enough to scan without
// decoding the stored result JSON.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Increment   string        `json:"increment"`
	Source      string        `json:"source"`
	StartedAt   time.Time     `json:"started_at"`
	Elapsed     time.Duration `json:"elapsed"`
	Ready       bool          `json:"ready"`
	Overall     float64       `json:"overall"`
	Allocated   int           `json:"allocated"`
	Unallocated int           `json:"unallocated"`
}

// SaveRun persists one planning run and its event trail atomically.
// The run row carries summary columns for listing; the full result is
// stored as JSON and round-trips through GetRun. Live analysis objects
// on the result (the graph, the capacity table) are not persisted.
func (s *SQLiteStorage) SaveRun(ctx context.Context, result *engine.PlanResult, evts []*events.PlanningEvent) error {
	if result == nil {
		return fmt.Errorf("cannot save nil plan result")
	}
	if result.RunID == "" {
		return fmt.Errorf("plan result has no run id")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal plan result: %w", err)
	}

	overall := 0.0
	if final := result.FinalAssessment(); final != nil {
		overall = final.Overall
	}
	var allocated, unallocated int
	if result.Allocation != nil {
		allocated = result.Allocation.Stats.Allocated
		unallocated = result.Allocation.Stats.Unallocated
	}

	// Acquire a dedicated connection for the transaction. BEGIN IMMEDIATE
	// takes the write lock up front, so concurrent savers serialize here
	// instead of failing mid-transaction.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("failed to begin immediate transaction: %w", err)
	}

	// Use context.Background() for ROLLBACK so cleanup happens even if
	// ctx is already canceled.
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	_, err = conn.ExecContext(ctx, `
		INSERT INTO runs (
			id, increment, source, started_at, elapsed_ms,
			ready, overall_score, allocated, unallocated, result
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID, result.Increment, result.Source, result.StartedAt,
		result.Elapsed.Milliseconds(), result.Ready(), overall,
		allocated, unallocated, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", result.RunID, err)
	}

	for _, event := range evts {
		if err := insertEvent(ctx, conn, event); err != nil {
			return err
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

// GetRun retrieves one stored run by id. Returns nil without error when
// the run does not exist.
func (s *SQLiteStorage) GetRun(ctx context.Context, runID string) (*engine.PlanResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT result FROM runs WHERE id = ?", runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}

	var result engine.PlanResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to parse stored run %s: %w", runID, err)
	}
	return &result, nil
}

// GetLatestRun retrieves the most recently started run, optionally
// scoped to one increment. Returns nil without error when no run matches.
func (s *SQLiteStorage) GetLatestRun(ctx context.Context, increment string) (*engine.PlanResult, error) {
	query := "SELECT result FROM runs"
	args := []interface{}{}
	if increment != "" {
		query += " WHERE increment = ?"
		args = append(args, increment)
	}
	query += " ORDER BY started_at DESC, id LIMIT 1"

	var payload string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	var result engine.PlanResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to parse stored run: %w", err)
	}
	return &result, nil
}

// ListRuns retrieves run summaries matching the given filter, most
// recent first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter RunFilter) ([]*RunSummary, error) {
	query := `
		SELECT id, increment, source, started_at, elapsed_ms,
		       ready, overall_score, allocated, unallocated
		FROM runs
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Increment != "" {
		query += " AND increment = ?"
		args = append(args, filter.Increment)
	}
	if filter.ReadyOnly {
		query += " AND ready = 1"
	}
	if !filter.Since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, filter.Since)
	}

	query += " ORDER BY started_at DESC, id"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var result []*RunSummary
	for rows.Next() {
		var summary RunSummary
		var elapsedMs int64
		err := rows.Scan(
			&summary.RunID,
			&summary.Increment,
			&summary.Source,
			&summary.StartedAt,
			&elapsedMs,
			&summary.Ready,
			&summary.Overall,
			&summary.Allocated,
			&summary.Unallocated,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		summary.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		result = append(result, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return result, nil
}

// DeleteRun removes one run and, through the cascade, its event trail.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
