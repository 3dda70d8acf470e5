package sqlite

import (
	"context"
	"fmt"
	"time"
)

// RunCounts holds run and event statistics for monitoring
type RunCounts struct {
	TotalRuns       int
	TotalEvents     int
	ReadyRuns       int
	RunsByIncrement map[string]int
	EventsByType    map[string]int
}

// PruneRunsByAge deletes runs older than the retention period.
// The newest run of each increment is always kept so a train never loses
// its plan of record, no matter how old. Events are removed by the
// runs foreign key cascade. Deletions are batched for performance
// (batchSize runs per transaction).
func (s *SQLiteStorage) PruneRunsByAge(ctx context.Context, retentionDays, batchSize int) (int, error) {
	if retentionDays < 0 {
		return 0, fmt.Errorf("retention days cannot be negative")
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	totalDeleted := 0

	for {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return totalDeleted, ctx.Err()
		default:
		}

		// A run is prunable only when a strictly newer run of the same
		// increment exists, so the correlated subquery spares the latest.
		query := `
			DELETE FROM runs
			WHERE id IN (
				SELECT id FROM runs
				WHERE started_at < ?
				AND started_at < (
					SELECT MAX(r2.started_at) FROM runs r2
					WHERE r2.increment = runs.increment
				)
				ORDER BY started_at ASC
				LIMIT ?
			)
		`

		result, err := s.db.ExecContext(ctx, query, cutoff, batchSize)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to execute delete: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to get rows affected: %w", err)
		}

		totalDeleted += int(rowsAffected)

		// If we deleted fewer than batchSize, we're done
		if rowsAffected < int64(batchSize) {
			break
		}
	}

	return totalDeleted, nil
}

// PruneRunsByIncrementLimit enforces a per-increment run limit.
// For each increment with more than perIncrementLimit runs, the oldest
// runs beyond the limit are deleted along with their event trails.
// A limit of 0 means unlimited.
func (s *SQLiteStorage) PruneRunsByIncrementLimit(ctx context.Context, perIncrementLimit, batchSize int) (int, error) {
	if perIncrementLimit < 0 {
		return 0, fmt.Errorf("per-increment limit cannot be negative")
	}
	if perIncrementLimit == 0 {
		// 0 means unlimited
		return 0, nil
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	totalDeleted := 0

	// Find increments exceeding the limit
	query := `
		SELECT increment, COUNT(*) as run_count
		FROM runs
		GROUP BY increment
		HAVING run_count > ?
	`

	rows, err := s.db.QueryContext(ctx, query, perIncrementLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to query increment run counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var increments []struct {
		increment string
		runCount  int
	}

	for rows.Next() {
		var increment string
		var count int
		if err := rows.Scan(&increment, &count); err != nil {
			return totalDeleted, fmt.Errorf("failed to scan increment count: %w", err)
		}
		increments = append(increments, struct {
			increment string
			runCount  int
		}{increment, count})
	}

	if err := rows.Err(); err != nil {
		return totalDeleted, fmt.Errorf("error iterating increment counts: %w", err)
	}

	// For each increment exceeding the limit, delete the oldest runs
	for _, inc := range increments {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return totalDeleted, ctx.Err()
		default:
		}

		runsToDelete := inc.runCount - perIncrementLimit
		if runsToDelete <= 0 {
			continue
		}

		deleted, err := s.deleteOldestRunsForIncrement(ctx, inc.increment, runsToDelete, batchSize)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to delete runs for increment %s: %w", inc.increment, err)
		}
		totalDeleted += deleted
	}

	return totalDeleted, nil
}

// deleteOldestRunsForIncrement deletes the oldest runs for a specific increment
func (s *SQLiteStorage) deleteOldestRunsForIncrement(ctx context.Context, increment string, count, batchSize int) (int, error) {
	totalDeleted := 0
	remaining := count

	for remaining > 0 {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return totalDeleted, ctx.Err()
		default:
		}

		limitThisBatch := batchSize
		if remaining < batchSize {
			limitThisBatch = remaining
		}

		query := `
			DELETE FROM runs
			WHERE id IN (
				SELECT id FROM runs
				WHERE increment = ?
				ORDER BY started_at ASC, id ASC
				LIMIT ?
			)
		`

		result, err := s.db.ExecContext(ctx, query, increment, limitThisBatch)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to execute delete: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to get rows affected: %w", err)
		}

		totalDeleted += int(rowsAffected)
		remaining -= int(rowsAffected)

		if rowsAffected < int64(limitThisBatch) {
			break
		}
	}

	return totalDeleted, nil
}

// GetRunCounts returns run and event count statistics for monitoring
func (s *SQLiteStorage) GetRunCounts(ctx context.Context) (*RunCounts, error) {
	counts := &RunCounts{
		RunsByIncrement: make(map[string]int),
		EventsByType:    make(map[string]int),
	}

	// Total runs
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&counts.TotalRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get total run count: %w", err)
	}

	// Ready runs
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE ready = 1").Scan(&counts.ReadyRuns)
	if err != nil {
		return nil, fmt.Errorf("failed to get ready run count: %w", err)
	}

	// Total events
	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM planning_events").Scan(&counts.TotalEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to get total event count: %w", err)
	}

	// Runs by increment
	rows, err := s.db.QueryContext(ctx, `
		SELECT increment, COUNT(*)
		FROM runs
		GROUP BY increment
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs by increment: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var increment string
		var count int
		if err := rows.Scan(&increment, &count); err != nil {
			return nil, fmt.Errorf("failed to scan increment count: %w", err)
		}
		counts.RunsByIncrement[increment] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating increment counts: %w", err)
	}

	// Events by type
	rows, err = s.db.QueryContext(ctx, `
		SELECT type, COUNT(*)
		FROM planning_events
		GROUP BY type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query events by type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts.EventsByType[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating type counts: %w", err)
	}

	return counts, nil
}

// VacuumDatabase runs the VACUUM command to reclaim disk space
// This can be slow and locks the database, so it should be run during maintenance windows
func (s *SQLiteStorage) VacuumDatabase(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
