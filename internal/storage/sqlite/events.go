package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/railyardhq/railyard/internal/events"
)

// insertEvent stores one planning event on the given connection, inside
// the caller's transaction.
func insertEvent(ctx context.Context, conn *sql.Conn, event *events.PlanningEvent) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO planning_events (
			id, run_id, increment, type, severity, message, timestamp, data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.RunID,
		event.Increment,
		event.Type,
		event.Severity,
		event.Message,
		event.Timestamp,
		string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store planning event (type=%s, run=%s): %w", event.Type, event.RunID, err)
	}

	return nil
}

// GetRunEvents retrieves the event trail of one run in emission order.
func (s *SQLiteStorage) GetRunEvents(ctx context.Context, runID string) ([]*events.PlanningEvent, error) {
	query := `
		SELECT id, run_id, increment, type, severity, message, timestamp, data
		FROM planning_events
		WHERE run_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for run %s: %w", runID, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetRecentEvents retrieves the most recent events across all runs, up
// to the specified limit.
func (s *SQLiteStorage) GetRecentEvents(ctx context.Context, limit int) ([]*events.PlanningEvent, error) {
	query := `
		SELECT id, run_id, increment, type, severity, message, timestamp, data
		FROM planning_events
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents is a helper function to scan rows into PlanningEvent structs
func scanEvents(rows *sql.Rows) ([]*events.PlanningEvent, error) {
	var result []*events.PlanningEvent

	for rows.Next() {
		var event events.PlanningEvent
		var dataJSON string
		var timestamp time.Time

		err := rows.Scan(
			&event.ID,
			&event.RunID,
			&event.Increment,
			&event.Type,
			&event.Severity,
			&event.Message,
			&timestamp,
			&dataJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan planning event: %w", err)
		}

		event.Timestamp = timestamp

		// Unmarshal the JSON data field
		event.Data = make(map[string]interface{})
		if dataJSON != "" && dataJSON != "{}" && dataJSON != "null" {
			if err := json.Unmarshal([]byte(dataJSON), &event.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data: %w", err)
			}
		}

		result = append(result, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating planning event rows: %w", err)
	}

	return result, nil
}
