package sqlite

const schema = `
-- Planning runs table
-- One row per engine run; the full result is kept as JSON alongside the
-- summary columns the list queries filter on.
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    increment TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    started_at DATETIME NOT NULL,
    elapsed_ms INTEGER NOT NULL DEFAULT 0,
    ready INTEGER NOT NULL DEFAULT 0 CHECK(ready IN (0, 1)),
    overall_score REAL NOT NULL DEFAULT 0 CHECK(overall_score >= 0 AND overall_score <= 1),
    allocated INTEGER NOT NULL DEFAULT 0,
    unallocated INTEGER NOT NULL DEFAULT 0,
    result TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_increment ON runs(increment);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_ready ON runs(ready);

-- Planning events table
-- The event trail of each run, stored with the run in one transaction
CREATE TABLE IF NOT EXISTS planning_events (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    increment TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL CHECK(type IN ('run_started', 'graph_built', 'cycles_detected', 'capacity_computed', 'allocation_completed', 'readiness_assessed', 'optimization_applied', 'run_completed')),
    severity TEXT NOT NULL CHECK(severity IN ('info', 'warning', 'error')),
    message TEXT NOT NULL,
    timestamp DATETIME NOT NULL,
    data TEXT NOT NULL DEFAULT '{}',
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_planning_events_run ON planning_events(run_id);
CREATE INDEX IF NOT EXISTS idx_planning_events_type ON planning_events(type);
CREATE INDEX IF NOT EXISTS idx_planning_events_timestamp ON planning_events(timestamp);

-- Config table (key-value settings scoped to this database)
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
