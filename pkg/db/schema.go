package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- Libraries seen by any run, keyed by canonical id
CREATE TABLE IF NOT EXISTS libraries (
    library_ref INTEGER PRIMARY KEY AUTOINCREMENT,
    library_id TEXT NOT NULL UNIQUE,
    first_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- One row per digest invocation. Write-only from the pipeline's point of view.
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    library_ref INTEGER,
    input TEXT NOT NULL,
    topic TEXT,
    mode TEXT NOT NULL,
    page INTEGER NOT NULL DEFAULT 1,
    outcome TEXT NOT NULL,       -- extracted, truncated, fallback, unresolved
    sections TEXT,               -- comma separated labels in output order
    raw_tokens INTEGER DEFAULT 0,
    filtered_tokens INTEGER DEFAULT 0,
    savings_percent REAL,        -- NULL when unavailable
    raw_bytes INTEGER DEFAULT 0,
    filtered_bytes INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (library_ref) REFERENCES libraries(library_ref) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome);
`
