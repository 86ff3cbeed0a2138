package store

// schema contains the SQL statements to create the jcallgraph database schema.
const schema = `
-- One row per extraction run
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    root        TEXT NOT NULL,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    files       INTEGER DEFAULT 0,
    failed      INTEGER DEFAULT 0,
    edges       INTEGER DEFAULT 0
);

-- Call edges, one row per invoke instruction
CREATE TABLE IF NOT EXISTS call_edges (
    run_id      TEXT NOT NULL,
    seq         INTEGER NOT NULL,
    class_file  TEXT NOT NULL,
    caller      TEXT NOT NULL,
    callee      TEXT NOT NULL,
    opcode      TEXT NOT NULL,
    code_offset INTEGER NOT NULL,
    PRIMARY KEY (run_id, seq),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_call_edges_caller ON call_edges(run_id, caller);
CREATE INDEX IF NOT EXISTS idx_call_edges_callee ON call_edges(run_id, callee);
`
