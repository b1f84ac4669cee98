package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    session_id           TEXT PRIMARY KEY,
    started_at           TEXT NOT NULL,
    estimator            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS turns (
    session_id           TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
    turn_id              INTEGER NOT NULL,
    prompt               TEXT NOT NULL,
    prompt_at            TEXT NOT NULL,
    reply                TEXT NOT NULL,
    reply_at             TEXT NOT NULL,
    outcome              TEXT NOT NULL,
    total                TEXT NOT NULL,
    error                TEXT,
    PRIMARY KEY (session_id, turn_id)
);

CREATE INDEX IF NOT EXISTS idx_turns_reply_at ON turns(reply_at);
`
