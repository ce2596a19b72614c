package database

// Migration represents a single schema migration step. Each step carries
// the DDL for both dialects.
type Migration struct {
	Version     int
	Description string
	SQLite      string
	Postgres    string
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "content history",
		SQLite: `
CREATE TABLE IF NOT EXISTS content_history (
    id TEXT PRIMARY KEY,
    source_url TEXT NOT NULL,
    title TEXT,
    content_summary TEXT,
    signal_score REAL,
    is_signal INTEGER NOT NULL DEFAULT 0,
    rejection_reason TEXT,
    category_code TEXT,
    estimated_read_time_seconds INTEGER NOT NULL DEFAULT 0,
    embedding TEXT,
    analyzed_at TEXT NOT NULL
);`,
		Postgres: `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS content_history (
    id UUID PRIMARY KEY,
    source_url TEXT NOT NULL,
    title TEXT,
    content_summary TEXT,
    signal_score DOUBLE PRECISION,
    is_signal BOOLEAN NOT NULL DEFAULT FALSE,
    rejection_reason TEXT,
    category_code VARCHAR(50),
    estimated_read_time_seconds INTEGER NOT NULL DEFAULT 0,
    embedding vector(768),
    analyzed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Version:     2,
		Description: "history indexes",
		SQLite: `
CREATE INDEX IF NOT EXISTS idx_content_history_analyzed ON content_history(analyzed_at);
CREATE INDEX IF NOT EXISTS idx_content_history_signal ON content_history(is_signal);`,
		Postgres: `
CREATE INDEX IF NOT EXISTS idx_content_history_analyzed ON content_history(analyzed_at);
CREATE INDEX IF NOT EXISTS idx_content_history_signal ON content_history(is_signal);`,
	},
}

// latestVersion returns the highest migration version.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
