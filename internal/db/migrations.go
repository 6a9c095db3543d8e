package db

// Migration 一个按版本号顺序执行的 schema 变更
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations 只能追加，不能修改已发布的版本
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_inquiries",
		SQL: `
CREATE TABLE IF NOT EXISTS inquiries (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) NOT NULL,
    phone VARCHAR(50),
    project_type VARCHAR(255) NOT NULL,
    requirements TEXT,
    date TIMESTAMPTZ DEFAULT NOW(),
    status VARCHAR(50) NOT NULL DEFAULT 'Pending'
        CHECK (status IN ('Pending', 'In Progress', 'Completed', 'Cancelled'))
);`,
	},
	{
		Version: 2,
		Name:    "create_project_timeline_and_notes",
		SQL: `
CREATE TABLE IF NOT EXISTS project_timeline (
    id SERIAL PRIMARY KEY,
    project_id INTEGER NOT NULL REFERENCES inquiries(id) ON DELETE CASCADE,
    title VARCHAR(255) NOT NULL,
    description TEXT,
    due_date DATE,
    status VARCHAR(50) NOT NULL DEFAULT 'pending'
        CHECK (status IN ('completed', 'current', 'pending')),
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_project_timeline_project_id ON project_timeline(project_id);

CREATE TABLE IF NOT EXISTS project_notes (
    id SERIAL PRIMARY KEY,
    project_id INTEGER NOT NULL REFERENCES inquiries(id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    timestamp TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_project_notes_project_id ON project_notes(project_id);`,
	},
	{
		Version: 3,
		Name:    "create_users",
		SQL: `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(255) NOT NULL,
    role VARCHAR(50) NOT NULL CHECK (role IN ('admin', 'developer')),
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);`,
	},
	{
		Version: 4,
		Name:    "extend_inquiries",
		SQL: `
ALTER TABLE inquiries
    ADD COLUMN IF NOT EXISTS company VARCHAR(255),
    ADD COLUMN IF NOT EXISTS budget VARCHAR(50),
    ADD COLUMN IF NOT EXISTS timeline VARCHAR(50),
    ADD COLUMN IF NOT EXISTS source VARCHAR(100),
    ADD COLUMN IF NOT EXISTS target_audience TEXT,
    ADD COLUMN IF NOT EXISTS key_features TEXT,
    ADD COLUMN IF NOT EXISTS progress INTEGER NOT NULL DEFAULT 0;`,
	},
	{
		Version: 5,
		Name:    "create_project_assignments",
		SQL: `
CREATE TABLE IF NOT EXISTS project_assignments (
    id SERIAL PRIMARY KEY,
    developer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    project_id INTEGER NOT NULL REFERENCES inquiries(id) ON DELETE CASCADE,
    assigned_at TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE (developer_id, project_id)
);`,
	},
	{
		Version: 6,
		Name:    "create_project_sentiment",
		SQL: `
CREATE TABLE IF NOT EXISTS project_sentiment (
    id SERIAL PRIMARY KEY,
    project_id INTEGER NOT NULL UNIQUE REFERENCES inquiries(id) ON DELETE CASCADE,
    client_name VARCHAR(255) NOT NULL,
    sentiment_label VARCHAR(20) NOT NULL CHECK (sentiment_label IN ('positive', 'neutral', 'negative')),
    confidence_score DECIMAL(5,4) NOT NULL CHECK (confidence_score >= 0 AND confidence_score <= 1),
    relationship_health_score INTEGER NOT NULL CHECK (relationship_health_score >= 0 AND relationship_health_score <= 100),
    summary TEXT NOT NULL,
    analysis_method VARCHAR(20) NOT NULL DEFAULT 'fallback'
        CHECK (analysis_method IN ('huggingface', 'openai', 'fallback')),
    trend_history JSONB NOT NULL DEFAULT '[]'::jsonb,
    last_analyzed_message TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    updated_at TIMESTAMPTZ DEFAULT NOW()
);`,
	},
	{
		Version: 7,
		Name:    "create_outbox_events",
		SQL: `
CREATE TABLE IF NOT EXISTS outbox_events (
    id BIGSERIAL PRIMARY KEY,
    aggregate_type VARCHAR(50) NOT NULL,
    aggregate_id BIGINT,
    routing_key VARCHAR(100) NOT NULL,
    payload JSONB NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    retry_count INTEGER NOT NULL DEFAULT 0,
    next_retry_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_outbox_events_pending ON outbox_events(status, next_retry_at, created_at);`,
	},
}

// LatestVersion 已知迁移的最高版本
func LatestVersion() int {
	if len(Migrations) == 0 {
		return 0
	}
	return Migrations[len(Migrations)-1].Version
}
