package repository

// Schema definitions for the Harrier audit store.
// Compatible with both SQLite and PostgreSQL.

const schemaApplications = `
CREATE TABLE IF NOT EXISTS applications (
    id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL,
    profile TEXT NOT NULL,
    loan TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_client ON applications(client_id);
CREATE INDEX IF NOT EXISTS idx_applications_created ON applications(client_id, created_at);
`

const schemaDecisions = `
CREATE TABLE IF NOT EXISTS decisions (
    id TEXT PRIMARY KEY,
    application_id TEXT NOT NULL,
    client_id TEXT NOT NULL,
    decision TEXT NOT NULL,
    credit_score REAL NOT NULL,
    risk_level TEXT NOT NULL,
    confidence TEXT NOT NULL,
    result TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_application ON decisions(application_id);
CREATE INDEX IF NOT EXISTS idx_decisions_client ON decisions(client_id);
CREATE INDEX IF NOT EXISTS idx_decisions_outcome ON decisions(decision);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaApplications,
		schemaDecisions,
	}
}
