package storage

// schema returns the bootstrap DDL. Only the float type name differs
// between dialects.
func schema(d Dialect) []string {
	floatType := "DOUBLE PRECISION"
	if d == SQLite {
		floatType = "REAL"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id TEXT PRIMARY KEY,
			full_name TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			middle_names TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			aliases TEXT NOT NULL DEFAULT '[]',
			context_terms TEXT NOT NULL DEFAULT '[]',
			negative_terms TEXT NOT NULL DEFAULT '[]',
			region TEXT NOT NULL DEFAULT '',
			locality TEXT NOT NULL DEFAULT '',
			sources TEXT NOT NULL DEFAULT 'null',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS mentions (
			id TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL,
			candidate_id TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			canonical_url TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			snippet TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			provider TEXT NOT NULL DEFAULT '',
			published_at BIGINT NOT NULL DEFAULT 0,
			trust_score INTEGER,
			confidence ` + floatType + ` NOT NULL,
			matched_forms TEXT NOT NULL DEFAULT '[]',
			sentiment TEXT NOT NULL,
			severity TEXT NOT NULL,
			category TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '[]',
			rationale TEXT NOT NULL DEFAULT '',
			provenance TEXT NOT NULL,
			state TEXT NOT NULL,
			alert_eligible BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS mentions_entity_created ON mentions (entity_id, created_at)`,
	}
}
