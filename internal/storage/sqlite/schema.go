package sqlite

// schema creates the two system tables every ProntoDB database carries.
// Per-(scope,project,namespace) data tables are created lazily by
// ensureNamespace; their physical names are recorded here so the
// logical (scope,project,namespace) model never leaks into SQL identifiers.
const schema = `
CREATE TABLE IF NOT EXISTS namespaces (
    meta_context TEXT NOT NULL DEFAULT '',
    project TEXT NOT NULL,
    namespace TEXT NOT NULL,
    table_name TEXT NOT NULL UNIQUE,
    ttl_default_seconds INTEGER,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (meta_context, project, namespace)
);

CREATE TABLE IF NOT EXISTS pronto_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// dataTableDDL returns the DDL for one namespace's data table, identified
// by its internal, injection-safe table name.
func dataTableDDL(tableName string) string {
	return `
CREATE TABLE IF NOT EXISTS "` + tableName + `" (
    key TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '',
    value BLOB NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expires_at DATETIME,
    PRIMARY KEY (key, context)
);
CREATE INDEX IF NOT EXISTS "idx_` + tableName + `_expires" ON "` + tableName + `"(expires_at);
`
}
