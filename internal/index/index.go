// Package index implements the relational model of spec.md §4.E: publisher,
// namespace, package, and version records, their uniqueness invariants, and
// the SemVer range query planner, on top of database/sql and
// modernc.org/sqlite.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Errors surfaced by Index methods. These map onto the taxonomy in
// spec.md §7 at the API layer.
var (
	ErrPublisherExists  = errors.New("index: publisher already exists")
	ErrNamespaceExists  = errors.New("index: namespace already exists")
	ErrPackageExists    = errors.New("index: package already exists")
	ErrVersionExists    = errors.New("index: version already exists")
	ErrVersionNotAhead  = errors.New("index: version must sort after every existing version")
	ErrUnknownPublisher = errors.New("index: unknown publisher")
	ErrUnknownNamespace = errors.New("index: unknown namespace")
	ErrUnknownPackage   = errors.New("index: unknown package")
	ErrUnknownVersion   = errors.New("index: unknown version")
)

// Index wraps a *sql.DB with the registry's schema and queries.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite-backed Index at dsn. Pass
// ":memory:" for an ephemeral, single-connection index used by tests.
func Open(ctx context.Context, dsn string) (*Index, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}
	if dsn == ":memory:" {
		// An in-memory SQLite database is per-connection; the pool must
		// never open a second connection or it sees an empty database.
		db.SetMaxOpenConns(1)
	}

	idx := &Index{db: db}
	if err := idx.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close releases the underlying connection pool.
func (idx *Index) Close() error { return idx.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS publishers (
	publisher_id INTEGER PRIMARY KEY AUTOINCREMENT,
	address BLOB NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS namespaces (
	namespace_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE,
	skeleton TEXT NOT NULL UNIQUE,
	publisher_id INTEGER NOT NULL REFERENCES publishers(publisher_id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS namespace_publishers (
	namespace_id INTEGER NOT NULL REFERENCES namespaces(namespace_id),
	publisher_id INTEGER NOT NULL REFERENCES publishers(publisher_id),
	restrictions TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (namespace_id, publisher_id)
);

CREATE TABLE IF NOT EXISTS packages (
	package_id INTEGER PRIMARY KEY AUTOINCREMENT,
	namespace_id INTEGER NOT NULL REFERENCES namespaces(namespace_id),
	name TEXT NOT NULL,
	skeleton TEXT NOT NULL,
	deprecated TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(namespace_id, name),
	UNIQUE(namespace_id, skeleton)
);

CREATE TABLE IF NOT EXISTS versions (
	version_id INTEGER PRIMARY KEY AUTOINCREMENT,
	publisher_id INTEGER NOT NULL REFERENCES publishers(publisher_id),
	package_id INTEGER NOT NULL REFERENCES packages(package_id),
	major INTEGER NOT NULL,
	minor INTEGER NOT NULL,
	patch INTEGER NOT NULL,
	pre TEXT NOT NULL DEFAULT '',
	build TEXT NOT NULL DEFAULT '',
	descriptor TEXT NOT NULL,
	object_key TEXT NOT NULL,
	pointer_key TEXT NOT NULL,
	signature BLOB NOT NULL,
	checksum BLOB NOT NULL,
	yanked TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(package_id, major, minor, patch, pre, build)
);
`

func (idx *Index) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";\n\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := idx.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("index: migrate: %w", err)
		}
	}
	return nil
}

// isUniqueConstraintErr reports whether err is a SQLite UNIQUE constraint
// violation. modernc.org/sqlite surfaces these as *sqlite.Error whose
// message contains "UNIQUE constraint failed"; matching on the message is
// the same approach sqlx-based callers in the original Rust source use
// against the underlying driver's error text.
func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
