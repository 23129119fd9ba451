package database

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// foreignKeysPragma is applied by the driver to every connection it opens.
const foreignKeysPragma = "_pragma=foreign_keys(1)"

func init() {
	// SQLite's built-in lower() folds ASCII only.
	sqlite.MustRegisterDeterministicScalarFunction("unicode_lower", 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// withForeignKeys appends the foreign_keys pragma to a data source name.
func withForeignKeys(dataSourceName string) string {
	if strings.Contains(dataSourceName, "?") {
		return dataSourceName + "&" + foreignKeysPragma
	}
	return dataSourceName + "?" + foreignKeysPragma
}

// New creates a new database connection pool.
//
// SQLite allows a single writer, so the pool is pinned to one connection.
// This also keeps ":memory:" databases alive for the lifetime of the pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", withForeignKeys(dataSourceName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
//
// Columns carry no DEFAULT clauses: ids, timestamps and default values are
// all set by the model constructors. Timestamps are UTC unix nanoseconds.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		price TEXT NOT NULL, -- decimal string, exact
		image_url TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_user ON products(user_id);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

	CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		product_id TEXT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		UNIQUE(user_id, product_id)
	);

	-- purchases are snapshots and outlive the product they reference
	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		product_id TEXT NOT NULL,
		product_title TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price_at_purchase TEXT NOT NULL,
		purchased_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT NOT NULL PRIMARY KEY,
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		user_id TEXT,
		subject TEXT NOT NULL, -- id of the entity the event is about, may be empty
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_created ON events(created_at);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
