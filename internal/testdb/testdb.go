// Package testdb opens in-memory SQLite databases with the production schema
// translated to SQLite types. It is only imported from tests.
package testdb

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const schema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	psico_email TEXT NULL,
	auto_report BOOLEAN NOT NULL DEFAULT 1,
	type TEXT NOT NULL DEFAULT 'Admin' CHECK (type IN ('User', 'Admin')),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE sessions (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	expires_at DATETIME NOT NULL
);
CREATE TABLE activities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NULL,
	"start" DATETIME NULL,
	"end" DATETIME NULL,
	duration INTEGER NULL,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
);
CREATE TABLE act_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device TEXT NULL,
	"start" DATETIME NULL,
	"end" DATETIME NULL,
	duration INTEGER NULL,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
);
CREATE TABLE emotions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NULL,
	color TEXT NULL,
	uri TEXT NULL,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);`

// New returns a fresh database. The pool is pinned to one connection because
// every :memory: connection is its own database.
func New(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(schema)
	require.NoError(t, err)

	return db
}

func Gorm(t testing.TB, db *sql.DB) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(&sqlite.Dialector{Conn: db}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gdb
}

// CreateUser inserts a user row directly and returns its id.
func CreateUser(t testing.TB, db *sql.DB, email, role string) int64 {
	t.Helper()

	now := time.Now().UTC()
	res, err := db.Exec(
		"INSERT INTO users (name, email, password, type, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		email, email, "hashed", role, now, now,
	)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
