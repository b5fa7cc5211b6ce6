package db

import (
	"context"
	"fmt"
)

// Foreign keys here are deliberately advisory. SQLite leaves enforcement off
// unless the foreign_keys pragma is enabled, and we do not enable it: client
// deletion leaves transaction rows in place, and every join over these
// references uses left-join semantics so orphaned rows still surface.

// Table definitions use backend-native types: generated integer keys, a
// fixed-precision decimal for monetary amounts on postgres, and sqlite's
// generic numeric affinity on the file store.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		address TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS expense_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS daily_expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		expense_type_id INTEGER,
		client_id INTEGER,
		amount REAL NOT NULL,
		expense_date DATE NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (expense_type_id) REFERENCES expense_types(id),
		FOREIGN KEY (client_id) REFERENCES clients(id)
	)`,
	`CREATE TABLE IF NOT EXISTS income (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_id INTEGER,
		amount REAL NOT NULL,
		income_date DATE NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (client_id) REFERENCES clients(id)
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(50),
		address TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS expense_types (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS daily_expenses (
		id SERIAL PRIMARY KEY,
		expense_type_id INTEGER REFERENCES expense_types(id),
		client_id INTEGER REFERENCES clients(id),
		amount DECIMAL(10, 2) NOT NULL,
		expense_date DATE NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS income (
		id SERIAL PRIMARY KEY,
		client_id INTEGER REFERENCES clients(id),
		amount DECIMAL(10, 2) NOT NULL,
		income_date DATE NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// ensureSchema creates the four tables if absent. It runs on every connect
// and never drops or alters existing tables.
func (d *DB) ensureSchema(ctx context.Context) error {
	stmts := sqliteSchema
	if d.backend == Postgres {
		stmts = postgresSchema
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	d.logger.Info("Schema initialized", "tables", 4)
	return nil
}
