// Package dbtest provides an in-memory database for repository and service
// tests. The schema mirrors the production migrations closely enough for the
// query paths under test; anything Postgres-specific is exercised in staging.
package dbtest

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sokohub/sokohub-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		location TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE farmers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		whatsapp_link TEXT,
		location TEXT,
		kephis_certified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE produce (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT,
		unit_price NUMERIC NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		quality TEXT NOT NULL,
		farmer_id TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		farmer_id TEXT NOT NULL,
		produce_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		total_price NUMERIC NOT NULL,
		deposit_paid BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'Pending',
		mpesa_receipt TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		farmer_id TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		checkout_request_id TEXT NOT NULL UNIQUE,
		mpesa_receipt TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		failure_reason TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE reviews (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		farmer_id TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Open returns a database client backed by a fresh in-memory store scoped to
// the calling test.
func Open(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("getting sql handle: %v", err)
	}
	// A single pooled connection keeps the shared-cache store alive for the
	// whole test and serializes writers the way the production pool does under
	// contention.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("creating test schema: %v", err)
		}
	}

	return db.NewFromConn(conn)
}
