// Package dbtest opens throwaway sqlite databases carrying the application schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		phone TEXT,
		role TEXT NOT NULL CHECK (role IN ('admin','seller','client')),
		is_active BOOLEAN NOT NULL DEFAULT 1,
		last_seen_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE listings (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		property_type TEXT NOT NULL,
		purpose TEXT NOT NULL,
		price NUMERIC NOT NULL,
		currency TEXT NOT NULL,
		city TEXT NOT NULL,
		district TEXT,
		address TEXT,
		bedrooms INTEGER NOT NULL DEFAULT 0,
		bathrooms INTEGER NOT NULL DEFAULT 0,
		area_sqm INTEGER NOT NULL DEFAULT 0,
		image_keys TEXT NOT NULL DEFAULT '{}',
		is_featured BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('available','pending','hidden','sold','rented')),
		hidden_by_admin BOOLEAN NOT NULL DEFAULT 0,
		view_count INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT listings_admin_hide_status_chk CHECK (hidden_by_admin = 0 OR status IN ('pending','hidden'))
	)`,
	`CREATE TABLE activity_logs (
		id TEXT PRIMARY KEY,
		actor_id TEXT,
		actor_role TEXT,
		kind TEXT NOT NULL,
		listing_id TEXT,
		owner_id TEXT,
		details BLOB,
		created_at DATETIME
	)`,
	`CREATE TABLE favorites (
		user_id TEXT NOT NULL,
		listing_id TEXT NOT NULL,
		created_at DATETIME,
		PRIMARY KEY (user_id, listing_id)
	)`,
	`CREATE TABLE reports (
		id TEXT PRIMARY KEY,
		listing_id TEXT NOT NULL,
		reporter_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		details TEXT,
		status TEXT NOT NULL,
		resolved_by TEXT,
		resolved_at DATETIME,
		resolution TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE contact_messages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		listing_id TEXT,
		locale TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE notifications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		link TEXT,
		read_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE site_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_by TEXT,
		updated_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json BLOB NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// Open returns a fresh in-memory database with every application table created.
// The pool is pinned to one connection so the in-memory database outlives each query.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}

// OpenClient wraps Open in the shared db.Client.
func OpenClient(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}
