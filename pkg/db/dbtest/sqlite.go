// Package dbtest opens throwaway SQLite databases carrying the service schema.
package dbtest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Schema mirrors the goose migrations with SQLite types.
var Schema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		system_role TEXT NOT NULL DEFAULT 'user',
		coin_balance INTEGER NOT NULL DEFAULT 0 CHECK (coin_balance >= 0),
		last_login_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE boards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE subjects (
		id TEXT PRIMARY KEY,
		board_id TEXT NOT NULL REFERENCES boards(id),
		name TEXT NOT NULL,
		grade INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (board_id, name, grade)
	)`,
	`CREATE TABLE topics (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL REFERENCES subjects(id),
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE (subject_id, name)
	)`,
	`CREATE TABLE ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		seq INTEGER NOT NULL,
		direction TEXT NOT NULL,
		amount INTEGER NOT NULL CHECK (amount > 0),
		resulting_balance INTEGER NOT NULL CHECK (resulting_balance >= 0),
		reason TEXT NOT NULL,
		reference_type TEXT NOT NULL,
		reference_id TEXT NULL,
		actor_user_id TEXT NULL,
		metadata TEXT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, seq)
	)`,
	`CREATE TABLE generation_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		board_id TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		topic_id TEXT NOT NULL,
		question_type TEXT NOT NULL,
		bloom_level TEXT NOT NULL,
		requested_count INTEGER NOT NULL,
		actual_count INTEGER NOT NULL,
		unit_cost INTEGER NOT NULL,
		total_cost INTEGER NOT NULL,
		parse_strategy TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		CHECK (actual_count > 0 AND actual_count <= requested_count),
		CHECK (total_cost = unit_cost * actual_count)
	)`,
	`CREATE TABLE questions (
		id TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL REFERENCES users(id),
		generation_id TEXT NOT NULL REFERENCES generation_requests(id),
		board_id TEXT NOT NULL,
		subject_id TEXT NOT NULL,
		topic_id TEXT NOT NULL,
		question_type TEXT NOT NULL,
		bloom_level TEXT NOT NULL,
		text TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		correct_answer TEXT NOT NULL,
		explanation TEXT NOT NULL DEFAULT '',
		marks REAL NULL,
		cognitive_level TEXT NULL,
		status TEXT NOT NULL DEFAULT 'pending_review',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE ai_rules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		question_type TEXT NULL,
		instruction TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE bloom_samples (
		id TEXT PRIMARY KEY,
		bloom_level TEXT NOT NULL,
		question_type TEXT NULL,
		sample_text TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

// Open returns a private in-memory database with the full schema applied.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:pg_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range Schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection serializes transactions the way row locks would in Postgres
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
