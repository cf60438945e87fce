package repositories

import (
	"context"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	username VARCHAR(100) NOT NULL,
	created_at BIGINT NOT NULL DEFAULT 0
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS trips (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	owner_id BIGINT NOT NULL,
	title VARCHAR(255) NOT NULL DEFAULT '',
	created_at BIGINT NOT NULL DEFAULT 0
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	user_id BIGINT NOT NULL,
	kind VARCHAR(16) NOT NULL,
	amount BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL,
	status VARCHAR(32) NOT NULL,
	vendor_request MEDIUMTEXT NULL,
	vendor_response MEDIUMTEXT NULL,
	vendor_reference VARCHAR(100) NULL,
	gateway_order_id VARCHAR(64) NULL,
	gateway_payment_id VARCHAR(64) NULL,
	gateway_refund_id VARCHAR(64) NULL,
	notes TEXT NULL,
	hold_expires_at BIGINT NULL,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	KEY idx_bookings_status (status),
	KEY idx_bookings_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS payments (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	gateway_payment_id VARCHAR(64) NOT NULL,
	gateway_order_id VARCHAR(64) NOT NULL DEFAULT '',
	status VARCHAR(16) NOT NULL,
	amount BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL,
	raw_payload MEDIUMTEXT NULL,
	created_at BIGINT NOT NULL,
	KEY idx_payments_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS expenses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	trip_id BIGINT NOT NULL,
	owner_id BIGINT NOT NULL,
	amount BIGINT NOT NULL,
	category VARCHAR(100) NOT NULL,
	note TEXT NULL,
	participants TEXT NOT NULL,
	ledger MEDIUMTEXT NOT NULL,
	split_finalized TINYINT(1) NOT NULL DEFAULT 0,
	fully_settled TINYINT(1) NOT NULL DEFAULT 0,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL,
	KEY idx_expenses_trip (trip_id),
	KEY idx_expenses_owner (owner_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS expense_members (
	expense_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	PRIMARY KEY (expense_id, user_id),
	KEY idx_expense_members_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	created_at INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS trips (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id INTEGER NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS bookings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	amount INTEGER NOT NULL,
	currency TEXT NOT NULL,
	status TEXT NOT NULL,
	vendor_request TEXT,
	vendor_response TEXT,
	vendor_reference TEXT,
	gateway_order_id TEXT,
	gateway_payment_id TEXT,
	gateway_refund_id TEXT,
	notes TEXT,
	hold_expires_at INTEGER,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	`CREATE TABLE IF NOT EXISTS payments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	booking_id INTEGER NOT NULL REFERENCES bookings(id),
	user_id INTEGER NOT NULL,
	gateway_payment_id TEXT NOT NULL,
	gateway_order_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	amount INTEGER NOT NULL,
	currency TEXT NOT NULL,
	raw_payload TEXT,
	created_at INTEGER NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_booking ON payments(booking_id)`,
	`CREATE TABLE IF NOT EXISTS expenses (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	trip_id INTEGER NOT NULL REFERENCES trips(id),
	owner_id INTEGER NOT NULL,
	amount INTEGER NOT NULL,
	category TEXT NOT NULL,
	note TEXT,
	participants TEXT NOT NULL,
	ledger TEXT NOT NULL,
	split_finalized INTEGER NOT NULL DEFAULT 0,
	fully_settled INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS expense_members (
	expense_id INTEGER NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
	user_id INTEGER NOT NULL,
	PRIMARY KEY (expense_id, user_id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_members_user ON expense_members(user_id)`,
}

// Migrate creates the schema for the store's driver. Statements are idempotent.
func (s Store) Migrate(ctx context.Context) error {
	schema := mysqlSchema
	if s.Driver == DriverSQLite {
		schema = sqliteSchema
	}
	for i, stmt := range schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
