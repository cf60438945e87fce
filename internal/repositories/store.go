package repositories

import (
	"context"
	"database/sql"

	intdb "travelbackend/internal/db"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Store is the ledger store: repositories over one pool plus transactions.
type Store struct {
	DB     *sql.DB
	Driver string
}

// Repos is the handle passed to callers; inside WithTx every repository is
// bound to the same transaction.
type Repos struct {
	Bookings BookingRepository
	Payments PaymentRepository
	Expenses ExpenseRepository
	Trips    TripRepository
	Users    UserRepository
}

func NewStore(db *sql.DB, driver string) Store {
	return Store{DB: db, Driver: driver}
}

func reposFor(q intdb.DBTX, driver string) Repos {
	return Repos{
		Bookings: BookingRepository{DB: q, Driver: driver},
		Payments: PaymentRepository{DB: q},
		Expenses: ExpenseRepository{DB: q, Driver: driver},
		Trips:    TripRepository{DB: q},
		Users:    UserRepository{DB: q},
	}
}

// Repos returns repositories outside any transaction.
func (s Store) Repos() Repos {
	return reposFor(s.DB, s.Driver)
}

// WithTx commits everything fn writes atomically, or nothing.
func (s Store) WithTx(ctx context.Context, fn func(r Repos) error) error {
	return intdb.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		return fn(reposFor(tx, s.Driver))
	})
}

// WithTxRetry re-runs fn on deadlock. fn must not call external systems.
func (s Store) WithTxRetry(ctx context.Context, fn func(r Repos) error) error {
	return intdb.WithTxRetry(ctx, s.DB, 3, func(tx *sql.Tx) error {
		return fn(reposFor(tx, s.Driver))
	})
}

// lockClause returns the row-lock suffix; SQLite serializes writers instead.
func lockClause(driver string) string {
	if driver == DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}

type scanner interface {
	Scan(dest ...any) error
}
