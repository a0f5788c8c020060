// Package pg persists accounts and transactions in PostgreSQL. Per-account
// mutation serialization relies on the database, not in-process locking:
// account saves carry an optimistic version check and transfers lock both
// rows inside one transaction in ascending account id order.
package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"transferd.org/internal/ledger"
)

// Open connects to PostgreSQL with tuned pool defaults.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// retryableState reports Postgres error states that mean the commit lost a
// race: serialization failure and deadlock detection.
func retryableState(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// mapConflict converts concurrency-related database errors into the ledger
// sentinel, leaving everything else intact.
func mapConflict(err error) error {
	if retryableState(err) {
		return ledger.ErrConflict
	}
	return err
}
