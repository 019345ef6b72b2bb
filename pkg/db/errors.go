package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation       = "23505"
	pgCheckViolation        = "23514"
	pgInsufficientPrivilege = "42501"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided, the helper looks for the
// constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	if constraintName != "" {
		return chainContains(err, constraintName)
	}
	return chainContains(err, "duplicate key value") || chainContains(err, "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint failure.
func IsCheckViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}
	if constraintName != "" {
		return chainContains(err, constraintName)
	}
	return chainContains(err, "CHECK constraint failed")
}

// PolicyViolation returns the message raised by a row policy trigger, if err is one.
func PolicyViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInsufficientPrivilege {
		return pgErr.Message, true
	}
	return "", false
}

// chainContains matches text against every error in the unwrap chain, since
// typed wrappers do not repeat their cause in Error().
func chainContains(err error, text string) bool {
	for ; err != nil; err = errors.Unwrap(err) {
		if strings.Contains(err.Error(), text) {
			return true
		}
	}
	return false
}
