package db

import "strings"

// IsUniqueViolation reports whether the provided error is a unique-constraint
// violation. Postgres error text carries the constraint name; sqlite reports
// the column list and never the index name, so any sqlite unique failure
// matches regardless of constraintName.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return true
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value")
}
