package db

import "strings"

// IsUniqueViolation reports whether the provided error references a unique
// constraint violation. An optional constraint name narrows the match to a
// specific index. The sqlite message form is covered so dev-mode behaves
// like postgres.
func IsUniqueViolation(err error, constraint ...string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if len(constraint) > 0 && constraint[0] != "" {
		return strings.Contains(msg, constraint[0])
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
