// Package repository implements the persistence layer over database/sql.
// Sentinel values defined here let handlers distinguish failure scenarios:
// ErrDuplicate maps to HTTP 409 on unique-key violations, ErrConflict maps
// to HTTP 409 when dependent records block a delete. Missing rows are
// reported as sql.ErrNoRows, matching QueryRow semantics.
package repository

import (
	"errors"
	"strings"
)

// ErrDuplicate is returned when an insert violates a unique constraint,
// such as registering a username or email that already exists.
var ErrDuplicate = errors.New("duplicate entry")

// ErrConflict is returned when a delete cannot proceed because dependent
// rows still reference the record (e.g. deleting a project that still has
// sprints or tasks).
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when an insert or update points at a
// parent row that does not exist, such as creating a sprint for an unknown
// project.
var ErrInvalidReference = errors.New("invalid reference")

// MySQL error numbers surface in the driver error text; 1062 is a
// duplicate key, 1451 a foreign-key restriction on delete, 1452 a missing
// parent row on insert.
func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

func isFKRestrictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1451")
}

func isFKParentErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1452")
}
