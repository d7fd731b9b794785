// Package repository implements MySQL persistence for accounts and the
// refresh token blacklist.  The sentinel values below let the service layer
// tell "no such row" and "duplicate email" apart from driver failures,
// which are always returned wrapped.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert hits the unique email index.
var ErrEmailExists = errors.New("email already exists")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062
