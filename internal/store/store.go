// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all storefront
// entities. Each store struct wraps a database.Querier and exposes typed
// query methods. Lookups return (nil, nil) when the row does not exist.
package store

import (
	"errors"
	"time"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// that the caller is expected to handle.
var ErrDuplicate = errors.New("duplicate record")

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// now returns the current time in UTC at the precision both drivers keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
