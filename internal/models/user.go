// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices are rendered as JSON numbers, matching what storefront clients expect.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role represents a user's permission level in the system.
type Role string

const (
	RoleUser   Role = "user"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// UserStatus controls whether an account may log in.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserBlocked
}

// User represents a storefront account with optional 2FA fields.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialize the hash
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	TOTPSecret   *string    `json:"-"` // Nullable; set during 2FA setup
	TOTPEnabled  bool       `json:"totpEnabled"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Membership is the current entitlement, attached by the auth service.
	Membership *Membership `json:"membership,omitempty"`
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsStaff returns true for roles allowed to manage the catalog.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleEditor
}

// IsBlocked returns true if the account has been blocked by an admin.
func (u *User) IsBlocked() bool {
	return u.Status == UserBlocked
}

// UserSummary is a user row as listed in the admin panel.
type UserSummary struct {
	User
	Spent decimal.Decimal `json:"spent"`
}
