// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package apperr carries user-facing error messages together with an error
// kind from containerd/errdefs. Handlers use the kind to pick an HTTP status
// and the message as the response body; everything else stays in the logs.
package apperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/containerd/errdefs"
)

// Error is a classified error with a message that is safe to show to clients.
type Error struct {
	Msg  string
	Kind error
}

func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the kind so errdefs.IsNotFound and friends work through
// any amount of fmt.Errorf wrapping.
func (e *Error) Unwrap() error { return e.Kind }

func newErr(kind error, msg string) error {
	return &Error{Msg: msg, Kind: kind}
}

// Invalid reports malformed or missing input.
func Invalid(msg string) error { return newErr(errdefs.ErrInvalidArgument, msg) }

// NotFound reports a referenced entity that does not exist.
func NotFound(msg string) error { return newErr(errdefs.ErrNotFound, msg) }

// Conflict reports a uniqueness violation.
func Conflict(msg string) error { return newErr(errdefs.ErrAlreadyExists, msg) }

// Unauthenticated reports bad or missing credentials.
func Unauthenticated(msg string) error { return newErr(errdefs.ErrUnauthenticated, msg) }

// Forbidden reports an authenticated caller that may not proceed.
func Forbidden(msg string) error { return newErr(errdefs.ErrPermissionDenied, msg) }

// Unavailable reports a disabled or failing upstream dependency.
func Unavailable(msg string) error { return newErr(errdefs.ErrUnavailable, msg) }

// Timeout reports an upstream call that exceeded its deadline.
func Timeout(msg string) error { return newErr(context.DeadlineExceeded, msg) }

// Message returns the client-facing message for err. Unclassified errors
// collapse to a generic message so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Internal server error"
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch {
	case errdefs.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errdefs.IsNotFound(err):
		return http.StatusNotFound
	case errdefs.IsAlreadyExists(err):
		return http.StatusConflict
	case errdefs.IsUnauthorized(err):
		return http.StatusUnauthorized
	case errdefs.IsPermissionDenied(err):
		return http.StatusForbidden
	case errdefs.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
