// Package marketplace holds the backend's business rules for accounts,
// listings, orders and uploads.
package marketplace

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/validate"
)

// Error is a failure the API reports to the caller as
// {success:false, message, errors?} with Status.
type Error struct {
	Status  int
	Message string
	Errors  []models.FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func badRequest(message string) *Error   { return newError(http.StatusBadRequest, message) }
func unauthorized(message string) *Error { return newError(http.StatusUnauthorized, message) }
func forbidden(message string) *Error    { return newError(http.StatusForbidden, message) }
func notFound(message string) *Error     { return newError(http.StatusNotFound, message) }

// invalid turns a form validation failure into a 400 carrying every
// field error.
func invalid(err error) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return &Error{Status: http.StatusBadRequest, Message: verr.Message, Errors: verr.Errors, Err: err}
	}
	return err
}

// AsError reports whether err carries an API-facing *Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func paging(page, limit, defaultLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	// Keeps (page-1)*limit from overflowing into a negative offset.
	if page > math.MaxInt32/limit {
		page = math.MaxInt32 / limit
	}
	return page, limit, (page - 1) * limit
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)
