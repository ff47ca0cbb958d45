// Package apperr defines the coded domain errors returned by the booking
// services.  Every error carries a stable numeric code, a machine name, a
// human message and a Kind that handlers map onto an HTTP status.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindInternal     Kind = "INTERNAL"
)

// Error is a domain failure with a stable code.
type Error struct {
	Code    int
	Name    string
	Message string
	Kind    Kind
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Name, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code, so wrapped copies still
// compare equal to the package-level values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// WithMessage returns a copy of e with a different human message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func newError(code int, name string, kind Kind, message string) *Error {
	return &Error{Code: code, Name: name, Kind: kind, Message: message}
}

var (
	UserAlreadyExists          = newError(1, "USER_ALREADY_EXISTS", KindConflict, "User already exists")
	UserNotFound               = newError(2, "USER_NOT_FOUND", KindNotFound, "User not found")
	MovieNotFound              = newError(3, "MOVIE_NOT_FOUND", KindNotFound, "Movie not found")
	SessionNotFound            = newError(6, "SESSION_NOT_FOUND", KindNotFound, "Session not found")
	SessionAlreadyExists       = newError(7, "SESSION_ALREADY_EXISTS", KindConflict, "A session already exists for this room, date and time slot")
	UserNotOldEnough           = newError(8, "USER_NOT_OLD_ENOUGH", KindBadRequest, "User does not meet the age restriction for this movie")
	TicketNotFound             = newError(10, "TICKET_NOT_FOUND", KindNotFound, "Ticket not found")
	TicketAlreadyUsed          = newError(11, "TICKET_ALREADY_USED", KindConflict, "Ticket has already been used")
	UserNotAuthorized          = newError(12, "USER_NOT_AUTHORIZED", KindUnauthorized, "User is not authorized")
	ThereAreNoMovies           = newError(13, "THERE_ARE_NO_MOVIES", KindNotFound, "There are no movies")
	MovieIsNotActive           = newError(14, "MOVIE_IS_NOT_ACTIVE", KindNotFound, "Movie is not active")
	TicketDoesNotBelongToUser  = newError(15, "TICKET_DOES_NOT_BELONG_TO_USER", KindForbidden, "Ticket does not belong to user")
	SessionAlreadyPassed       = newError(16, "SESSION_ALREADY_PASSED", KindBadRequest, "Session has already passed")
	MovieHasNoSessionsToDelete = newError(17, "MOVIE_HAS_NO_SESSIONS_TO_DELETE", KindBadRequest, "Movie has no sessions to delete")
	ValidationFailed           = newError(18, "VALIDATION_FAILED", KindBadRequest, "Request validation failed")
	ForbiddenRole              = newError(19, "FORBIDDEN_ROLE", KindForbidden, "Role is not allowed to perform this operation")
)

// Validation returns a ValidationFailed error with a specific message.
func Validation(format string, args ...any) *Error {
	return ValidationFailed.WithMessage(format, args...)
}

// As extracts the domain error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// HTTPStatus maps a kind onto a response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
