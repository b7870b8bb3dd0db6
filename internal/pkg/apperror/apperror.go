package apperror

import (
	"errors"
	"net/http"
)

// Kind is the closed set of failure classes the API reports.
type Kind int

const (
	Internal Kind = iota
	Authentication
	Forbidden
	EntityConflict
	NotFound
	Validation
)

// Kind satisfies error so callers can write errors.Is(err, apperror.Forbidden).
func (k Kind) Error() string { return k.String() }

func (k Kind) String() string {
	switch k {
	case Authentication:
		return "Unauthorized"
	case Forbidden:
		return "Forbidden"
	case EntityConflict:
		return "Entity conflict"
	case NotFound:
		return "Not found"
	case Validation:
		return "Validation"
	default:
		return "Internal"
	}
}

// Status is the HTTP status code the kind translates to.
func (k Kind) Status() int {
	switch k {
	case Authentication:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case EntityConflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine readable code used in the response envelope.
func (k Kind) Code() string {
	switch k {
	case Authentication:
		return "UNAUTHORIZED"
	case Forbidden:
		return "FORBIDDEN"
	case EntityConflict:
		return "ENTITY_CONFLICT"
	case NotFound:
		return "NOT_FOUND"
	case Validation:
		return "VALIDATION_ERROR"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}

func (k Kind) defaultMessage() string {
	switch k {
	case Authentication:
		return "Please authenticate!"
	case Forbidden:
		return "Authentication token is not valid. Please login again."
	case EntityConflict:
		return "Email already taken!"
	case NotFound:
		return "Page not found."
	case Validation:
		return "Invalid data format!"
	default:
		return "An unknown error occurred while processing the request on the server."
	}
}

// Error is a typed failure carrying a kind, a human message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	// Code overrides Kind.Code() in the response envelope when set.
	Code  string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Status() int { return e.Kind.Status() }

// ResponseCode returns Code if set, otherwise the kind's default code.
func (e *Error) ResponseCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.Code()
}

// WithCode returns a copy of e with the envelope code replaced.
func (e *Error) WithCode(code string) *Error {
	cp := *e
	cp.Code = code
	return &cp
}

// New builds an Error; an empty message falls back to the kind's default.
func New(kind Kind, message string) *Error {
	if message == "" {
		message = kind.defaultMessage()
	}
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a new Error of the given kind.
func Wrap(kind Kind, message string, cause error) *Error {
	e := New(kind, message)
	e.cause = cause
	return e
}

func NewAuthentication(message string) *Error { return New(Authentication, message) }
func NewForbidden(message string) *Error      { return New(Forbidden, message) }
func NewEntityConflict(message string) *Error { return New(EntityConflict, message) }
func NewNotFound(message string) *Error       { return New(NotFound, message) }
func NewValidation(message string) *Error     { return New(Validation, message) }

// As extracts an *Error from err. Untyped errors come back as Internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(Internal, "", err)
}

// KindOf reports the kind of err, Internal for untyped errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}
