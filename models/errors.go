package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind is one of the three client-visible failure outcomes.
type ErrorKind int

const (
	KindAuthentication ErrorKind = iota + 1
	KindBadRequest
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindBadRequest:
		return "bad_request"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// GenericFailureMessage is the only message clients see for upstream failures.
const GenericFailureMessage = "Something went wrong"

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the kind onto a response status. Upstream failures are
// reported as 400, not 5xx.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

func Unauthenticated(message string, err error) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message}
}

func Upstream(err error) *AppError {
	return &AppError{Kind: KindUpstream, Message: GenericFailureMessage, Err: err}
}

// KindOf returns the kind of err, treating untyped errors as upstream failures.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUpstream
}
