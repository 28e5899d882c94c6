// Package apperror carries the error taxonomy the service layer speaks:
// NotFound, Unauthorized, Forbidden, Conflict and Internal. Handlers render
// any *Error as the structured {statusCode, message, description} envelope;
// everything else becomes a 500.
package apperror

import (
	"errors"
	"net/http"
)

type Error struct {
	StatusCode  int    `json:"statusCode"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

func (e *Error) Error() string {
	if e.Description != "" {
		return e.Message + ": " + e.Description
	}
	return e.Message
}

func New(statusCode int, message, description string) *Error {
	return &Error{StatusCode: statusCode, Message: message, Description: description}
}

func NotFound(message, description string) *Error {
	return New(http.StatusNotFound, message, description)
}

func Unauthorized(message, description string) *Error {
	return New(http.StatusUnauthorized, message, description)
}

func Forbidden(message, description string) *Error {
	return New(http.StatusForbidden, message, description)
}

func Conflict(message, description string) *Error {
	return New(http.StatusConflict, message, description)
}

func BadRequest(message, description string) *Error {
	return New(http.StatusBadRequest, message, description)
}

func Internal(description string) *Error {
	return New(http.StatusInternalServerError, "Internal Server Error", description)
}

// From returns err as *Error, wrapping unexpected failures as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err.Error())
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, statusCode int) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.StatusCode == statusCode
}
