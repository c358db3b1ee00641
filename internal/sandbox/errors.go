package sandbox

import (
	"errors"
	"net/http"
)

// apiError is a rejection the sandbox reports as {ok:false,error} with status
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(msg string) error   { return &apiError{status: http.StatusBadRequest, message: msg} }
func unauthorized(msg string) error { return &apiError{status: http.StatusUnauthorized, message: msg} }
func forbidden(msg string) error    { return &apiError{status: http.StatusForbidden, message: msg} }
func notFound(msg string) error     { return &apiError{status: http.StatusNotFound, message: msg} }
func conflict(msg string) error     { return &apiError{status: http.StatusConflict, message: msg} }

// statusOf maps an error to its HTTP status
func statusOf(err error) int {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status
	}
	return http.StatusInternalServerError
}
