package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tair/storefront/pkg/circuitbreaker"
)

// ErrCircuitOpen is wrapped in a TransportError when a resource's breaker
// rejects the call without touching the network.
var ErrCircuitOpen = circuitbreaker.ErrOpen

// TransportError means the request produced no usable answer: the network
// failed, the body could not be decoded, or the server failed without one.
type TransportError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: HTTP %d: %v", e.Method, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Failure is an application-level rejection: the backend answered with
// ok=false or an error status and a reason.
type Failure struct {
	Status int
	Reason string
}

func (e *Failure) Error() string {
	return e.Reason
}

// IsTransport reports whether err is a transport error
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsFailure unwraps an application failure
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// countsAsOutage decides which errors trip a breaker
func countsAsOutage(err error) bool {
	if IsTransport(err) {
		return true
	}
	if f, ok := AsFailure(err); ok {
		return f.Status >= http.StatusInternalServerError
	}
	return false
}
