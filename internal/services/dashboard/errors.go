package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TransportError reports that a request did not produce a usable response:
// the backend was unreachable, answered with a non-2xx status, or its
// circuit breaker is open.
type TransportError struct {
	Endpoint   string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: GET %s: status %d", e.Endpoint, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: GET %s: %v", e.Endpoint, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a 2xx response whose body is not the expected JSON.
type DecodeError struct {
	Endpoint string
	URL      string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode %s: %v", e.Endpoint, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PartialHistoryError is the failure of one sensor's history while the other
// sensors of the same refresh may still succeed.
type PartialHistoryError struct {
	SensorID int
	Err      error
}

func (e *PartialHistoryError) Error() string {
	return fmt.Sprintf("history of sensor %d: %v", e.SensorID, e.Err)
}

func (e *PartialHistoryError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}

// errorKind is the label used for fetch error metrics.
func errorKind(err error) string {
	var (
		te *TransportError
		de *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &de):
		return "decode"
	case errors.As(err, &te) && te.StatusCode != 0:
		return "status"
	default:
		return "transport"
	}
}

// tripsBreaker decides which failures count against the backend's health.
// Client-side statuses (404 for a sensor without measurements) and bad
// bodies do not; an unreachable backend and 5xx do.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.StatusCode == 0 || te.StatusCode >= http.StatusInternalServerError
}
