// Package provider hides each generative backend behind one call contract and
// normalizes backend failures into a shared error taxonomy.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind is the rotation-relevant class of a provider failure.
type Kind int

const (
	// KindUnknown failures are retried on the next credential and recorded as ERROR.
	KindUnknown Kind = iota
	// KindThrottled is a rate limit, quota or overload signal.
	KindThrottled
	// KindRequest is a malformed request. Rotating credentials cannot fix it.
	KindRequest
	// KindTransport is a network-level failure.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindThrottled:
		return "throttled"
	case KindRequest:
		return "request"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Provider   string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsThrottled reports whether err is a rate limit or overload failure.
func IsThrottled(err error) bool { return KindOf(err) == KindThrottled }

// IsRequest reports whether err is a non-retryable malformed-request failure.
func IsRequest(err error) bool { return KindOf(err) == KindRequest }

// IsTransport reports whether err is a network failure.
func IsTransport(err error) bool { return KindOf(err) == KindTransport }

var throttleMarkers = []string{
	"429",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"too many requests",
	"quota",
	"resource_exhausted",
	"resource has been exhausted",
	"exhausted",
	"overloaded",
	"503",
	"unavailable",
	"capacity",
}

// credentialMarkers identify bad-key responses that some backends send as 400.
// Those must rotate to the next key instead of failing the request.
var credentialMarkers = []string{
	"api key",
	"api_key",
	"apikey",
	"permission denied",
	"unauthenticated",
}

// IsThrottleMessage reports whether a provider message carries rate-limit or
// overload vocabulary.
func IsThrottleMessage(msg string) bool {
	return containsAny(strings.ToLower(msg), throttleMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// Classify normalizes an error into the shared taxonomy. status is the HTTP
// status reported by the backend, or 0 when none was received. An error that is
// already classified is returned unchanged.
func Classify(providerName string, status int, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{
		Kind:       classifyKind(status, err),
		StatusCode: status,
		Provider:   providerName,
		Err:        err,
	}
}

func classifyKind(status int, err error) Kind {
	msg := strings.ToLower(err.Error())

	switch {
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable, status == 529:
		return KindThrottled
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		if containsAny(msg, credentialMarkers) {
			return KindUnknown
		}
		if IsThrottleMessage(msg) {
			return KindThrottled
		}
		return KindRequest
	case status != 0:
		if IsThrottleMessage(msg) {
			return KindThrottled
		}
		return KindUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}
	if IsThrottleMessage(msg) {
		return KindThrottled
	}
	return KindUnknown
}
