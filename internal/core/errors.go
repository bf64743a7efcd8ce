package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
)

// FailureKind categorizes why a fetch attempt failed.
type FailureKind string

const (
	KindTimeout           FailureKind = "timeout"
	KindConnection        FailureKind = "connection"
	KindHTTPStatus        FailureKind = "http_status"
	KindContentValidation FailureKind = "content_validation"
	KindPermission        FailureKind = "permission"
	KindUnexpected        FailureKind = "unexpected"
)

// ErrNotImage is the cause of every content validation failure.
var ErrNotImage = errors.New("URL does not point to a valid image file")

// ErrInvalidURL is returned for URLs that are empty or not http(s).
var ErrInvalidURL = errors.New("URL must start with http:// or https://")

// FetchError is the structured failure of a single fetch attempt.
type FetchError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

// Error returns the user-facing message for the failure.
func (e *FetchError) Error() string {
	switch e.Kind {
	case KindTimeout:
		return "Timeout error"
	case KindConnection:
		return "Connection error"
	case KindHTTPStatus:
		return fmt.Sprintf("HTTP %d error", e.StatusCode)
	case KindContentValidation:
		return ErrNotImage.Error()
	case KindPermission:
		return "Permission denied"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unexpected error"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Detail returns the message together with the underlying cause.
func (e *FetchError) Detail() string {
	if e.Err == nil || e.Kind == KindUnexpected || e.Kind == KindContentValidation {
		return e.Error()
	}
	return fmt.Sprintf("%s: %v", e.Error(), e.Err)
}

func newFetchError(kind FailureKind, err error) *FetchError {
	return &FetchError{Kind: kind, Err: err}
}

// Classify maps an arbitrary error onto a FetchError. Errors that already are
// a FetchError keep their kind. Otherwise the priority is timeout, connection,
// permission, unexpected.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	if isTimeout(err) {
		return newFetchError(KindTimeout, err)
	}

	var urlErr *url.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return newFetchError(KindConnection, err)
	}

	if errors.Is(err, fs.ErrPermission) {
		return newFetchError(KindPermission, err)
	}

	return newFetchError(KindUnexpected, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
