package core

import (
	"context"
	"errors"
	"fmt"
	"net"

	"tunelink/pkg/musiclink"
)

// FailureKind classifies a platform client failure.
type FailureKind int

const (
	// FailureNotFound means the provider answered but has no match. Not an
	// operational error.
	FailureNotFound FailureKind = iota
	// FailureTransient covers timeouts, 5xx responses and rate limits;
	// retrying later could succeed.
	FailureTransient
	// FailureAuth means the credential is invalid or expired and could not
	// be refreshed.
	FailureAuth
	// FailurePermanent covers malformed requests and unexpected response
	// schemas; retrying will not help.
	FailurePermanent
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureTransient:
		return "transient"
	case FailureAuth:
		return "auth"
	case FailurePermanent:
		return "permanent"
	}
	return "unknown"
}

// Failure is a classified platform client error.
type Failure struct {
	Kind     FailureKind
	Platform musiclink.Platform
	Err      error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Platform, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Platform, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err as a classified failure for the given platform.
func NewFailure(kind FailureKind, platform musiclink.Platform, err error) *Failure {
	return &Failure{Kind: kind, Platform: platform, Err: err}
}

// NotFound builds the no-match failure for a platform.
func NotFound(platform musiclink.Platform) *Failure {
	return &Failure{Kind: FailureNotFound, Platform: platform}
}

// KindOf extracts the failure kind from err. Unclassified errors are treated
// as permanent, except context cancellation, context deadline and network
// timeouts, which are transient.
func KindOf(err error) FailureKind {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FailureTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTransient
	}

	return FailurePermanent
}

// IsNotFound reports whether err classifies as a no-match outcome.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == FailureNotFound
}

// ClassifyStatus maps an HTTP status code from a provider to a failure kind.
func ClassifyStatus(status int) FailureKind {
	switch {
	case status == 404:
		return FailureNotFound
	case status == 401 || status == 403:
		return FailureAuth
	case status == 429 || status >= 500:
		return FailureTransient
	default:
		return FailurePermanent
	}
}
