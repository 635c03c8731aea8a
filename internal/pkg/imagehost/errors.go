package imagehost

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

var (
	ErrAllProvidersFailed = errors.New("all image providers failed")
	ErrAssetUnreadable    = errors.New("image asset cannot be read")
	ErrUnexpectedResponse = errors.New("unexpected provider response")
	ErrUnknownProvider    = errors.New("unknown image provider")
)

// FailureKind classifies why a provider attempt failed.
type FailureKind string

const (
	KindTimeout  FailureKind = "timeout"
	KindNetwork  FailureKind = "network"
	KindStatus   FailureKind = "status"
	KindResponse FailureKind = "response"
	KindRequest  FailureKind = "request"
	KindCanceled FailureKind = "canceled"
)

// ProviderError is returned by a provider whose upload did not yield a URL.
type ProviderError struct {
	Provider   string
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error: status=%d: %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, KindRequest when it carries none.
func KindOf(err error) FailureKind {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindRequest
}

func classifyRequestError(ctx context.Context, provider string, err error) *ProviderError {
	kind := KindRequest
	switch {
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		kind = KindCanceled
	case isTimeoutError(ctx, err):
		kind = KindTimeout
	case isNetworkError(err):
		kind = KindNetwork
	}
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH)
}
