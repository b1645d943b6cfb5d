package quotex

import (
	"errors"
	"fmt"
)

// Kind classifies why a provider call failed so callers can pick a policy.
type Kind string

const (
	KindNetwork     Kind = "network"     // transport failure, timeout or provider-side error
	KindParse       Kind = "parse"       // response could not be decoded
	KindUnsupported Kind = "unsupported" // capability not offered by this session
	KindAuth        Kind = "auth"        // credentials rejected or missing
	KindUnknown     Kind = "unknown"
)

var (
	ErrNetwork     = errors.New("network failure")
	ErrParse       = errors.New("parse failure")
	ErrUnsupported = errors.New("unsupported")
	ErrAuth        = errors.New("authentication failure")
)

// FetchError is returned by every provider call.
type FetchError struct {
	Op   string // e.g., "get candles"
	Kind Kind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNetwork) and friends match on Kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrParse:
		return e.Kind == KindParse
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	case ErrAuth:
		return e.Kind == KindAuth
	}
	return false
}

// KindOf extracts the failure kind, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

func newFetchError(op string, kind Kind, err error) *FetchError {
	return &FetchError{Op: op, Kind: kind, Err: err}
}
