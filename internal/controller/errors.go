package controller

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a network operation did not produce a result.
type FailureKind int

const (
	// KindNetwork: the request never got a response (refused, timeout, cancelled).
	KindNetwork FailureKind = iota + 1
	// KindStatus: the peer answered with a non-200 status.
	KindStatus
	// KindDecode: the peer answered 200 but the body was unusable.
	KindDecode
)

func (k FailureKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// FetchError is returned by every network operation of the loop.
type FetchError struct {
	Op         string
	Kind       FailureKind
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus && e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, treating anything that is
// not a FetchError as a network failure.
func KindOf(err error) FailureKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindNetwork
}

func networkErr(op string, err error) error {
	return &FetchError{Op: op, Kind: KindNetwork, Err: err}
}

func decodeErr(op string, err error) error {
	return &FetchError{Op: op, Kind: KindDecode, Err: err}
}
