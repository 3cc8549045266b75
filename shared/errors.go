package shared

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can tell a network problem from a rejected request
// or from a local verification failure.
type Kind uint8

const (
	KindGeneric Kind = iota
	KindAPI
	KindConnection
	KindProofVerification
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindConnection:
		return "connection"
	case KindProofVerification:
		return "proof verification"
	default:
		return "generic"
	}
}

var (
	ErrAPI               = &Error{Kind: KindAPI}
	ErrConnection        = &Error{Kind: KindConnection}
	ErrProofVerification = &Error{Kind: KindProofVerification}
)

// Error is returned by every rulerunner operation that fails.
type Error struct {
	Kind Kind
	// StatusCode is the HTTP status for KindAPI errors, zero otherwise.
	StatusCode int
	Msg        string
	Err        error
}

func NewError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func NewAPIError(statusCode int, msg string) *Error {
	return &Error{Kind: KindAPI, StatusCode: statusCode, Msg: msg}
}

func (e *Error) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return fmt.Sprintf("rulerunner %v error", e.Kind)
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A non-zero StatusCode on the target must match too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// KindOf returns the kind of the first *Error in err's chain, or KindGeneric.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}
