// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"errors"
	"fmt"
)

// Kind classifies flow failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindUpstream
	KindMissingState
	KindStateMismatch
	KindDiscovery
	KindTokenExchange
	KindBindingMismatch
	KindUserInfo
	KindNotAuthenticated
	KindInvalidRequest
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUpstream:
		return "upstream"
	case KindMissingState:
		return "missing state"
	case KindStateMismatch:
		return "state mismatch"
	case KindDiscovery:
		return "discovery"
	case KindTokenExchange:
		return "token exchange"
	case KindBindingMismatch:
		return "binding mismatch"
	case KindUserInfo:
		return "user info"
	case KindNotAuthenticated:
		return "not authenticated"
	case KindInvalidRequest:
		return "invalid request"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// PublicMessage is the message that's safe to show the end user.  It never
// includes details of the underlying error.
func (k Kind) PublicMessage() string {
	switch k {
	case KindUpstream:
		return "Your carrier was unable to sign you in. Please try again."
	case KindMissingState:
		return "The sign in request is missing its state. Please start again."
	case KindStateMismatch:
		return "The sign in request has expired or is invalid. Please start again."
	case KindDiscovery:
		return "Unable to find your carrier. Please try again."
	case KindTokenExchange:
		return "Unable to complete sign in with your carrier."
	case KindBindingMismatch:
		return "The re-authentication did not match your request."
	case KindUserInfo:
		return "Unable to retrieve your profile from your carrier."
	case KindNotAuthenticated:
		return "You must be signed in."
	case KindInvalidRequest:
		return "Invalid request."
	default:
		return "Something went wrong. Please try again."
	}
}

// Error is a flow failure.  Err is the underlying cause, which is only ever
// logged.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError creates a new Error
func NewError(k Kind, op string, err error) *Error {
	return &Error{Kind: k, Op: op, Err: err}
}

// Error satisfies the error interface
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Err.Error())
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so
// errors.Is(err, &Error{Kind: KindStateMismatch}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
