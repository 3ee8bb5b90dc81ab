// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pad

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// Kind categorizes controller errors for reporting.
type Kind int

const (
	// KindInvalid is bad user input: an empty prompt or a malformed file.
	KindInvalid Kind = iota
	// KindBusy is an action refused while a reply is streaming.
	KindBusy
	// KindIO is a failed save or load.
	KindIO
	// KindModel is a missing model or a failed stream.
	KindModel
	// KindInternal is a transcript inconsistency.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBusy:
		return "busy"
	case KindIO:
		return "io"
	case KindModel:
		return "model"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is returned by Controller operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same Kind and Message; Op and Cause are
// ignored.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Sentinel errors for easy checking.
var (
	ErrBusy          = &Error{Kind: KindBusy, Message: "a reply is still being generated"}
	ErrEmptyPrompt   = &Error{Kind: KindInvalid, Message: "prompt is empty"}
	ErrNothingToSave = &Error{Kind: KindInvalid, Message: "Nothing to save yet"}
	ErrNotFound      = &Error{Kind: KindInvalid, Message: "text not found"}
)

func opErr(op string, sentinel *Error) *Error {
	return &Error{Kind: sentinel.Kind, Op: op, Message: sentinel.Message}
}

func wrapErr(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Cause: cause}
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsBusy reports whether err is a busy refusal.
func IsBusy(err error) bool {
	return KindOf(err) == KindBusy
}

// IsInvalid reports whether err is an input error.
func IsInvalid(err error) bool {
	return KindOf(err) == KindInvalid
}
