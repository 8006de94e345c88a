// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors that abort a builtin action.
package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert.
type Kind uint8

const (
	// Validation rejects malformed or out-of-range input.
	Validation Kind = iota + 1
	// Auth rejects a missing authority.
	Auth
	// Resource rejects an action that lacks balance, votes or rewards.
	Resource
	// Consistency reports a broken state invariant.
	Consistency
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case Resource:
		return "resource"
	case Consistency:
		return "consistency"
	default:
		return "unknown"
	}
}

type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

// Require returns a revert of the kind when cond is false.
func Require(cond bool, kind Kind, message string) error {
	if cond {
		return nil
	}
	return New(kind, message)
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err, or 0 if err is not a revert.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return 0
}

// IsConsistency reports whether err is a broken invariant rather than a user error.
func IsConsistency(err error) bool {
	return KindOf(err) == Consistency
}
