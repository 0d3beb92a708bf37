// Copyright (c) 2024 The smvcore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package compileerr defines the fatal and warning error kinds the compiler
// can raise, matching the error table of the specification. Every phase
// wraps its low-level errors into one of these Kinds so that callers can use
// errors.Is/errors.As instead of matching on message text.
package compileerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the distinguishable error/warning categories the compiler
// can emit. Kinds marked "fatal" abort the current command; kinds marked
// "warn" are reported but do not stop compilation.
type Kind int

const (
	// Redefined: a name was declared twice. Fatal.
	Redefined Kind = iota
	// UndefinedSymbol: a name was used but never declared. Fatal.
	UndefinedSymbol
	// CircularDefine: a DEFINE body references itself transitively. Fatal.
	CircularDefine
	// RecursiveModule: a module instantiates itself transitively. Fatal.
	RecursiveModule
	// EmptyRange: a..b with b<a. Fatal.
	EmptyRange
	// InvalidSubrange: a bounded temporal operator has a negative or
	// reversed range. Fatal.
	InvalidSubrange
	// TypeError: a scalar was used where a boolean was expected, or a dot
	// was applied to something that cannot be a base. Fatal.
	TypeError
	// RangeOutOfDomain: a constant is not a member of a variable's range. Fatal.
	RangeOutOfDomain
	// NondetNotAllowed: determinisation was required but the caller forbade
	// it. Fatal.
	NondetNotAllowed
	// NotDeclaredWarning: a variable was listed in the ordering file but
	// never declared. Warning.
	NotDeclaredWarning
	// MissingVarsWarning: declared bits are missing from the ordering file. Warning.
	MissingVarsWarning
	// ConstantInConstraint: a non-trivial constant appears in an
	// INIT/INVAR/TRANS constraint. Warning.
	ConstantInConstraint
)

var kindNames = [...]string{
	Redefined:             "Redefined",
	UndefinedSymbol:       "UndefinedSymbol",
	CircularDefine:        "CircularDefine",
	RecursiveModule:       "RecursiveModule",
	EmptyRange:            "EmptyRange",
	InvalidSubrange:       "InvalidSubrange",
	TypeError:             "TypeError",
	RangeOutOfDomain:      "RangeOutOfDomain",
	NondetNotAllowed:      "NondetNotAllowed",
	NotDeclaredWarning:    "NotDeclaredWarning",
	MissingVarsWarning:    "MissingVarsWarning",
	ConstantInConstraint:  "ConstantInConstraint",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UnknownKind"
}

// Fatal reports whether errors of this kind abort the current command,
// rather than merely being surfaced as a diagnostic.
func (k Kind) Fatal() bool {
	switch k {
	case NotDeclaredWarning, MissingVarsWarning, ConstantInConstraint:
		return false
	default:
		return true
	}
}

// Error is a compiler diagnostic tagged with a Kind and an optional location
// string (e.g. "module.instance.varname" or a file:line for CLI use).
type Error struct {
	Kind    Kind
	Subject string // the name/expression the error concerns, for messages
	Wrapped error  // optional underlying cause
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return e.Kind.String()
	}
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Subject, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Subject)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// New builds a *Error for kind concerning subject, optionally wrapping cause.
func New(kind Kind, subject string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Wrapped: cause}
}

// Newf builds a *Error with a formatted subject.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Subject: fmt.Sprintf(format, args...)}
}

// Is reports whether err (or any error it wraps) is a compileerr.Error of
// the given kind. This is the primary way callers should check error kinds:
//
//	if compileerr.Is(err, compileerr.CircularDefine) { ... }
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
