/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure a console operation can report.
type ErrorKind int

const (
	UnknownKind ErrorKind = iota
	ConnectionUnavailable
	MetadataUnavailable
	NotFound
	InvalidFilter
	ValidationError
	StatementFailed
	BackupFailed
	PermissionDenied
)

var errorKindNames = map[ErrorKind]string{
	UnknownKind:           "unknown error",
	ConnectionUnavailable: "connection unavailable",
	MetadataUnavailable:   "metadata unavailable",
	NotFound:              "not found",
	InvalidFilter:         "invalid filter",
	ValidationError:       "validation error",
	StatementFailed:       "statement failed",
	BackupFailed:          "backup failed",
	PermissionDenied:      "permission denied",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return errorKindNames[UnknownKind]
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrConnectionUnavailable = &Error{Kind: ConnectionUnavailable}
	ErrMetadataUnavailable   = &Error{Kind: MetadataUnavailable}
	ErrNotFound              = &Error{Kind: NotFound}
	ErrInvalidFilter         = &Error{Kind: InvalidFilter}
	ErrValidation            = &Error{Kind: ValidationError}
	ErrStatementFailed       = &Error{Kind: StatementFailed}
	ErrBackupFailed          = &Error{Kind: BackupFailed}
	ErrPermissionDenied      = &Error{Kind: PermissionDenied}
)

// Error is the outcome reported by a failed operation. Message carries the
// human readable text; when it is empty the wrapped driver or tool error is
// shown verbatim. Hint is a best effort classification and never a contract.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
	Hint    string
	Err     error
}

// Errorf builds an *Error with a formatted message.
func Errorf(kind ErrorKind, op string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around err keeping its text as the message.
func Wrap(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithHint sets the hint and returns the receiver.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Hint != "" {
		b.WriteString(" (")
		b.WriteString(e.Hint)
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownKind
}
