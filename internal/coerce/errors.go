// Package coerce converts runtime values between the logical column types
// during loading. Conversions follow a fixed precedence matrix; anything
// outside the matrix is rejected rather than guessed at.
package coerce

import (
	"fmt"

	"github.com/tabload/tabload/internal/schema"
)

// UnsupportedCoercionError is returned when a value has no defined
// conversion between the given pair of logical types. Fatal for that single
// value; the caller decides whether to skip the record or abort the batch.
type UnsupportedCoercionError struct {
	From  schema.DataType
	To    schema.DataType
	Value any
}

func (e *UnsupportedCoercionError) Error() string {
	return fmt.Sprintf("cannot coerce %v from %s to %s", e.Value, e.From, e.To)
}

// MalformedLiteralError is returned when a textual value fails to parse
// under the conversion rule in effect (hex, base64, integer, float, decimal
// or ISO-8601).
type MalformedLiteralError struct {
	Kind    string
	Literal string
	Err     error
}

func (e *MalformedLiteralError) Error() string {
	return fmt.Sprintf("malformed %s literal %q", e.Kind, e.Literal)
}

func (e *MalformedLiteralError) Unwrap() error {
	return e.Err
}

func malformed(kind, literal string, err error) error {
	return &MalformedLiteralError{Kind: kind, Literal: literal, Err: err}
}
