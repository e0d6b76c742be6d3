package types

import "errors"

// ErrTypeMismatch is returned when an operation expects a node of a
// specific Kind (e.g. Increment on an unsigned integer) and finds
// another one.
var ErrTypeMismatch = errors.New("type mismatch")

// ErrDuplicateMember is returned by Object.AddMemberStrict when the
// member name is already present, violating invariant (2) of the value tree:
// object member names are unique within one object.
var ErrDuplicateMember = errors.New("duplicate member name")

// ErrEmptyMemberName is returned by Object.AddMember for a zero-length
// name, violating invariant (2).
var ErrEmptyMemberName = errors.New("empty member name")
