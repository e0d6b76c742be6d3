// Package types implements the captured-value tree: a small tagged-union
// data model that distinguishes booleans, the four numeric variants,
// strings, arrays, and objects, and keeps them immutable once inserted
// except for the explicit array-append and hit-count mutations the rest
// of the module performs on them.
package types

import "fmt"

// Kind identifies which variant a Node holds. The wire format and the
// comparison engine both dispatch on Kind instead of a type hierarchy.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt       // signed 64-bit
	KindUInt      // unsigned 64-bit
	KindFloat     // 32-bit
	KindDouble    // 64-bit
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUInt:
		return "uint"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsNumeric reports whether k is one of the four numeric variants.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt, KindUInt, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// IsContainer reports whether k is array or object.
func (k Kind) IsContainer() bool {
	return k == KindArray || k == KindObject
}

// Node is the sum-typed value tree node. Every leaf and container kind
// implements it; Kind() reports which variant a node holds. Callers
// dispatch either on Kind() (the comparator) or by a type switch on
// the concrete Go type (the codec and the JSON projector).
type Node interface {
	Kind() Kind
}

// Bool is a boolean leaf.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

// Int is a signed 64-bit integer leaf.
type Int int64

func (Int) Kind() Kind { return KindInt }

// UInt is an unsigned 64-bit integer leaf.
type UInt uint64

func (UInt) Kind() Kind { return KindUInt }

// Float is a 32-bit floating point leaf.
type Float float32

func (Float) Kind() Kind { return KindFloat }

// Double is a 64-bit floating point leaf.
type Double float64

func (Double) Kind() Kind { return KindDouble }

// String is a UTF-8 string leaf.
type String string

func (String) Kind() Kind { return KindString }

// NewBool, NewInt, ... construct leaves. They exist mainly so call sites
// read as "types.NewInt(42)" instead of a bare conversion, matching the
// constructor-per-kind surface the spec requires.
func NewBool(v bool) Node     { return Bool(v) }
func NewInt(v int64) Node     { return Int(v) }
func NewUInt(v uint64) Node   { return UInt(v) }
func NewFloat(v float32) Node { return Float(v) }
func NewDouble(v float64) Node { return Double(v) }
func NewString(v string) Node { return String(v) }

// Increment adds one to an unsigned-integer node, returning the new
// node. It raises ErrTypeMismatch if n is not KindUInt, per the
// `increment()` contract on hit counters (spec §4.1).
func Increment(n Node) (Node, error) {
	u, ok := n.(UInt)
	if !ok {
		return nil, fmt.Errorf("%w: increment requires an unsigned integer, got %s", ErrTypeMismatch, n.Kind())
	}
	return UInt(uint64(u) + 1), nil
}
