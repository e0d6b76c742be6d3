// Package jsonenc implements the deterministic JSON projection of value
// tree nodes and comparison records: stable field order, floats/doubles
// rounded to three fractional digits, and object members ordered by
// name so structural diffs stay stable across runs (spec §4.1, §9).
package jsonenc

import (
	"fmt"
	"math"
	"strconv"

	"github.com/trytouca/touca-go/pkg/touca/types"
)

// Marshal renders a node as a json.RawMessage-compatible byte slice:
// leaves render as their natural JSON scalar, arrays as JSON arrays,
// and objects either as a bare mapping (no type tag) or as a
// single-key wrapper `{tag: {members...}}`.
func Marshal(n types.Node) []byte {
	var buf []byte
	buf = appendNode(buf, n)
	return buf
}

// CanonicalString renders a node's canonical string form (used inside
// comparison records, spec §4.1): a string leaf renders as its raw,
// unquoted text; every other node renders identically to its JSON form.
func CanonicalString(n types.Node) string {
	switch v := n.(type) {
	case types.String:
		return string(v)
	default:
		return string(Marshal(n))
	}
}

func appendNode(buf []byte, n types.Node) []byte {
	switch v := n.(type) {
	case types.Bool:
		if v {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case types.Int:
		return strconv.AppendInt(buf, int64(v), 10)
	case types.UInt:
		return strconv.AppendUint(buf, uint64(v), 10)
	case types.Float:
		return appendFloat(buf, float64(v))
	case types.Double:
		return appendFloat(buf, float64(v))
	case types.String:
		return appendJSONString(buf, string(v))
	case *types.Array:
		buf = append(buf, '[')
		for i, e := range v.Elements() {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendNode(buf, e)
		}
		return append(buf, ']')
	case *types.Object:
		body := appendObjectBody(nil, v)
		if v.Tag() == "" {
			return append(buf, body...)
		}
		buf = append(buf, '{')
		buf = appendJSONString(buf, v.Tag())
		buf = append(buf, ':')
		buf = append(buf, body...)
		return append(buf, '}')
	default:
		panic(fmt.Sprintf("touca/jsonenc: unsupported node type %T", n))
	}
}

func appendObjectBody(buf []byte, o *types.Object) []byte {
	buf = append(buf, '{')
	for i, name := range o.SortedNames() {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, name)
		buf = append(buf, ':')
		val, _ := o.Get(name)
		buf = appendNode(buf, val)
	}
	return append(buf, '}')
}

// appendFloat rounds to at most 3 fractional digits, per spec §4.1 and
// §6, and renders integral results without a trailing ".000".
func appendFloat(buf []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(buf, "null"...)
	}
	rounded := math.Round(f*1000) / 1000
	return strconv.AppendFloat(buf, rounded, 'f', -1, 64)
}

func appendJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for _, r := range s {
		switch r {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if r < 0x20 {
				buf = append(buf, fmt.Sprintf("\\u%04x", r)...)
			} else {
				buf = append(buf, string(r)...)
			}
		}
	}
	return append(buf, '"')
}
