package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/trytouca/touca-go/pkg/touca/types"
)

// EncodeMessages serializes a batch of messages into the top-level
// `Messages` envelope: a magic/version header followed by one
// length-prefixed blob per message.
func EncodeMessages(m Messages) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(byte(SchemaVersion.Major))
	buf.WriteByte(byte(SchemaVersion.Minor))
	buf.WriteByte(byte(SchemaVersion.Patch))

	writeUint32(&buf, uint32(len(m.Messages)))
	for _, msg := range m.Messages {
		blob := EncodeMessage(msg)
		writeUint32(&buf, uint32(len(blob)))
		buf.Write(blob)
	}
	return buf.Bytes()
}

// EncodeMessage serializes a single Message (metadata + results +
// metrics) into its `buf` representation.
func EncodeMessage(m Message) []byte {
	var buf bytes.Buffer

	writeString(&buf, m.Metadata.TeamSlug)
	writeString(&buf, m.Metadata.TestSuite)
	writeString(&buf, m.Metadata.Version)
	writeString(&buf, m.Metadata.TestCase)
	writeString(&buf, m.Metadata.BuiltAt)

	writeUint32(&buf, uint32(len(m.Results)))
	for _, r := range m.Results {
		writeString(&buf, r.Key)
		buf.WriteByte(byte(r.Category))
		encodeNode(&buf, r.Value)
	}

	writeUint32(&buf, uint32(len(m.Metrics)))
	for _, mt := range m.Metrics {
		writeString(&buf, mt.Key)
		encodeNode(&buf, mt.Value)
	}

	return buf.Bytes()
}

func encodeNode(buf *bytes.Buffer, n types.Node) {
	switch v := n.(type) {
	case types.Bool:
		buf.WriteByte(byte(tagBool))
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case types.Int:
		buf.WriteByte(byte(tagInt))
		writeUint64(buf, uint64(v))
	case types.UInt:
		buf.WriteByte(byte(tagUInt))
		writeUint64(buf, uint64(v))
	case types.Float:
		buf.WriteByte(byte(tagFloat))
		writeUint32(buf, math.Float32bits(float32(v)))
	case types.Double:
		buf.WriteByte(byte(tagDouble))
		writeUint64(buf, math.Float64bits(float64(v)))
	case types.String:
		buf.WriteByte(byte(tagString))
		writeString(buf, string(v))
	case *types.Array:
		buf.WriteByte(byte(tagArray))
		writeUint32(buf, uint32(v.Len()))
		for _, e := range v.Elements() {
			encodeNode(buf, e)
		}
	case *types.Object:
		buf.WriteByte(byte(tagObject))
		writeString(buf, v.Tag())
		names := v.Names()
		writeUint32(buf, uint32(len(names)))
		for _, name := range names {
			val, _ := v.Get(name)
			writeString(buf, name)
			encodeNode(buf, val)
		}
	default:
		panic(fmt.Sprintf("touca/codec: unencodable node type %T", n))
	}
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}
