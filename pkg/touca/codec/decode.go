package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/trytouca/touca-go/pkg/touca/types"
)

// reader walks a byte slice, refusing to read past its end instead of
// panicking, so a truncated artifact surfaces as ErrDecode rather than
// a runtime panic.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) need(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: truncated buffer (need %d bytes at offset %d, have %d)", ErrDecode, n, r.pos, len(r.buf))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint32() (uint32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) string() (string, error) {
	n, err := r.uint32()
	if err != nil {
		return "", err
	}
	b, err := r.need(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeMessages parses a top-level `Messages` envelope previously
// produced by EncodeMessages.
func DecodeMessages(buf []byte) (Messages, error) {
	r := &reader{buf: buf}

	hdr, err := r.need(len(magic))
	if err != nil {
		return Messages{}, fmt.Errorf("%w: missing magic header", ErrDecode)
	}
	if string(hdr) != magic {
		return Messages{}, fmt.Errorf("%w: bad magic header", ErrDecode)
	}

	major, err := r.byte()
	if err != nil {
		return Messages{}, err
	}
	minor, err := r.byte()
	if err != nil {
		return Messages{}, err
	}
	patch, err := r.byte()
	if err != nil {
		return Messages{}, err
	}
	if err := checkVersion(major, minor, patch); err != nil {
		return Messages{}, err
	}

	count, err := r.uint32()
	if err != nil {
		return Messages{}, err
	}

	out := Messages{Messages: make([]Message, 0, count)}
	for i := uint32(0); i < count; i++ {
		blobLen, err := r.uint32()
		if err != nil {
			return Messages{}, err
		}
		blob, err := r.need(int(blobLen))
		if err != nil {
			return Messages{}, err
		}
		msg, err := DecodeMessage(blob)
		if err != nil {
			return Messages{}, err
		}
		out.Messages = append(out.Messages, msg)
	}
	return out, nil
}

// DecodeMessage parses a single message `buf` previously produced by
// EncodeMessage.
func DecodeMessage(buf []byte) (Message, error) {
	r := &reader{buf: buf}

	var m Message
	var err error
	if m.Metadata.TeamSlug, err = r.string(); err != nil {
		return Message{}, err
	}
	if m.Metadata.TestSuite, err = r.string(); err != nil {
		return Message{}, err
	}
	if m.Metadata.Version, err = r.string(); err != nil {
		return Message{}, err
	}
	if m.Metadata.TestCase, err = r.string(); err != nil {
		return Message{}, err
	}
	if m.Metadata.BuiltAt, err = r.string(); err != nil {
		return Message{}, err
	}

	resultCount, err := r.uint32()
	if err != nil {
		return Message{}, err
	}
	if resultCount > 0 {
		m.Results = make([]Result, 0, resultCount)
	}
	for i := uint32(0); i < resultCount; i++ {
		key, err := r.string()
		if err != nil {
			return Message{}, err
		}
		catByte, err := r.byte()
		if err != nil {
			return Message{}, err
		}
		if catByte != byte(CategoryCheck) && catByte != byte(CategoryAssume) {
			return Message{}, fmt.Errorf("%w: unknown result category %d for key %q", ErrDecode, catByte, key)
		}
		value, err := decodeNode(r)
		if err != nil {
			return Message{}, err
		}
		m.Results = append(m.Results, Result{Key: key, Value: value, Category: Category(catByte)})
	}

	metricCount, err := r.uint32()
	if err != nil {
		return Message{}, err
	}
	if metricCount > 0 {
		m.Metrics = make([]Metric, 0, metricCount)
	}
	for i := uint32(0); i < metricCount; i++ {
		key, err := r.string()
		if err != nil {
			return Message{}, err
		}
		value, err := decodeNode(r)
		if err != nil {
			return Message{}, err
		}
		if _, ok := value.(types.Int); !ok {
			return Message{}, fmt.Errorf("%w: metric %q value is not an integer", ErrDecode, key)
		}
		m.Metrics = append(m.Metrics, Metric{Key: key, Value: value})
	}

	return m, nil
}

func decodeNode(r *reader) (types.Node, error) {
	tagByte, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch typeTag(tagByte) {
	case tagBool:
		b, err := r.byte()
		if err != nil {
			return nil, err
		}
		return types.Bool(b != 0), nil
	case tagInt:
		v, err := r.uint64()
		if err != nil {
			return nil, err
		}
		return types.Int(int64(v)), nil
	case tagUInt:
		v, err := r.uint64()
		if err != nil {
			return nil, err
		}
		return types.UInt(v), nil
	case tagFloat:
		v, err := r.uint32()
		if err != nil {
			return nil, err
		}
		return types.Float(math.Float32frombits(v)), nil
	case tagDouble:
		v, err := r.uint64()
		if err != nil {
			return nil, err
		}
		return types.Double(math.Float64frombits(v)), nil
	case tagString:
		s, err := r.string()
		if err != nil {
			return nil, err
		}
		return types.String(s), nil
	case tagArray:
		count, err := r.uint32()
		if err != nil {
			return nil, err
		}
		arr := types.NewArray()
		for i := uint32(0); i < count; i++ {
			elem, err := decodeNode(r)
			if err != nil {
				return nil, err
			}
			arr.PushBack(elem)
		}
		return arr, nil
	case tagObject:
		tag, err := r.string()
		if err != nil {
			return nil, err
		}
		count, err := r.uint32()
		if err != nil {
			return nil, err
		}
		obj := types.NewObject(tag)
		for i := uint32(0); i < count; i++ {
			name, err := r.string()
			if err != nil {
				return nil, err
			}
			if name == "" {
				return nil, fmt.Errorf("%w: object member missing name", ErrDecode)
			}
			val, err := decodeNode(r)
			if err != nil {
				return nil, err
			}
			if err := obj.AddMemberStrict(name, val); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDecode, err)
			}
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("%w: unknown type tag %d", ErrDecode, tagByte)
	}
}
