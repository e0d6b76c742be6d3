package codec

import "errors"

// ErrDecode is the sentinel for every malformed-artifact failure: a
// truncated buffer, an unknown type tag, a missing object name, or a
// metric whose value isn't an integer (spec §4.1, "Failure modes").
// Call sites wrap it with fmt.Errorf("%w: ...") for context.
var ErrDecode = errors.New("decode error")

// ErrUnsupportedVersion is returned when a buffer's schema version
// falls outside the range this decoder understands.
var ErrUnsupportedVersion = errors.New("unsupported schema version")
