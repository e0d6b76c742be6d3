package codec

import (
	"fmt"

	"github.com/blang/semver"
)

// SchemaVersion is the version this encoder stamps onto every envelope.
// It is independent of the module's own release version: it only needs
// to bump when the wire layout changes in a way old decoders can't
// tolerate.
var SchemaVersion = semver.MustParse("1.0.0")

// supportedRange is the set of schema versions this decoder accepts.
// Widening it (e.g. to ">=1.0.0 <3.0.0") is how a future layout change
// stays backward compatible, per spec §4.1's "forward/backward
// compatibility tolerance" requirement.
var supportedRange = semver.MustParseRange(">=1.0.0 <2.0.0")

func checkVersion(major, minor, patch uint8) error {
	v := semver.Version{Major: uint64(major), Minor: uint64(minor), Patch: uint64(patch)}
	if !supportedRange(v) {
		return fmt.Errorf("%w: envelope schema %d.%d.%d is outside supported range", ErrUnsupportedVersion, major, minor, patch)
	}
	return nil
}
