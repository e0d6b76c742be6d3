// Package codec implements the deterministic, self-describing binary
// encoding for captured test case artifacts: a length-prefixed table
// format that preserves the value tree's numeric-variant distinction
// exactly, and tolerates being read by a decoder built against a
// different (but schema-compatible) encoder version.
package codec

import "github.com/trytouca/touca-go/pkg/touca/types"

// Category distinguishes a captured result's contribution to scoring
// from an invariant assumption (spec §3, Test Case).
type Category uint8

const (
	CategoryCheck  Category = 0
	CategoryAssume Category = 1
)

// Metadata mirrors the wire `Metadata` table: team/suite/version/case
// slugs plus the UTC ISO-8601 millisecond creation timestamp.
type Metadata struct {
	TeamSlug  string
	TestSuite string
	Version   string
	TestCase  string
	BuiltAt   string
}

// Result is one entry of the wire `Results` table.
type Result struct {
	Key      string
	Value    types.Node
	Category Category
}

// Metric is one entry of the wire `Metrics` table. Value must decode to
// an Int (milliseconds); DecodeMessage rejects any other type with
// ErrDecode. EncodeMessage does not check it.
type Metric struct {
	Key   string
	Value types.Node
}

// Message is the decoded form of one `MessageBuffer.buf`: a single test
// case's metadata, results, and metrics.
type Message struct {
	Metadata Metadata
	Results  []Result
	Metrics  []Metric
}

// Messages is the top-level envelope wrapping many Message blobs, the
// unit submitted to the platform in one batch.
type Messages struct {
	Messages []Message
}
