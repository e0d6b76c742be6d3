// Package testcase implements the Test Case document: the per-run
// bundle of checks, assumptions, and metrics captured under one
// {team, suite, version, case} slug quadruple (spec §3, §4.2).
package testcase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trytouca/touca-go/pkg/touca/codec"
	"github.com/trytouca/touca-go/pkg/touca/types"
)

// Errors returned by capture operations, per spec §7's taxonomy.
var (
	ErrTypeConflict = errors.New("type conflict")
	ErrNotFound     = errors.New("not found")
)

// Category distinguishes a captured result's contribution to scoring
// (Check) from an invariant assertion shown alongside it (Assume).
type Category uint8

const (
	Check Category = iota
	Assume
)

// result is one entry of the results map.
type result struct {
	value    types.Node
	category Category
}

// metric is a pair of wall-clock instants; a metric whose start is the
// Unix epoch and whose end is offset from it by the duration represents
// a directly-reported duration (spec
// §3, "A metric may be provided directly as a duration").
type metric struct {
	start time.Time
	end   time.Time
}

func (m metric) hasEnd() bool {
	return !m.end.IsZero()
}

func (m metric) durationMs() int64 {
	return m.end.Sub(m.start).Milliseconds()
}

// Metadata identifies which team/suite/version/case a TestCase belongs
// to and when it was created.
type Metadata struct {
	TeamSlug  string
	SuiteSlug string
	Version   string
	CaseSlug  string
	BuiltAt   time.Time
}

// TestCase aggregates one execution's captured results and metrics. A
// TestCase is created by a Store the first time it's referenced and
// mutated only through the operations below until Clear or a submit
// marks it posted (spec §3, "Lifecycle").
type TestCase struct {
	mu       sync.Mutex
	metadata Metadata
	results  map[string]*result
	order    []string // insertion order, for deterministic binary encoding
	metrics  map[string]*metric
	mOrder   []string
	posted   bool
	dirty    bool
}

// New creates an empty TestCase for the given metadata, stamping
// BuiltAt with the current time if it is zero.
func New(meta Metadata) *TestCase {
	if meta.BuiltAt.IsZero() {
		meta.BuiltAt = time.Now().UTC()
	}
	return &TestCase{
		metadata: meta,
		results:  make(map[string]*result),
		metrics:  make(map[string]*metric),
	}
}

// Metadata returns a copy of the test case's identifying metadata.
func (tc *TestCase) Metadata() Metadata {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.metadata
}

// Posted reports whether this test case has been marked posted to the
// platform since its last mutation.
func (tc *TestCase) Posted() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.posted
}

// MarkPosted marks the test case as posted; the next capture re-dirties
// it (spec §3, "Re-capturing under the same test case after submit
// re-dirties it").
func (tc *TestCase) MarkPosted() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.posted = true
	tc.dirty = false
}

// Dirty reports whether the test case has unsynced mutations.
func (tc *TestCase) Dirty() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.dirty
}

func (tc *TestCase) markDirty() {
	tc.dirty = true
	tc.posted = false
}

func (tc *TestCase) upsert(key string, value types.Node, category Category) {
	if _, exists := tc.results[key]; !exists {
		tc.order = append(tc.order, key)
	}
	tc.results[key] = &result{value: value, category: category}
	tc.markDirty()
}

// Check inserts or replaces a regression-scored result. The reference
// permits replacing an existing key with a value of a different type
// (spec open question #2; SPEC_FULL.md decision #2).
func (tc *TestCase) Check(key string, value types.Node) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.upsert(key, value, Check)
}

// Assume inserts or replaces an invariant-assertion result.
func (tc *TestCase) Assume(key string, value types.Node) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.upsert(key, value, Assume)
}

// AddArrayElement appends value to the array stored at key, creating a
// single-element array if key is absent. Fails with ErrTypeConflict if
// key holds a non-array value.
func (tc *TestCase) AddArrayElement(key string, value types.Node) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	existing, ok := tc.results[key]
	if !ok {
		arr := types.NewArray(value)
		tc.upsert(key, arr, Check)
		return nil
	}
	arr, ok := existing.value.(*types.Array)
	if !ok {
		return fmt.Errorf("%w: key %q is not an array", ErrTypeConflict, key)
	}
	arr.PushBack(value)
	tc.markDirty()
	return nil
}

// AddHitCount increments the unsigned hit counter at key, creating it
// at 1 if absent. Fails with ErrTypeConflict if key holds a non-
// unsigned value.
func (tc *TestCase) AddHitCount(key string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	existing, ok := tc.results[key]
	if !ok {
		tc.upsert(key, types.NewUInt(1), Check)
		return nil
	}
	next, err := types.Increment(existing.value)
	if err != nil {
		return fmt.Errorf("%w: key %q is not an unsigned integer", ErrTypeConflict, key)
	}
	existing.value = next
	tc.markDirty()
	return nil
}

// Tic begins a metric named key. Calling Tic again on the same key
// restarts it.
func (tc *TestCase) Tic(key string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, exists := tc.metrics[key]; !exists {
		tc.mOrder = append(tc.mOrder, key)
	}
	tc.metrics[key] = &metric{start: time.Now()}
}

// Toc finalizes the metric named key, recording the elapsed time since
// Tic. Returns ErrNotFound if Tic was never called for key (spec §4.2).
func (tc *TestCase) Toc(key string) error {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	m, ok := tc.metrics[key]
	if !ok {
		return fmt.Errorf("%w: toc(%q) without a matching tic", ErrNotFound, key)
	}
	m.end = time.Now()
	tc.markDirty()
	return nil
}

// AddMetric directly inserts a duration in milliseconds, equivalent to
// a Tic immediately followed by a Toc whose difference equals
// durationMs (spec §4.2).
func (tc *TestCase) AddMetric(key string, durationMs int64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if _, exists := tc.metrics[key]; !exists {
		tc.mOrder = append(tc.mOrder, key)
	}
	start := time.Unix(0, 0).UTC()
	tc.metrics[key] = &metric{start: start, end: start.Add(time.Duration(durationMs) * time.Millisecond)}
	tc.markDirty()
}

// Timer is a guard returned by Scope; calling Stop (typically via
// defer) finalizes the metric it began, covering any suspension inside
// the guarded region (spec §9, "Scoped timers").
type Timer struct {
	tc  *TestCase
	key string
}

// Scope begins a metric named key and returns a guard whose Stop method
// ends it. Intended to be used as `defer tc.Scope("key").Stop()`.
func (tc *TestCase) Scope(key string) *Timer {
	tc.Tic(key)
	return &Timer{tc: tc, key: key}
}

// Stop finalizes the timer's metric. Only the first call has an
// effect; subsequent calls are no-ops.
func (t *Timer) Stop() {
	if t == nil || t.tc == nil {
		return
	}
	_ = t.tc.Toc(t.key)
	t.tc = nil
}

// Clear drops all results and metrics, marking the test case dirty.
func (tc *TestCase) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.results = make(map[string]*result)
	tc.order = nil
	tc.metrics = make(map[string]*metric)
	tc.mOrder = nil
	tc.markDirty()
}

// ToMessage projects the test case into its wire Message form for the
// binary codec. Dangling tics (no matching toc) are silently excluded,
// per spec §4.2 and §8.7.
func (tc *TestCase) ToMessage() codec.Message {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	msg := codec.Message{
		Metadata: codec.Metadata{
			TeamSlug:  tc.metadata.TeamSlug,
			TestSuite: tc.metadata.SuiteSlug,
			Version:   tc.metadata.Version,
			TestCase:  tc.metadata.CaseSlug,
			BuiltAt:   tc.metadata.BuiltAt.Format("2006-01-02T15:04:05.000Z"),
		},
	}

	for _, key := range tc.order {
		r := tc.results[key]
		cat := codec.CategoryCheck
		if r.category == Assume {
			cat = codec.CategoryAssume
		}
		msg.Results = append(msg.Results, codec.Result{Key: key, Value: r.value, Category: cat})
	}

	for _, key := range tc.mOrder {
		m := tc.metrics[key]
		if !m.hasEnd() {
			continue
		}
		msg.Metrics = append(msg.Metrics, codec.Metric{Key: key, Value: types.NewInt(m.durationMs())})
	}

	return msg
}

// FromMessage reconstructs a TestCase from its decoded wire Message.
func FromMessage(msg codec.Message) (*TestCase, error) {
	builtAt, err := time.Parse("2006-01-02T15:04:05.000Z", msg.Metadata.BuiltAt)
	if err != nil {
		builtAt = time.Time{}
	}
	tc := New(Metadata{
		TeamSlug:  msg.Metadata.TeamSlug,
		SuiteSlug: msg.Metadata.TestSuite,
		Version:   msg.Metadata.Version,
		CaseSlug:  msg.Metadata.TestCase,
		BuiltAt:   builtAt,
	})

	for _, r := range msg.Results {
		cat := Check
		if r.Category == codec.CategoryAssume {
			cat = Assume
		}
		tc.upsert(r.Key, r.Value, cat)
	}

	for _, m := range msg.Metrics {
		durNode, ok := m.Value.(types.Int)
		if !ok {
			return nil, fmt.Errorf("metric %q value is not an integer", m.Key)
		}
		tc.AddMetric(m.Key, int64(durNode))
	}
	tc.dirty = false
	return tc, nil
}

// Results returns a snapshot of {key -> value} for the given category
// as a map; it carries no key order.
func (tc *TestCase) Results(category Category) map[string]types.Node {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make(map[string]types.Node)
	for _, key := range tc.order {
		r := tc.results[key]
		if r.category == category {
			out[key] = r.value
		}
	}
	return out
}

// Metrics returns a snapshot of {key -> duration_ms} for metrics that
// have both a start and an end; dangling tics are omitted.
func (tc *TestCase) Metrics() map[string]int64 {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make(map[string]int64)
	for _, key := range tc.mOrder {
		m := tc.metrics[key]
		if m.hasEnd() {
			out[key] = m.durationMs()
		}
	}
	return out
}
