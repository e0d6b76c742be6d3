// Package store implements the Test Case Store: the in-process map of
// declared test cases, plus the two selection policies that decide
// which test case a capture call affects (spec §4.3).
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/trytouca/touca-go/pkg/touca/testcase"
)

// ErrNotFound is returned by ForgetTestCase for an undeclared name.
var ErrNotFound = errors.New("not found")

// Policy selects between the store's two selection strategies.
type Policy uint8

const (
	// Shared selection: the process-wide most-recently-declared case;
	// captures from any caller target it. This is the default.
	Shared Policy = iota
	// PerCaller selection: each Selector handle tracks its own current
	// case independently of every other handle.
	PerCaller
)

// slot holds the name of the currently-selected test case for either a
// shared or a per-caller selection context.
type slot struct {
	mu   sync.Mutex
	name string
	ok   bool
}

func (s *slot) set(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name, s.ok = name, true
}

func (s *slot) get() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name, s.ok
}

// Store is the process-wide map of case name to TestCase. Construct one
// per Client; it is safe for concurrent use.
type Store struct {
	policy Policy

	mu    sync.Mutex
	cases map[string]*testcase.TestCase

	shared *slot // used only when policy == Shared
}

// New creates an empty Store using the given selection policy.
func New(policy Policy) *Store {
	return &Store{
		policy: policy,
		cases:  make(map[string]*testcase.TestCase),
		shared: &slot{},
	}
}

// Selector is a handle representing one logical caller's view of "the
// current test case". Under Shared policy every Selector obtained from
// the same Store resolves to the same slot; under PerCaller policy each
// Selector obtained via NewSelector is independent, matching the spec's
// requirement that an explicit per-caller context object replace
// implicit thread-local selection.
type Selector struct {
	store *Store
	slot  *slot
}

// NewSelector returns a handle for one logical caller. Under Shared
// policy all handles alias the Store's single slot; under PerCaller
// policy each call returns an independent slot.
func (s *Store) NewSelector() *Selector {
	if s.policy == Shared {
		return &Selector{store: s, slot: s.shared}
	}
	return &Selector{store: s, slot: &slot{}}
}

// DeclareTestCase creates name if it doesn't already exist and updates
// sel's selection to point at it (spec §4.3). Returns the test case.
func (s *Store) DeclareTestCase(sel *Selector, meta testcase.Metadata) *testcase.TestCase {
	s.mu.Lock()
	tc, exists := s.cases[meta.CaseSlug]
	if !exists {
		tc = testcase.New(meta)
		s.cases[meta.CaseSlug] = tc
	}
	s.mu.Unlock()

	sel.slot.set(meta.CaseSlug)
	return tc
}

// Current resolves sel's selection to its TestCase. Returns false if
// nothing has been declared yet through sel (or its shared slot).
func (s *Store) Current(sel *Selector) (*testcase.TestCase, bool) {
	name, ok := sel.slot.get()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tc, exists := s.cases[name]
	return tc, exists
}

// ForgetTestCase drops all data for name. Returns ErrNotFound if name
// was never declared (spec §4.3).
func (s *Store) ForgetTestCase(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[name]; !ok {
		return fmt.Errorf("%w: test case %q", ErrNotFound, name)
	}
	delete(s.cases, name)
	return nil
}

// Names returns the names of every currently-declared test case, in no
// particular order.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.cases))
	for name := range s.cases {
		names = append(names, name)
	}
	return names
}

// Get returns the test case named name, if declared.
func (s *Store) Get(name string) (*testcase.TestCase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc, ok := s.cases[name]
	return tc, ok
}

// All returns every declared test case, in no particular order.
func (s *Store) All() []*testcase.TestCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*testcase.TestCase, 0, len(s.cases))
	for _, tc := range s.cases {
		out = append(out, tc)
	}
	return out
}
