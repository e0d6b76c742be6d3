package types

import (
	"fmt"
	"sort"
)

// Object is a named container: an optional type tag (e.g. a class name
// captured from the instrumented language) plus a mapping from member
// name to node. Member insertion order is preserved for the binary
// codec; callers that need a stable iteration order for projection use
// SortedNames.
type Object struct {
	tag     string
	names   []string
	members map[string]Node
}

// NewObject returns an empty object carrying the given type tag (pass
// "" for an untagged object).
func NewObject(tag string) *Object {
	return &Object{tag: tag, members: make(map[string]Node)}
}

func (*Object) Kind() Kind { return KindObject }

// Tag returns the object's type tag, or "" if untagged.
func (o *Object) Tag() string {
	return o.tag
}

// AddMember inserts a new member, or replaces the value of an existing
// one while keeping its original position in insertion order. An empty
// name or inserting past instantiation with an already-used name that
// the caller did not intend to replace is the caller's responsibility;
// AddMember itself only rejects empty names — replacing an existing
// member is a legal, explicit operation.
func (o *Object) AddMember(name string, value Node) error {
	if name == "" {
		return ErrEmptyMemberName
	}
	if _, exists := o.members[name]; !exists {
		o.names = append(o.names, name)
	}
	o.members[name] = value
	return nil
}

// AddMemberStrict behaves like AddMember but fails with
// ErrDuplicateMember if name is already present. Used where the value
// tree itself must enforce invariant (2) instead of allowing a
// higher-level replace.
func (o *Object) AddMemberStrict(name string, value Node) error {
	if name == "" {
		return ErrEmptyMemberName
	}
	if _, exists := o.members[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMember, name)
	}
	o.names = append(o.names, name)
	o.members[name] = value
	return nil
}

// Get returns the member value and whether it was present.
func (o *Object) Get(name string) (Node, bool) {
	v, ok := o.members[name]
	return v, ok
}

// Names returns member names in insertion order.
func (o *Object) Names() []string {
	out := make([]string, len(o.names))
	copy(out, o.names)
	return out
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.names)
}

// SortedNames returns member names sorted lexicographically, the order
// the JSON projector uses to keep diffs stable (spec §9,
// "Serialization ordering").
func (o *Object) SortedNames() []string {
	names := o.Names()
	sort.Strings(names)
	return names
}
