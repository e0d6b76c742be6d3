package jsonenc

import (
	"testing"

	"github.com/trytouca/touca-go/pkg/touca/types"
)

func TestMarshalScalars(t *testing.T) {
	cases := []struct {
		node types.Node
		want string
	}{
		{types.NewBool(true), "true"},
		{types.NewBool(false), "false"},
		{types.NewInt(-42), "-42"},
		{types.NewUInt(42), "42"},
		{types.NewDouble(1.0 / 3.0), "0.333"},
		{types.NewDouble(2.0), "2"},
		{types.NewFloat(1.5), "1.5"},
		{types.NewString("hi"), `"hi"`},
	}
	for _, c := range cases {
		if got := string(Marshal(c.node)); got != c.want {
			t.Errorf("Marshal(%v) = %q, want %q", c.node, got, c.want)
		}
	}
}

func TestMarshalArray(t *testing.T) {
	arr := types.NewArray(types.NewString("leo-ferre"))
	if got, want := string(Marshal(arr)), `["leo-ferre"]`; got != want {
		t.Errorf("Marshal(array) = %q, want %q", got, want)
	}
}

func TestMarshalObjectUntagged(t *testing.T) {
	obj := types.NewObject("")
	obj.AddMember("b", types.NewInt(2))
	obj.AddMember("a", types.NewInt(1))
	if got, want := string(Marshal(obj)), `{"a":1,"b":2}`; got != want {
		t.Errorf("Marshal(untagged object) = %q, want %q", got, want)
	}
}

func TestMarshalObjectTagged(t *testing.T) {
	obj := types.NewObject("Student")
	obj.AddMember("name", types.NewString("alice"))
	if got, want := string(Marshal(obj)), `{"Student":{"name":"alice"}}`; got != want {
		t.Errorf("Marshal(tagged object) = %q, want %q", got, want)
	}
}

func TestCanonicalString(t *testing.T) {
	if got, want := CanonicalString(types.NewString("alice")), "alice"; got != want {
		t.Errorf("CanonicalString(string) = %q, want %q", got, want)
	}
	if got, want := CanonicalString(types.NewUInt(2)), "2"; got != want {
		t.Errorf("CanonicalString(uint) = %q, want %q", got, want)
	}
}
