package compare

import (
	"testing"

	"github.com/trytouca/touca-go/pkg/touca/types"
)

func TestCompareIdenticalIsPerfect(t *testing.T) {
	cases := []types.Node{
		types.NewBool(true),
		types.NewInt(-7),
		types.NewUInt(7),
		types.NewFloat(1.5),
		types.NewDouble(2.25),
		types.NewString("alice"),
		types.NewArray(types.NewInt(1), types.NewInt(2)),
	}
	for _, v := range cases {
		r := Compare(v, v)
		if r.Match != MatchPerfect || r.Score != 1.0 {
			t.Errorf("Compare(%v, %v) = {score:%v match:%v}, want perfect/1.0", v, v, r.Score, r.Match)
		}
	}
}

func TestCompareTypeMismatch(t *testing.T) {
	r := Compare(types.NewInt(1), types.NewString("1"))
	if r.Match != MatchNone || r.Score != 0 {
		t.Fatalf("expected score 0 / match none for type mismatch, got %+v", r)
	}
	if len(r.Descriptions) != 1 || r.Descriptions[0] != "result types are different" {
		t.Fatalf("unexpected description: %v", r.Descriptions)
	}
}

func TestCompareBool(t *testing.T) {
	r := Compare(types.NewBool(true), types.NewBool(false))
	if r.Score != 0 || r.Match != MatchNone {
		t.Fatalf("expected mismatched bools to score 0, got %+v", r)
	}
}

func TestCompareNumericRelativeBranch(t *testing.T) {
	// diff = 100 - 110 = -10, percent = 10/110 ~= 0.0909 < 0.2
	r := Compare(types.NewInt(100), types.NewInt(110))
	if r.Match != MatchNone {
		t.Fatalf("expected non-perfect match, got %v", r.Match)
	}
	want := 1 - (10.0 / 110.0)
	if diff := r.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("score = %v, want %v", r.Score, want)
	}
}

func TestCompareNumericAbsoluteBranch(t *testing.T) {
	// percent = |5-1|/1 = 4.0, far past the 0.2 threshold.
	r := Compare(types.NewInt(5), types.NewInt(1))
	if r.Score != 0 {
		t.Fatalf("expected score 0 in the absolute branch, got %v", r.Score)
	}
}

func TestCompareNumericZeroDenominator(t *testing.T) {
	r := Compare(types.NewDouble(5), types.NewDouble(0))
	if r.Score != 0 {
		t.Fatalf("expected score 0 when dst is zero, got %v", r.Score)
	}
}

func TestCompareArrayBothEmpty(t *testing.T) {
	r := Compare(types.NewArray(), types.NewArray())
	if r.Match != MatchPerfect || r.Score != 1.0 {
		t.Fatalf("expected perfect match for two empty arrays, got %+v", r)
	}
}

func TestCompareArrayOneEmpty(t *testing.T) {
	r := Compare(types.NewArray(), types.NewArray(types.NewInt(1)))
	if r.Score != 0 {
		t.Fatalf("expected score 0 when src is empty and dst is not, got %+v", r)
	}
}

// TestCompareArrayOfStrings matches the literal src/dst pair used to
// validate the array comparison path end to end.
func TestCompareArrayOfStrings(t *testing.T) {
	src := types.NewArray(types.NewString("leo-ferre"))
	dst := types.NewArray(types.NewString("jean-ferrat"))
	r := Compare(src, dst)
	if r.Score != 0.0 {
		t.Fatalf("expected score 0.0, got %v", r.Score)
	}
	if r.SrcType != "array" || r.DstType != "array" {
		t.Fatalf("expected srcType/dstType array, got %q/%q", r.SrcType, r.DstType)
	}
	if r.SrcValue != `["leo-ferre"]` {
		t.Fatalf("expected srcValue to be the canonical JSON array, got %q", r.SrcValue)
	}
	if r.DstValue != `["jean-ferrat"]` {
		t.Fatalf("expected dstValue to be the canonical JSON array, got %q", r.DstValue)
	}
}

func TestCompareArrayGrownAndShrunkDescriptions(t *testing.T) {
	src := types.NewArray(types.NewInt(1))
	dst := types.NewArray(types.NewInt(1), types.NewInt(2))
	r := Compare(src, dst)
	found := false
	for _, d := range r.Descriptions {
		if d == "array has grown by 1 elements" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a grown-by description, got %v", r.Descriptions)
	}

	r2 := Compare(dst, src)
	found = false
	for _, d := range r2.Descriptions {
		if d == "array has shrunk by 1 elements" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a shrunk-by description, got %v", r2.Descriptions)
	}
}

func TestCompareObjectPerfect(t *testing.T) {
	a := types.NewObject("")
	a.AddMember("x", types.NewInt(1))
	b := types.NewObject("")
	b.AddMember("x", types.NewInt(1))
	r := Compare(a, b)
	if r.Match != MatchPerfect || r.Score != 1.0 {
		t.Fatalf("expected perfect object match, got %+v", r)
	}
}

func TestCompareObjectMissingAndNewKeys(t *testing.T) {
	src := types.NewObject("")
	src.AddMember("a", types.NewInt(1))
	dst := types.NewObject("")
	dst.AddMember("b", types.NewInt(1))

	r := Compare(src, dst)
	if r.Score != 0 {
		t.Fatalf("expected score 0 when no keys overlap, got %v", r.Score)
	}
	var hasMissing, hasNew bool
	for _, d := range r.Descriptions {
		if d == "a: missing" {
			hasMissing = true
		}
		if d == "b: new" {
			hasNew = true
		}
	}
	if !hasMissing || !hasNew {
		t.Fatalf("expected both missing and new descriptions, got %v", r.Descriptions)
	}
}

func TestCompareObjectNested(t *testing.T) {
	src := types.NewObject("")
	inner := types.NewObject("")
	inner.AddMember("gpa", types.NewDouble(3.9))
	src.AddMember("student", inner)

	dst := types.NewObject("")
	inner2 := types.NewObject("")
	inner2.AddMember("gpa", types.NewDouble(2.0))
	dst.AddMember("student", inner2)

	r := Compare(src, dst)
	if r.Match == MatchPerfect {
		t.Fatal("expected a non-perfect match for differing nested gpa")
	}
	found := false
	for _, d := range r.Descriptions {
		if len(d) >= len("student.gpa") && d[:len("student.gpa")] == "student.gpa" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a description prefixed with student.gpa, got %v", r.Descriptions)
	}
}

func TestCellarAndOverviewEmptyVsEmpty(t *testing.T) {
	c := BuildCellar(map[string]types.Node{}, map[string]types.Node{})
	if len(c.Common) != 0 || len(c.Missing) != 0 || len(c.Fresh) != 0 {
		t.Fatalf("expected empty cellar, got %+v", c)
	}
	ov := Summarize(c)
	if ov.KeysCountCommon != 0 || ov.KeysCountFresh != 0 || ov.KeysCountMissing != 0 || ov.KeysScore != 1.0 {
		t.Fatalf("expected zeroed counts and score 1.0 for empty-vs-empty, got %+v", ov)
	}
}

func TestCellarAndOverviewMissingOnly(t *testing.T) {
	c := BuildCellar(map[string]types.Node{}, map[string]types.Node{"k": types.NewInt(1)})
	ov := Summarize(c)
	if ov.KeysCountMissing != 1 || ov.KeysScore != 0.0 {
		t.Fatalf("expected score 0.0 with one missing key, got %+v", ov)
	}
}

func TestCellarFreshAndCommon(t *testing.T) {
	src := map[string]types.Node{"a": types.NewInt(1), "b": types.NewInt(2)}
	dst := map[string]types.Node{"a": types.NewInt(1)}
	c := BuildCellar(src, dst)
	if len(c.Common) != 1 || c.Common[0].Name != "a" {
		t.Fatalf("expected one common key 'a', got %+v", c.Common)
	}
	if len(c.Fresh) != 1 || c.Fresh[0].Name != "b" {
		t.Fatalf("expected one fresh key 'b', got %+v", c.Fresh)
	}
	ov := Summarize(c)
	if ov.KeysScore != 1.0 {
		t.Fatalf("expected score 1.0 since the only common key matched perfectly, got %v", ov.KeysScore)
	}
}

// TestCompareObjectFlattensNestedArray pins the cross-container flatten
// worked example: {a:[1,2,3], b:5} vs {a:[1,2,4], b:5} must score 0.75
// (3 of 4 flattened leaves match), not 0.833.
func TestCompareObjectFlattensNestedArray(t *testing.T) {
	src := types.NewObject("")
	src.AddMember("a", types.NewArray(types.NewInt(1), types.NewInt(2), types.NewInt(3)))
	src.AddMember("b", types.NewInt(5))

	dst := types.NewObject("")
	dst.AddMember("a", types.NewArray(types.NewInt(1), types.NewInt(2), types.NewInt(4)))
	dst.AddMember("b", types.NewInt(5))

	r := Compare(src, dst)
	if r.Score != 0.75 {
		t.Fatalf("expected score 0.75 for the mixed scalar/array object, got %v", r.Score)
	}
}

// TestCompareNumericDescriptionFormat pins the reference's verbatim
// wording for numeric mismatch descriptions (spec §9 open question #1).
func TestCompareNumericDescriptionFormat(t *testing.T) {
	r := Compare(types.NewInt(110), types.NewInt(100))
	if len(r.Descriptions) != 1 {
		t.Fatalf("expected one description, got %v", r.Descriptions)
	}
	want := "value is larger by 10.000000percent "
	if r.Descriptions[0] != want {
		t.Fatalf("description = %q, want %q", r.Descriptions[0], want)
	}
}

// TestCompareNumericAbsoluteDescriptionFormat pins the absolute-branch
// wording (no "percent", fixed six-decimal rendering).
func TestCompareNumericAbsoluteDescriptionFormat(t *testing.T) {
	r := Compare(types.NewInt(5), types.NewInt(1))
	want := "value is larger by 4.000000"
	if len(r.Descriptions) != 1 || r.Descriptions[0] != want {
		t.Fatalf("description = %v, want %q", r.Descriptions, want)
	}
}

// TestCompareNumericTypeLabel pins the reference's Cellar::stringify
// collapsing every numeric variant to "number".
func TestCompareNumericTypeLabel(t *testing.T) {
	r := Compare(types.NewInt(1), types.NewInt(1))
	if r.SrcType != "number" || r.DstType != "number" {
		t.Fatalf("expected numeric type label \"number\", got %q/%q", r.SrcType, r.DstType)
	}
}
