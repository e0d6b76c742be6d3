package testcase

import (
	"errors"
	"testing"
	"time"

	"github.com/trytouca/touca-go/pkg/touca/types"
)

func newTestCase() *TestCase {
	return New(Metadata{
		TeamSlug:  "acme",
		SuiteSlug: "students",
		Version:   "1.0",
		CaseSlug:  "alice",
		BuiltAt:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
	})
}

func TestCheckAndAssume(t *testing.T) {
	tc := newTestCase()
	tc.Check("gpa", types.NewDouble(3.9))
	tc.Assume("username", types.NewString("alice"))

	checks := tc.Results(Check)
	if _, ok := checks["gpa"]; !ok {
		t.Fatal("expected gpa under Check category")
	}
	assumes := tc.Results(Assume)
	if _, ok := assumes["username"]; !ok {
		t.Fatal("expected username under Assume category")
	}
	if !tc.Dirty() {
		t.Fatal("expected test case to be dirty after capture")
	}
}

func TestCheckReplaceDifferentType(t *testing.T) {
	tc := newTestCase()
	tc.Check("value", types.NewInt(1))
	tc.Check("value", types.NewString("one"))

	got := tc.Results(Check)["value"]
	if got.Kind() != types.KindString {
		t.Fatalf("expected replaced value to be a string, got %s", got.Kind())
	}
}

func TestAddArrayElement(t *testing.T) {
	tc := newTestCase()
	if err := tc.AddArrayElement("tags", types.NewString("a")); err != nil {
		t.Fatalf("AddArrayElement: %v", err)
	}
	if err := tc.AddArrayElement("tags", types.NewString("b")); err != nil {
		t.Fatalf("AddArrayElement: %v", err)
	}
	arr, ok := tc.Results(Check)["tags"].(*types.Array)
	if !ok {
		t.Fatalf("expected tags to be an array")
	}
	if arr.Len() != 2 {
		t.Fatalf("expected 2 elements, got %d", arr.Len())
	}

	tc.Check("scalar", types.NewInt(1))
	if err := tc.AddArrayElement("scalar", types.NewInt(2)); !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
}

func TestAddHitCount(t *testing.T) {
	tc := newTestCase()
	for i := 0; i < 3; i++ {
		if err := tc.AddHitCount("hits"); err != nil {
			t.Fatalf("AddHitCount: %v", err)
		}
	}
	got, ok := tc.Results(Check)["hits"].(types.UInt)
	if !ok || uint64(got) != 3 {
		t.Fatalf("expected hits=3, got %v", got)
	}

	tc.Check("not_uint", types.NewString("x"))
	if err := tc.AddHitCount("not_uint"); !errors.Is(err, ErrTypeConflict) {
		t.Fatalf("expected ErrTypeConflict, got %v", err)
	}
}

func TestTicTocAndDanglingExclusion(t *testing.T) {
	tc := newTestCase()
	tc.Tic("op")
	time.Sleep(time.Millisecond)
	if err := tc.Toc("op"); err != nil {
		t.Fatalf("Toc: %v", err)
	}
	metrics := tc.Metrics()
	if _, ok := metrics["op"]; !ok {
		t.Fatal("expected op metric to be present")
	}

	tc.Tic("dangling")
	metrics = tc.Metrics()
	if _, ok := metrics["dangling"]; ok {
		t.Fatal("expected dangling tic to be excluded from Metrics")
	}

	if err := tc.Toc("never_started"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddMetricDirect(t *testing.T) {
	tc := newTestCase()
	tc.AddMetric("total_time", 120)
	metrics := tc.Metrics()
	if got, want := metrics["total_time"], int64(120); got != want {
		t.Fatalf("AddMetric duration = %d, want %d", got, want)
	}
}

func TestScopeTimer(t *testing.T) {
	tc := newTestCase()
	func() {
		defer tc.Scope("scoped").Stop()
		time.Sleep(time.Millisecond)
	}()
	metrics := tc.Metrics()
	if _, ok := metrics["scoped"]; !ok {
		t.Fatal("expected scoped metric to be recorded after Stop")
	}
}

func TestClear(t *testing.T) {
	tc := newTestCase()
	tc.Check("a", types.NewInt(1))
	tc.Tic("m")
	tc.MarkPosted()
	tc.Clear()

	if len(tc.Results(Check)) != 0 {
		t.Fatal("expected no results after Clear")
	}
	if len(tc.Metrics()) != 0 {
		t.Fatal("expected no metrics after Clear")
	}
	if !tc.Dirty() {
		t.Fatal("expected Clear to dirty the test case")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	tc := newTestCase()
	tc.Check("name", types.NewString("alice"))
	tc.Assume("input", types.NewInt(42))
	tc.AddMetric("total_time", 120)
	tc.Tic("dangling")

	msg := tc.ToMessage()
	if len(msg.Metrics) != 1 {
		t.Fatalf("expected dangling tic excluded from message, got %d metrics", len(msg.Metrics))
	}

	restored, err := FromMessage(msg)
	if err != nil {
		t.Fatalf("FromMessage: %v", err)
	}
	if restored.Metadata().CaseSlug != "alice" {
		t.Fatalf("expected case slug alice, got %q", restored.Metadata().CaseSlug)
	}
	if got := restored.Results(Check)["name"]; got.Kind() != types.KindString {
		t.Fatalf("expected name to round-trip as string, got %s", got.Kind())
	}
	if got := restored.Metrics()["total_time"]; got != 120 {
		t.Fatalf("expected total_time=120 after round trip, got %d", got)
	}
	if restored.Dirty() {
		t.Fatal("expected restored test case to start clean")
	}
}
