package comparator

import (
	"strings"
	"testing"

	"github.com/trytouca/touca-go/pkg/touca/jsonenc"
	"github.com/trytouca/touca-go/pkg/touca/testcase"
	"github.com/trytouca/touca-go/pkg/touca/types"
)

func newCase(name string) *testcase.TestCase {
	return testcase.New(testcase.Metadata{TeamSlug: "acme", SuiteSlug: "students", Version: "1.0", CaseSlug: name})
}

// TestCompareTestCasesEmptyVsEmpty matches S1: two empty test cases
// yield a perfect, empty-cellar overview.
func TestCompareTestCasesEmptyVsEmpty(t *testing.T) {
	src, dst := newCase("a"), newCase("b")
	c := compareTestCases(src, dst)

	if c.ResultsOverview.KeysCountCommon != 0 || c.ResultsOverview.KeysCountFresh != 0 || c.ResultsOverview.KeysCountMissing != 0 {
		t.Fatalf("expected zeroed counts, got %+v", c.ResultsOverview)
	}
	if c.ResultsOverview.KeysScore != 1.0 {
		t.Fatalf("expected score 1.0 for empty-vs-empty, got %v", c.ResultsOverview.KeysScore)
	}
}

// TestCompareTestCasesHitCounter matches S3's two-counter scenario.
func TestCompareTestCasesHitCounter(t *testing.T) {
	src := newCase("a")
	for i := 0; i < 2; i++ {
		if err := src.AddHitCount("k"); err != nil {
			t.Fatalf("AddHitCount: %v", err)
		}
	}
	if err := src.AddHitCount("m"); err != nil {
		t.Fatalf("AddHitCount: %v", err)
	}

	node := testCaseNode(src)
	out := string(jsonenc.Marshal(node))
	if !strings.Contains(out, `"key":"k"`) || !strings.Contains(out, `"key":"m"`) {
		t.Fatalf("expected both k and m in the results array, got %s", out)
	}
	idxK := strings.Index(out, `"key":"k"`)
	idxM := strings.Index(out, `"key":"m"`)
	if idxK == -1 || idxM == -1 || idxK > idxM {
		t.Fatalf("expected results sorted by key (k before m), got %s", out)
	}
}

// TestCompareTestCasesMetrics matches S4's metrics overview.
func TestCompareTestCasesMetrics(t *testing.T) {
	src, dst := newCase("a"), newCase("b")
	src.AddMetric("a", 10)
	src.AddMetric("b", 20)
	dst.AddMetric("a", 10)
	dst.AddMetric("c", 30)

	c := compareTestCases(src, dst)
	if c.MetricsOverview.KeysCountCommon != 1 {
		t.Fatalf("expected 1 common metric, got %d", c.MetricsOverview.KeysCountCommon)
	}
	if c.MetricsOverview.KeysCountFresh != 1 || c.MetricsOverview.KeysCountMissing != 1 {
		t.Fatalf("expected 1 fresh and 1 missing metric, got %+v", c.MetricsOverview)
	}
	if len(c.Metrics.Common) != 1 || c.Metrics.Common[0].Result.Score != 1.0 {
		t.Fatalf("expected the common metric 'a' to score 1.0, got %+v", c.Metrics.Common)
	}
	if c.SrcMetricsDurationMs != 10 || c.DstMetricsDurationMs != 10 {
		t.Fatalf("expected common-only durations (10/10, excluding src's fresh 'b'), got %d/%d", c.SrcMetricsDurationMs, c.DstMetricsDurationMs)
	}
}

func TestResultToNodeProducesJSON(t *testing.T) {
	src, dst := newCase("a"), newCase("b")
	src.Check("chanteur", types.NewArray(types.NewString("leo-ferre")))
	dst.Check("chanteur", types.NewArray(types.NewString("jean-ferrat")))

	c := compareTestCases(src, dst)
	out := string(jsonenc.Marshal(resultToNode(c)))
	if !strings.Contains(out, `"name":"chanteur"`) {
		t.Fatalf("expected chanteur in the results cellar, got %s", out)
	}
	if !strings.Contains(out, `leo-ferre`) || !strings.Contains(out, `jean-ferrat`) {
		t.Fatalf("expected both array renderings present, got %s", out)
	}
}
