package comparator

import (
	"sort"

	"github.com/trytouca/touca-go/pkg/touca/compare"
	"github.com/trytouca/touca-go/pkg/touca/testcase"
	"github.com/trytouca/touca-go/pkg/touca/types"
)

// Comparison is the test-case-level comparison record: one cellar and
// overview per category (spec §4.4, "Test-case overview"), plus each
// side's summed duration over the metrics common to both sides.
type Comparison struct {
	Results compare.Cellar
	Assumes compare.Cellar
	Metrics compare.Cellar

	ResultsOverview compare.Overview
	AssumesOverview compare.Overview
	MetricsOverview compare.Overview

	SrcMetricsDurationMs int64
	DstMetricsDurationMs int64
}

func metricsAsNodes(m map[string]int64) map[string]types.Node {
	out := make(map[string]types.Node, len(m))
	for k, v := range m {
		out[k] = types.NewInt(v)
	}
	return out
}

// sumCommonDurations sums m's durations restricted to the keys present
// in the metrics cellar's Common bucket — spec §4.4 ("the sum of
// common-metric durations (each side)"), grounded on the reference's
// getTotalCommonDuration (original_source/sdk/cpp/src/devkit/comparison.cpp),
// which iterates `_metrics.common` rather than every metric on a side.
func sumCommonDurations(common []compare.CellarEntry, m map[string]int64) int64 {
	var total int64
	for _, entry := range common {
		total += m[entry.Name]
	}
	return total
}

// compareTestCases builds the full comparison record between src and
// dst across the results, assumptions, and metrics categories.
func compareTestCases(src, dst *testcase.TestCase) Comparison {
	srcMetrics := src.Metrics()
	dstMetrics := dst.Metrics()

	metricsCellar := compare.BuildCellar(metricsAsNodes(srcMetrics), metricsAsNodes(dstMetrics))

	c := Comparison{
		Results: compare.BuildCellar(src.Results(testcase.Check), dst.Results(testcase.Check)),
		Assumes: compare.BuildCellar(src.Results(testcase.Assume), dst.Results(testcase.Assume)),
		Metrics: metricsCellar,

		SrcMetricsDurationMs: sumCommonDurations(metricsCellar.Common, srcMetrics),
		DstMetricsDurationMs: sumCommonDurations(metricsCellar.Common, dstMetrics),
	}
	c.ResultsOverview = compare.Summarize(c.Results)
	c.AssumesOverview = compare.Summarize(c.Assumes)
	c.MetricsOverview = compare.Summarize(c.Metrics)
	return c
}

func cellarEntriesToNode(tag string, entries []compare.CellarEntry, withResult bool) *types.Array {
	arr := types.NewArray()
	for _, e := range entries {
		obj := types.NewObject(tag)
		_ = obj.AddMember("name", types.NewString(e.Name))
		if withResult {
			_ = obj.AddMember("score", types.NewDouble(e.Result.Score))
			_ = obj.AddMember("srcType", types.NewString(e.Result.SrcType))
			_ = obj.AddMember("dstType", types.NewString(e.Result.DstType))
			_ = obj.AddMember("srcValue", types.NewString(e.Result.SrcValue))
			_ = obj.AddMember("dstValue", types.NewString(e.Result.DstValue))
		}
		arr.PushBack(obj)
	}
	return arr
}

func overviewToNode(ov compare.Overview) *types.Object {
	obj := types.NewObject("")
	_ = obj.AddMember("keysCountCommon", types.NewInt(int64(ov.KeysCountCommon)))
	_ = obj.AddMember("keysCountMissing", types.NewInt(int64(ov.KeysCountMissing)))
	_ = obj.AddMember("keysCountFresh", types.NewInt(int64(ov.KeysCountFresh)))
	_ = obj.AddMember("keysScore", types.NewDouble(ov.KeysScore))
	return obj
}

func cellarToNode(c compare.Cellar) *types.Object {
	obj := types.NewObject("")
	_ = obj.AddMember("commonKeys", cellarEntriesToNode("", c.Common, true))
	_ = obj.AddMember("missingKeys", cellarEntriesToNode("", c.Missing, false))
	_ = obj.AddMember("newKeys", cellarEntriesToNode("", c.Fresh, false))
	return obj
}

// resultToNode projects a full Comparison into the value tree form the
// JSON projector serializes for submission to the platform.
func resultToNode(c Comparison) types.Node {
	obj := types.NewObject("")
	_ = obj.AddMember("results", cellarToNode(c.Results))
	_ = obj.AddMember("assertions", cellarToNode(c.Assumes))
	_ = obj.AddMember("metrics", cellarToNode(c.Metrics))
	_ = obj.AddMember("resultsOverview", overviewToNode(c.ResultsOverview))
	_ = obj.AddMember("assertionsOverview", overviewToNode(c.AssumesOverview))
	_ = obj.AddMember("metricsOverview", overviewToNode(c.MetricsOverview))
	_ = obj.AddMember("metricsDurationCommonSrc", types.NewInt(c.SrcMetricsDurationMs))
	_ = obj.AddMember("metricsDurationCommonDst", types.NewInt(c.DstMetricsDurationMs))
	return obj
}

// testCaseNode projects one side's raw test case (not a comparison) to
// the `{metadata, results, assertion, metrics}` shape spec §6
// describes for standalone per-message summaries.
func testCaseNode(tc *testcase.TestCase) types.Node {
	meta := tc.Metadata()
	obj := types.NewObject("")

	metaNode := types.NewObject("")
	_ = metaNode.AddMember("teamslug", types.NewString(meta.TeamSlug))
	_ = metaNode.AddMember("testsuite", types.NewString(meta.SuiteSlug))
	_ = metaNode.AddMember("version", types.NewString(meta.Version))
	_ = metaNode.AddMember("testcase", types.NewString(meta.CaseSlug))
	_ = obj.AddMember("metadata", metaNode)

	_ = obj.AddMember("results", keyValueArray(tc.Results(testcase.Check)))
	_ = obj.AddMember("assertion", keyValueArray(tc.Results(testcase.Assume)))
	_ = obj.AddMember("metrics", keyValueArray(metricsAsNodes(tc.Metrics())))

	return obj
}

// keyValueArray renders a {key,value} node per spec §6's per-message
// JSON shape, sorted by key for determinism (spec §8, S3).
func keyValueArray(m map[string]types.Node) *types.Array {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	arr := types.NewArray()
	for _, name := range names {
		entry := types.NewObject("")
		_ = entry.AddMember("key", types.NewString(name))
		_ = entry.AddMember("value", m[name])
		arr.PushBack(entry)
	}
	return arr
}
