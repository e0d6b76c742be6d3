// Package compare implements the structural comparator: recursive
// value-tree diffing with numeric tolerance, array/object flattening,
// and the cellar partitioning (common/missing/fresh) used to summarize
// a whole test case comparison (spec §4.4).
package compare

import (
	"fmt"
	"math"
	"sort"

	"github.com/trytouca/touca-go/pkg/touca/jsonenc"
	"github.com/trytouca/touca-go/pkg/touca/types"
)

// Match classifies how closely two nodes agree.
type Match uint8

const (
	MatchNone Match = iota
	MatchPerfect
)

// relativeThreshold is the boundary (spec §4.4, §8.6) below which a
// numeric difference is reported as a percentage and above (or at)
// which it's reported as an absolute difference worth a zero score.
const relativeThreshold = 0.2

// sizeChangeThreshold is the array size-ratio cutoff past which
// element-by-element comparison is abandoned in favor of a size-only
// verdict (spec §4.4).
const sizeChangeThreshold = 0.2

// discrepancyReportMax bounds how many element-wise array discrepancies
// get individual descriptions before they're suppressed in favor of the
// aggregate score alone (spec §4.4: "ratio < 0.2 or absolute count < 10").
const discrepancyReportMax = 10

// Result is one node-to-node comparison record.
type Result struct {
	Score        float64
	Match        Match
	SrcType      string
	DstType      string
	SrcValue     string
	DstValue     string
	Descriptions []string
}

func perfect(srcType string, srcValue string) Result {
	return Result{Score: 1.0, Match: MatchPerfect, SrcType: srcType, DstType: srcType, SrcValue: srcValue, DstValue: srcValue}
}

// typeLabel is the comparison-record type name for a node kind. The
// reference's Cellar::stringify collapses every numeric variant into
// the single label "number"; only the numeric distinction itself (not
// its label) matters for comparison semantics.
func typeLabel(k types.Kind) string {
	if k.IsNumeric() {
		return "number"
	}
	return k.String()
}

// Compare produces the comparison record for src against dst, per the
// node-kind dispatch in spec §4.4.
func Compare(src, dst types.Node) Result {
	if src.Kind() != dst.Kind() {
		return Result{
			Score:        0,
			Match:        MatchNone,
			SrcType:      typeLabel(src.Kind()),
			DstType:      typeLabel(dst.Kind()),
			SrcValue:     jsonenc.CanonicalString(src),
			DstValue:     jsonenc.CanonicalString(dst),
			Descriptions: []string{"result types are different"},
		}
	}

	switch src.Kind() {
	case types.KindBool:
		return compareBool(src.(types.Bool), dst.(types.Bool))
	case types.KindInt:
		return compareNumeric(float64(src.(types.Int)), float64(dst.(types.Int)), src, dst)
	case types.KindUInt:
		return compareNumeric(float64(src.(types.UInt)), float64(dst.(types.UInt)), src, dst)
	case types.KindFloat:
		return compareNumeric(float64(src.(types.Float)), float64(dst.(types.Float)), src, dst)
	case types.KindDouble:
		return compareNumeric(float64(src.(types.Double)), float64(dst.(types.Double)), src, dst)
	case types.KindString:
		return compareString(src.(types.String), dst.(types.String))
	case types.KindArray:
		return compareArray(src.(*types.Array), dst.(*types.Array))
	case types.KindObject:
		return compareObject(src.(*types.Object), dst.(*types.Object))
	default:
		panic(fmt.Sprintf("touca/compare: unsupported kind %s", src.Kind()))
	}
}

func compareBool(src, dst types.Bool) Result {
	typ := types.KindBool.String()
	val := jsonenc.CanonicalString(src)
	if src == dst {
		return perfect(typ, val)
	}
	return Result{
		Score: 0, Match: MatchNone,
		SrcType: typ, DstType: typ,
		SrcValue: val, DstValue: jsonenc.CanonicalString(dst),
	}
}

func compareString(src, dst types.String) Result {
	typ := types.KindString.String()
	if src == dst {
		return perfect(typ, jsonenc.CanonicalString(src))
	}
	return Result{
		Score: 0, Match: MatchNone,
		SrcType: typ, DstType: typ,
		SrcValue: jsonenc.CanonicalString(src), DstValue: jsonenc.CanonicalString(dst),
	}
}

// compareNumeric compares two same-variant numeric nodes. Its
// description wording is kept verbatim from the reference (spec §9's
// open question #1, SPEC_FULL's decision to not normalize it): the
// percent branch renders the literal word "percent" with a trailing
// space, and both branches use the reference's fixed six-decimal
// `std::to_string(double)` rendering rather than this node's own
// canonical JSON form.
func compareNumeric(src, dst float64, srcNode, dstNode types.Node) Result {
	typ := "number"
	srcVal := jsonenc.CanonicalString(srcNode)
	dstVal := jsonenc.CanonicalString(dstNode)
	if src == dst {
		return perfect(typ, srcVal)
	}

	diff := src - dst
	var percent float64
	if dst != 0 {
		percent = math.Abs(diff / dst)
	}

	direction := "larger"
	if diff < 0 {
		direction = "smaller"
	}

	res := Result{SrcType: typ, DstType: typ, SrcValue: srcVal, DstValue: dstVal}
	if percent > 0 && percent < relativeThreshold {
		res.Score = 1 - percent
		res.Descriptions = []string{fmt.Sprintf("value is %s by %fpercent ", direction, percent*100)}
	} else {
		res.Score = 0
		res.Descriptions = []string{fmt.Sprintf("value is %s by %f", direction, math.Abs(diff))}
	}
	return res
}

func compareArray(src, dst *types.Array) Result {
	typ := types.KindArray.String()
	srcVal := jsonenc.CanonicalString(src)
	dstVal := jsonenc.CanonicalString(dst)

	sElems := flattenedElements(src)
	dElems := flattenedElements(dst)
	loFull, hiFull := len(sElems), len(dElems)
	lo, hi := loFull, hiFull
	if lo > hi {
		lo, hi = hi, lo
	}

	if hi == 0 {
		return perfect(typ, srcVal)
	}

	res := Result{SrcType: typ, DstType: typ, SrcValue: srcVal, DstValue: dstVal}

	if float64(hi-lo)/float64(hi) > sizeChangeThreshold || len(sElems) == 0 {
		res.Score = 0
		res.Descriptions = []string{sizeChangeDescription(loFull, hiFull)}
		return res
	}

	var sum float64
	var discrepancies int
	var descs []string
	for i := 0; i < lo; i++ {
		child := Compare(sElems[i], dElems[i])
		sum += child.Score
		if child.Match != MatchPerfect {
			discrepancies++
			descs = append(descs, prefixDescriptions(fmt.Sprintf("[%d]", i), child.Descriptions)...)
		}
	}
	res.Score = sum / float64(hi)
	if res.Score == 1.0 && loFull == hiFull {
		res.Match = MatchPerfect
	}

	if loFull != hiFull {
		descs = append(descs, sizeChangeDescription(loFull, hiFull))
	}

	ratio := 0.0
	if len(sElems) > 0 {
		ratio = float64(discrepancies) / float64(len(sElems))
	}
	if ratio < sizeChangeThreshold || discrepancies < discrepancyReportMax {
		res.Descriptions = descs
	} else if loFull != hiFull {
		res.Descriptions = []string{sizeChangeDescription(loFull, hiFull)}
	}

	return res
}

func sizeChangeDescription(srcLen, dstLen int) string {
	if srcLen < dstLen {
		return fmt.Sprintf("array has grown by %d elements", dstLen-srcLen)
	}
	return fmt.Sprintf("array has shrunk by %d elements", srcLen-dstLen)
}

func compareObject(src, dst *types.Object) Result {
	typ := types.KindObject.String()
	srcVal := jsonenc.CanonicalString(src)
	dstVal := jsonenc.CanonicalString(dst)

	sFlat := flatten(src)
	dFlat := flatten(dst)

	res := Result{SrcType: typ, DstType: typ, SrcValue: srcVal, DstValue: dstVal}

	var earned, total float64
	var descs []string

	keys := make([]string, 0, len(sFlat))
	for k := range sFlat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		sVal := sFlat[key]
		total++
		if dVal, ok := dFlat[key]; ok {
			child := Compare(sVal, dVal)
			earned += child.Score
			if child.Match != MatchPerfect {
				descs = append(descs, prefixDescriptions(key, child.Descriptions)...)
			}
		} else {
			descs = append(descs, fmt.Sprintf("%s: missing", key))
		}
	}

	dstKeys := make([]string, 0, len(dFlat))
	for k := range dFlat {
		dstKeys = append(dstKeys, k)
	}
	sort.Strings(dstKeys)
	for _, key := range dstKeys {
		if _, ok := sFlat[key]; !ok {
			total++
			descs = append(descs, fmt.Sprintf("%s: new", key))
		}
	}

	if total == 0 {
		return perfect(typ, srcVal)
	}
	res.Score = earned / total
	if earned == total {
		res.Match = MatchPerfect
		res.Descriptions = nil
	} else {
		res.Descriptions = descs
	}
	return res
}

func prefixDescriptions(path string, descs []string) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = path + ": " + d
	}
	return out
}

// flatten walks a container (array or object), recursing across both
// kinds of container boundary, into a single map of bracketed/dotted
// path keys to leaf values — the "Flatten rules" of spec §4.4, grounded
// on the reference `flatten()` (original_source/sdk/cpp/cli/comparison.cpp).
// An array element keys its path "[i]"; an object member keys its path
// "name"; a nested container's own flattened keys are appended to its
// parent's path ("[i]" + child path for arrays, "name." + child path
// for objects) rather than stopping at the first container boundary.
// A leaf node (nil/empty nested map) contributes itself under its own
// path. Non-container input returns nil.
func flatten(n types.Node) map[string]types.Node {
	switch v := n.(type) {
	case *types.Array:
		out := make(map[string]types.Node)
		for i, elem := range v.Elements() {
			name := fmt.Sprintf("[%d]", i)
			nested := flatten(elem)
			if len(nested) == 0 {
				out[name] = elem
				continue
			}
			for k, val := range nested {
				out[name+k] = val
			}
		}
		return out
	case *types.Object:
		out := make(map[string]types.Node)
		for _, name := range v.Names() {
			val, _ := v.Get(name)
			nested := flatten(val)
			if len(nested) == 0 {
				out[name] = val
				continue
			}
			for k, nv := range nested {
				out[name+"."+k] = nv
			}
		}
		return out
	default:
		return nil
	}
}

// flattenedElements flattens arr (recursing into nested arrays/objects
// per flatten) and returns its leaves as an ordered slice, sorted by
// flattened path the way the reference's flatten_array converts its
// std::map<string, data_point> into a vector in map (i.e. sorted-key)
// order before the pairwise element comparison in compareArray.
func flattenedElements(arr *types.Array) []types.Node {
	flat := flatten(arr)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]types.Node, len(keys))
	for i, k := range keys {
		out[i] = flat[k]
	}
	return out
}

// CellarEntry is one row of a cellar: a fully-compared common key, a
// src-only ("fresh") key, or a dst-only ("missing") key.
type CellarEntry struct {
	Name   string
	Result Result // zero value for Fresh/Missing entries
}

// Cellar partitions one result category's keys across src and dst, per
// spec §4.4: "Cellar construction per category".
type Cellar struct {
	Common  []CellarEntry
	Missing []CellarEntry
	Fresh   []CellarEntry
}

// BuildCellar compares every key shared between src and dst, and
// classifies the rest as missing (dst-only) or fresh (src-only).
func BuildCellar(src, dst map[string]types.Node) Cellar {
	var c Cellar

	dstKeys := make([]string, 0, len(dst))
	for k := range dst {
		dstKeys = append(dstKeys, k)
	}
	sort.Strings(dstKeys)
	for _, name := range dstKeys {
		if sVal, ok := src[name]; ok {
			c.Common = append(c.Common, CellarEntry{Name: name, Result: Compare(sVal, dst[name])})
		} else {
			c.Missing = append(c.Missing, CellarEntry{Name: name})
		}
	}

	srcKeys := make([]string, 0, len(src))
	for k := range src {
		srcKeys = append(srcKeys, k)
	}
	sort.Strings(srcKeys)
	for _, name := range srcKeys {
		if _, ok := dst[name]; !ok {
			c.Fresh = append(c.Fresh, CellarEntry{Name: name})
		}
	}

	return c
}

// Overview is the test-case-level rollup of one category's cellar
// (spec §4.4, "Test-case overview").
type Overview struct {
	KeysCountCommon  int
	KeysCountMissing int
	KeysCountFresh   int
	KeysScore        float64
}

// Summarize computes a cellar's overview score: the mean comparison
// score over common keys (denominator |common|+|missing|), or the
// degenerate 1.0/0.0 split when there are no common keys at all.
func Summarize(c Cellar) Overview {
	ov := Overview{
		KeysCountCommon:  len(c.Common),
		KeysCountMissing: len(c.Missing),
		KeysCountFresh:   len(c.Fresh),
	}
	if len(c.Common) == 0 {
		if len(c.Missing) == 0 {
			ov.KeysScore = 1.0
		} else {
			ov.KeysScore = 0.0
		}
		return ov
	}
	var sum float64
	for _, entry := range c.Common {
		sum += entry.Result.Score
	}
	denom := len(c.Common) + len(c.Missing)
	ov.KeysScore = sum / float64(denom)
	return ov
}
