// Package grouping implements the C6 grouping engine (§4.9): a Union-Find
// over candidate pairs meeting the medium similarity threshold, gated by
// score/shared-token rules and bounded by a canopy size limit, producing
// stable-ID groups with suffix-mismatch and score-range metadata.
package grouping

import (
	"sort"
	"strings"

	"github.com/codeready-toolchain/dedupe/pkg/hashutil"
	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// NameLookup resolves the fields grouping needs for edge-gating decisions,
// keyed by account ID.
type NameLookup func(accountID string) (nameCore string, suffixClass string, ok bool)

// Options configures one Run call, typically derived from
// config.GroupingConfig plus the blocking stop-token set shared with C4.
type Options struct {
	MaxGroupSize      int
	CanopyEnabled     bool
	EdgeGatingEnabled bool
	High              float64
	Medium            float64
	StopTokens        map[string]bool
	ConfigHash        string
}

// Rejection records a canopy or edge-gating rejection for the stats
// artifact; it never changes membership.
type Rejection struct {
	IDA, IDB string
	Reason   string
}

// Result is the full grouping outcome: the finished groups and any
// rejected edges, for audit.
type Result struct {
	Groups     []models.Group
	Rejections []Rejection
}

// groupAgg accumulates per-component metadata as edges are admitted. It is
// keyed by root index and merged (never recreated) across unions so no
// history is lost when two components combine.
type groupAgg struct {
	maxScore    float64
	minScore    float64
	hasMismatch bool
	reasons     map[string]bool
}

func newGroupAgg() *groupAgg {
	return &groupAgg{minScore: 100, reasons: map[string]bool{}}
}

func (a *groupAgg) record(score float64, reason string) {
	if score > a.maxScore {
		a.maxScore = score
	}
	if score < a.minScore {
		a.minScore = score
	}
	a.reasons[reason] = true
}

func (a *groupAgg) absorb(other *groupAgg) {
	if other == nil {
		return
	}
	if other.maxScore > a.maxScore {
		a.maxScore = other.maxScore
	}
	if other.minScore < a.minScore {
		a.minScore = other.minScore
	}
	if other.hasMismatch {
		a.hasMismatch = true
	}
	for r := range other.reasons {
		a.reasons[r] = true
	}
}

type unionFind struct {
	parent []int
	size   []int
	anchor []string // first member assigned to each root, used as the gating reference point
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n), anchor: make([]string, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the components rooted at x and y, keeping the larger
// component's anchor as the new root's gating reference point, and
// returns the surviving root.
func (uf *unionFind) union(x, y int) int {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return rx
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	return rx
}

// Run builds connected components from candidate pairs that already meet
// the medium similarity threshold (callers filter that upstream in
// pkg/similarity; exact-equals pairs from pkg/exactmatch arrive pre-scored
// at 100). Pairs are processed strongest-first for deterministic anchor
// selection: order is fixed by (score desc, id_a, id_b, strategy), so
// identical input always produces identical group formation regardless of
// any upstream concurrency.
func Run(pairs []models.CandidatePair, lookup NameLookup, opts Options) Result {
	ids := collectIDs(pairs)
	indexOf := make(map[string]int, len(ids))
	for i, id := range ids {
		indexOf[id] = i
	}

	uf := newUnionFind(len(ids))
	for i, id := range ids {
		uf.anchor[i] = id
	}

	agg := make(map[int]*groupAgg, len(ids))
	aggFor := func(root int) *groupAgg {
		a, ok := agg[root]
		if !ok {
			a = newGroupAgg()
			agg[root] = a
		}
		return a
	}

	ordered := make([]models.CandidatePair, len(pairs))
	copy(ordered, pairs)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if ordered[i].IDA != ordered[j].IDA {
			return ordered[i].IDA < ordered[j].IDA
		}
		if ordered[i].IDB != ordered[j].IDB {
			return ordered[i].IDB < ordered[j].IDB
		}
		return ordered[i].Strategy < ordered[j].Strategy
	})

	var rejections []Rejection

	for _, p := range ordered {
		ia, iaOK := indexOf[p.IDA]
		ib, ibOK := indexOf[p.IDB]
		if !iaOK || !ibOK {
			continue
		}

		if !p.SuffixMatch {
			// Suffix mismatch forbids edge admission; annotation only (§4.9).
			rejections = append(rejections, Rejection{IDA: p.IDA, IDB: p.IDB, Reason: "suffix_mismatch"})
			continue
		}

		ra, rb := uf.find(ia), uf.find(ib)
		if ra == rb {
			aggFor(ra).record(p.Score, edgeReasonFor(p.Score, opts))
			continue
		}

		admit, reason := shouldAdmit(p, uf, ra, rb, lookup, opts)
		if !admit {
			rejections = append(rejections, Rejection{IDA: p.IDA, IDB: p.IDB, Reason: reason})
			continue
		}

		mergedSize := uf.size[ra] + uf.size[rb]
		if opts.CanopyEnabled && opts.MaxGroupSize > 0 && mergedSize > opts.MaxGroupSize && p.Score < opts.High {
			rejections = append(rejections, Rejection{IDA: p.IDA, IDB: p.IDB, Reason: "canopy_bound_exceeded"})
			continue
		}

		aAgg, bAgg := aggFor(ra), aggFor(rb)
		newRoot := uf.union(ra, rb)
		merged := newGroupAgg()
		merged.absorb(aAgg)
		merged.absorb(bAgg)
		merged.record(p.Score, reason)
		agg[newRoot] = merged
		if other := ra; other != newRoot {
			delete(agg, other)
		}
		if other := rb; other != newRoot {
			delete(agg, other)
		}
	}

	groupsByRoot := make(map[int][]string)
	for i, id := range ids {
		root := uf.find(i)
		groupsByRoot[root] = append(groupsByRoot[root], id)
	}

	// A suffix-mismatch rejection can never cross two members of the same
	// formed group directly (admission always requires equal suffix class,
	// and equality is transitive along admitted edges), but one of its two
	// endpoints can still land in a formed group via an unrelated path. Per
	// §4.9, that rejected pair is "kept as annotations only" against
	// whichever group it touches: the group is marked has_suffix_mismatch
	// so §4.11's "any suffix mismatch in the group ⇒ Verify for all
	// members" rule fires for every member, not just the one with the
	// external conflict.
	for _, rej := range rejections {
		if rej.Reason != "suffix_mismatch" {
			continue
		}
		for _, id := range []string{rej.IDA, rej.IDB} {
			idx, ok := indexOf[id]
			if !ok {
				continue
			}
			root := uf.find(idx)
			if len(groupsByRoot[root]) >= 2 {
				aggFor(root).hasMismatch = true
			}
		}
	}

	var groups []models.Group
	for root, members := range groupsByRoot {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		a := aggFor(root)

		suffixClass := ""
		if _, cls, ok := lookup(members[0]); ok {
			suffixClass = cls
		}

		var reasonSummary []string
		for r := range a.reasons {
			reasonSummary = append(reasonSummary, r)
		}
		sort.Strings(reasonSummary)

		groups = append(groups, models.Group{
			GroupID:           hashutil.StableGroupID(members, opts.ConfigHash),
			Members:           members,
			Size:              len(members),
			MaxScore:          a.maxScore,
			MinScore:          a.minScore,
			SuffixClass:       suffixClass,
			HasSuffixMismatch: a.hasMismatch,
			ReasonSummary:     reasonSummary,
		})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupID < groups[j].GroupID })
	sort.Slice(rejections, func(i, j int) bool {
		if rejections[i].IDA != rejections[j].IDA {
			return rejections[i].IDA < rejections[j].IDA
		}
		return rejections[i].IDB < rejections[j].IDB
	})

	return Result{Groups: groups, Rejections: rejections}
}

// shouldAdmit implements the §4.9 edge-gating rule: admit if the pair
// scores >= high, or if it scores >= medium and shares a non-stop token
// with the target group's anchor record.
func shouldAdmit(p models.CandidatePair, uf *unionFind, ra, rb int, lookup NameLookup, opts Options) (bool, string) {
	if !opts.EdgeGatingEnabled {
		return true, models.EdgeReasonMediumShared
	}
	if p.Score >= opts.High {
		return true, models.EdgeReasonHigh
	}
	if p.Score < opts.Medium {
		return false, "below_medium"
	}

	anchorA, anchorB := uf.anchor[ra], uf.anchor[rb]
	coreA, _, okA := lookup(anchorA)
	coreB, _, okB := lookup(anchorB)
	if !okA || !okB {
		return false, "anchor_lookup_failed"
	}
	if sharesNonStopToken(coreA, coreB, opts.StopTokens) {
		return true, models.EdgeReasonMediumShared
	}
	return false, "no_shared_token"
}

func sharesNonStopToken(a, b string, stop map[string]bool) bool {
	setA := make(map[string]bool)
	for _, tok := range strings.Fields(a) {
		if stop == nil || !stop[tok] {
			setA[tok] = true
		}
	}
	for _, tok := range strings.Fields(b) {
		if stop != nil && stop[tok] {
			continue
		}
		if setA[tok] {
			return true
		}
	}
	return false
}

func edgeReasonFor(score float64, opts Options) string {
	if score >= opts.High {
		return models.EdgeReasonHigh
	}
	return models.EdgeReasonMediumShared
}

func collectIDs(pairs []models.CandidatePair) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, p := range pairs {
		if !seen[p.IDA] {
			seen[p.IDA] = true
			ids = append(ids, p.IDA)
		}
		if !seen[p.IDB] {
			seen[p.IDB] = true
			ids = append(ids, p.IDB)
		}
	}
	sort.Strings(ids)
	return ids
}
