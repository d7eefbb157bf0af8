// Package exactmatch implements the C3 exact-equals fast path (§4.6):
// rows whose trimmed, whitespace-collapsed raw names are byte-equal are
// grouped and joined by a spanning tree of N-1 pairs rather than the
// O(n^2) pairs a naive candidate generator would produce for the same
// group.
package exactmatch

import (
	"regexp"
	"sort"
	"strings"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

var collapseWhitespaceRe = regexp.MustCompile(`\s+`)

// Run groups records by trimmed, whitespace-collapsed raw name and emits a
// spanning-tree CandidatePair set per group: the representative (smallest
// account_id) paired with every other member, each scored 100 with
// suffix_match forced true.
func Run(records []models.Record) []models.CandidatePair {
	groups := make(map[string][]string)
	for _, r := range records {
		key := collapseWhitespaceRe.ReplaceAllString(strings.TrimSpace(r.AccountName), " ")
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], r.AccountID)
	}

	var pairs []models.CandidatePair
	for _, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		rep := ids[0]
		for _, member := range ids[1:] {
			idA, idB, _ := models.OrderedPair(rep, member)
			pairs = append(pairs, models.CandidatePair{
				IDA:         idA,
				IDB:         idB,
				Score:       100,
				SuffixMatch: true,
				Strategy:    models.StrategyExactRaw,
			})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].IDA != pairs[j].IDA {
			return pairs[i].IDA < pairs[j].IDA
		}
		return pairs[i].IDB < pairs[j].IDB
	})
	return pairs
}
