// Package survivorship implements the C7 primary-selection stage (§4.10):
// a deterministic lexicographic tie-break sequence that chooses one
// "primary" record per group, annotates every member with why it did or
// did not win, and builds a merge preview for groups whose members
// disagree on a field. There is no teacher analog for ranked tie-breaking
// over a record set, so this follows the pure, stateless transform shape
// already established by pkg/grouping and pkg/disposition: no I/O, no
// concurrency, one function over an in-memory group set.
package survivorship

import (
	"sort"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// Tie-breaker keys recognized in config.SurvivorshipConfig.TieBreakers
// (§6 "survivorship.tie_breakers").
const (
	TieBreakerRelationshipRank = "relationship_rank"
	TieBreakerCreatedDate      = "created_date"
	TieBreakerAccountID        = "account_id"
)

// DefaultTieBreakers is the §4.10 ranked sequence used when config does
// not override it.
var DefaultTieBreakers = []string{TieBreakerRelationshipRank, TieBreakerCreatedDate, TieBreakerAccountID}

// RecordLookup resolves the Record fields survivorship needs, keyed by
// account ID.
type RecordLookup func(accountID string) (models.Record, bool)

// PairScoreLookup resolves the similarity score between two account IDs in
// either order, if a CandidatePair was ever computed for them.
type PairScoreLookup func(a, b string) (score float64, ok bool)

// Options configures one Run call, typically derived from
// config.SurvivorshipConfig.
type Options struct {
	// TieBreakers is the ordered list of tie-breaker keys to apply. Falls
	// back to DefaultTieBreakers when empty.
	TieBreakers []string
}

// Result is the survivorship outcome: one SurvivorshipRecord per group
// member, plus a MergePreview for every group that has at least one
// field-level conflict across members (§4.10 "only for groups with
// conflicts").
type Result struct {
	Records  []models.SurvivorshipRecord
	Previews []models.MergePreview
}

// Run selects a primary for every multi-member group and annotates all of
// its members. Singleton groups are not produced by pkg/grouping (it
// drops components of size 1), so every group here has >= 2 members.
func Run(groups []models.Group, records RecordLookup, pairScore PairScoreLookup, opts Options) Result {
	tieBreakers := opts.TieBreakers
	if len(tieBreakers) == 0 {
		tieBreakers = DefaultTieBreakers
	}

	var out Result
	for _, g := range groups {
		members := make([]models.Record, 0, len(g.Members))
		for _, id := range g.Members {
			if r, ok := records(id); ok {
				members = append(members, r)
			}
		}
		if len(members) == 0 {
			continue
		}

		primary, tieBreaker := selectPrimary(members, tieBreakers)

		for _, m := range members {
			rec := models.SurvivorshipRecord{
				AccountID: m.AccountID,
				GroupID:   g.GroupID,
				IsPrimary: m.AccountID == primary.AccountID,
			}
			if rec.IsPrimary {
				rec.PrimaryReason = "primary"
				rec.TieBreakerApplied = tieBreaker
				rec.ScoreToPrimary = 100
				rec.WeakestEdgeToPrimary = 100
			} else {
				rec.PrimaryReason = "non_primary:" + tieBreaker
				rec.TieBreakerApplied = tieBreaker
				score, weakest := scoreToPrimary(m.AccountID, primary.AccountID, pairScore, g)
				rec.ScoreToPrimary = score
				rec.WeakestEdgeToPrimary = weakest
			}
			out.Records = append(out.Records, rec)
		}

		if preview := buildMergePreview(g.GroupID, primary, members); preview != nil {
			out.Previews = append(out.Previews, *preview)
		}
	}

	sort.Slice(out.Records, func(i, j int) bool {
		if out.Records[i].GroupID != out.Records[j].GroupID {
			return out.Records[i].GroupID < out.Records[j].GroupID
		}
		return out.Records[i].AccountID < out.Records[j].AccountID
	})
	sort.Slice(out.Previews, func(i, j int) bool { return out.Previews[i].GroupID < out.Previews[j].GroupID })
	return out
}

// selectPrimary applies the ranked tie-breaker sequence to pick one
// record, and returns the first key that ever discriminated between two
// candidates (for audit purposes; §4.10 "tie_breaker_applied").
func selectPrimary(members []models.Record, tieBreakers []string) (models.Record, string) {
	best := members[0]
	bestKey := "account_id"
	for _, m := range members[1:] {
		if better, key := beats(m, best, tieBreakers); better {
			best = m
			bestKey = key
		}
	}
	return best, bestKey
}

// beats reports whether candidate should replace current as the provisional
// primary, walking the tie-breaker sequence until one key discriminates.
func beats(candidate, current models.Record, tieBreakers []string) (bool, string) {
	for _, key := range tieBreakers {
		switch key {
		case TieBreakerRelationshipRank:
			if candidate.RelationshipRk != current.RelationshipRk {
				return candidate.RelationshipRk < current.RelationshipRk, key
			}
		case TieBreakerCreatedDate:
			if !candidate.CreatedDate.Equal(current.CreatedDate) {
				return candidate.CreatedDate.Before(current.CreatedDate), key
			}
		case TieBreakerAccountID:
			if candidate.AccountID != current.AccountID {
				return candidate.AccountID < current.AccountID, key
			}
		}
	}
	return false, "account_id"
}

// scoreToPrimary returns the score between a member and the primary: a
// direct pair score when one was computed, or the group's min score as a
// conservative lower bound on the weakest edge reachable to the primary
// through the group's spanning structure (§8 invariant: for every
// non-primary member, weakest_edge_to_primary >= medium — true here since
// pkg/grouping only ever admits edges at or above medium).
func scoreToPrimary(memberID, primaryID string, pairScore PairScoreLookup, g models.Group) (score, weakest float64) {
	if pairScore != nil {
		if s, ok := pairScore(memberID, primaryID); ok {
			return s, s
		}
	}
	return g.MinScore, g.MinScore
}

// buildMergePreview diffs every non-primary member against the primary on
// the fields most likely to disagree (account_name, relationship), and
// returns nil if there are no conflicts to surface (§4.10).
func buildMergePreview(groupID string, primary models.Record, members []models.Record) *models.MergePreview {
	var diffs []models.FieldDiff
	for _, m := range members {
		if m.AccountID == primary.AccountID {
			continue
		}
		if m.AccountName != primary.AccountName {
			diffs = append(diffs, models.FieldDiff{Field: "account_name", PrimaryVal: primary.AccountName, OtherVal: m.AccountName, OtherID: m.AccountID})
		}
		if m.Relationship != primary.Relationship {
			diffs = append(diffs, models.FieldDiff{Field: "relationship", PrimaryVal: primary.Relationship, OtherVal: m.Relationship, OtherID: m.AccountID})
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].OtherID != diffs[j].OtherID {
			return diffs[i].OtherID < diffs[j].OtherID
		}
		return diffs[i].Field < diffs[j].Field
	})
	return &models.MergePreview{GroupID: groupID, Diffs: diffs}
}
