package disposition

import (
	"context"
	"sort"

	"github.com/codeready-toolchain/dedupe/pkg/models"
	"github.com/codeready-toolchain/dedupe/pkg/normalize"
	"github.com/codeready-toolchain/dedupe/pkg/parallel"
	"github.com/codeready-toolchain/dedupe/pkg/similarity"
)

// GroupLookup resolves the group an account ID belongs to, if any.
type GroupLookup func(accountID string) (groupID string, ok bool)

// FindAliasMatches implements the alias-matching half of §4.11: every
// alias candidate extracted from a record's name is normalized and scored
// against every other record's name_core with the same similarity
// function the main scorer uses (pkg/similarity.ScoreNames); a match
// survives only when suffix_match=true and score >= high. Alias matches
// are cross-links recorded for disposition and the review output — they
// never change group membership (§4.11).
//
// Like candidate scoring, this is the one O(n) x O(n) fan-out stage that
// benefits from the chunked parallel executor (§5 "alias_matching" is
// listed alongside candidate generation and similarity scoring as a
// CPU-heavy, process-parallel stage).
func FindAliasMatches(ctx context.Context, names []models.NormalizedName, groupOf GroupLookup, params similarity.Params, popts parallel.Options) ([]models.AliasMatch, error) {
	type aliasRecord struct {
		id     string
		text   string
		source string
	}
	var aliases []aliasRecord
	for _, n := range names {
		for i, cand := range n.AliasCandidates {
			src := ""
			if i < len(n.AliasSources) {
				src = n.AliasSources[i]
			}
			aliases = append(aliases, aliasRecord{id: n.AccountID, text: cand, source: src})
		}
	}
	if len(aliases) == 0 {
		return nil, nil
	}

	matched, err := parallel.Map(ctx, aliases, popts, func(_ context.Context, chunk []aliasRecord, _ int) ([]models.AliasMatch, error) {
		var out []models.AliasMatch
		for _, al := range chunk {
			aliasNorm := normalize.Normalize(al.id, al.text)
			for _, target := range names {
				if target.AccountID == al.id {
					continue
				}
				score, suffixMatch := similarity.ScoreNames(aliasNorm.NameCore, target.NameCore, aliasNorm.SuffixClass, target.SuffixClass, params)
				if !suffixMatch || score < params.High {
					continue
				}
				groupID := ""
				if groupOf != nil {
					groupID, _ = groupOf(target.AccountID)
				}
				out = append(out, models.AliasMatch{
					SourceID:    al.id,
					TargetID:    target.AccountID,
					TargetGroup: groupID,
					Score:       score,
					Source:      al.source,
				})
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SourceID != matched[j].SourceID {
			return matched[i].SourceID < matched[j].SourceID
		}
		if matched[i].TargetID != matched[j].TargetID {
			return matched[i].TargetID < matched[j].TargetID
		}
		return matched[i].Score > matched[j].Score
	})
	return matched, nil
}
