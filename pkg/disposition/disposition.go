package disposition

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// suspiciousPatterns flags singleton records whose name shows features
// historically correlated with bad data without being outright
// blacklisted. §9 leaves the exact rule set an open question ("partially
// heuristic ... may require domain calibration"); this is the calibration
// decided here and recorded in DESIGN.md: numeric-only names, common
// "needs attention" placeholder words, and names too short to carry a
// real company identity.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[0-9]+$`),
	regexp.MustCompile(`(?i)\btbd\b`),
	regexp.MustCompile(`(?i)\bplaceholder\b`),
	regexp.MustCompile(`(?i)\bdo not (use|call|contact)\b`),
	regexp.MustCompile(`^.{1,2}$`),
}

func isSuspiciousSingleton(nameBase string) bool {
	trimmed := strings.TrimSpace(nameBase)
	for _, re := range suspiciousPatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// SuffixConflictChecker reports whether accountID is an endpoint of a
// grouping-level suffix-mismatch rejection (§4.9 "kept as annotations
// only") that never formed a group at all -- two records near-identical
// but for legal suffix, each left a standalone singleton. §4.8 still
// requires such a pair to "force Verify" on both sides; this is the hook
// that reaches that record once it falls through to the singleton branch
// of the §4.11 cascade.
type SuffixConflictChecker func(accountID string) bool

// groupMembership is the per-record view of its group that the classifier
// needs: whether it belongs to a multi-member group, whether that group
// has a suffix mismatch among its members, and whether this record is the
// group's primary.
type groupMembership struct {
	groupID           string
	inGroup           bool
	hasSuffixMismatch bool
	isPrimary         bool
}

// ClassifyAll assigns exactly one Disposition to every record, following
// the §4.11 priority cascade. It is "vectorized" in the spec's sense —
// every input is summarized into boolean masks in one pass over the
// record set, then a single select-style switch turns those masks into an
// outcome — rather than re-deriving group/alias context per record with
// repeated map scans.
func ClassifyAll(
	records []models.Record,
	normalized map[string]models.NormalizedName,
	groups []models.Group,
	survivorshipRecords []models.SurvivorshipRecord,
	aliasMatches []models.AliasMatch,
	blacklist *BlacklistRegistry,
	suffixConflict SuffixConflictChecker,
) []models.Disposition {
	membership := make(map[string]*groupMembership, len(records))
	for _, g := range groups {
		for _, id := range g.Members {
			membership[id] = &groupMembership{groupID: g.GroupID, inGroup: true, hasSuffixMismatch: g.HasSuffixMismatch}
		}
	}
	for _, sr := range survivorshipRecords {
		if m, ok := membership[sr.AccountID]; ok {
			m.isPrimary = sr.IsPrimary
		}
	}

	aliasesBySource := make(map[string][]models.AliasMatch)
	for _, am := range aliasMatches {
		aliasesBySource[am.SourceID] = append(aliasesBySource[am.SourceID], am)
	}

	out := make([]models.Disposition, 0, len(records))
	for _, r := range records {
		nameBase := ""
		if n, ok := normalized[r.AccountID]; ok {
			nameBase = n.NameBase
		}

		isBlacklisted, blacklistTerm := blacklist.Match(nameBase)
		aliases := aliasesBySource[r.AccountID]
		hasAlias := len(aliases) > 0
		mem, hasMembership := membership[r.AccountID]
		inGroup := hasMembership && mem.inGroup
		directConflict := suffixConflict != nil && suffixConflict(r.AccountID)

		out = append(out, classifyOne(r.AccountID, nameBase, isBlacklisted, blacklistTerm, hasAlias, aliases, inGroup, mem, directConflict))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// classifyOne applies the §4.11 priority cascade to one record's
// precomputed masks.
func classifyOne(
	accountID, nameBase string,
	isBlacklisted bool, blacklistTerm string,
	hasAlias bool, aliases []models.AliasMatch,
	inGroup bool, mem *groupMembership,
	directSuffixConflict bool,
) models.Disposition {
	switch {
	case isBlacklisted:
		return models.Disposition{
			AccountID:         accountID,
			Disposition:       models.DispositionDelete,
			DispositionReason: fmt.Sprintf("blacklist:%s", blacklistTerm),
		}
	case hasAlias:
		return models.Disposition{
			AccountID:         accountID,
			Disposition:       models.DispositionVerify,
			DispositionReason: aliasReason(aliases),
		}
	case inGroup:
		if mem.hasSuffixMismatch {
			return models.Disposition{
				AccountID:         accountID,
				Disposition:       models.DispositionVerify,
				DispositionReason: "suffix_mismatch_in_group",
			}
		}
		if mem.isPrimary {
			return models.Disposition{AccountID: accountID, Disposition: models.DispositionKeep, DispositionReason: "primary"}
		}
		return models.Disposition{AccountID: accountID, Disposition: models.DispositionUpdate, DispositionReason: "non_primary_in_group"}
	case directSuffixConflict:
		return models.Disposition{
			AccountID:         accountID,
			Disposition:       models.DispositionVerify,
			DispositionReason: "suffix_mismatch_pair",
		}
	default:
		if isSuspiciousSingleton(nameBase) {
			return models.Disposition{AccountID: accountID, Disposition: models.DispositionVerify, DispositionReason: "suspicious_singleton"}
		}
		return models.Disposition{AccountID: accountID, Disposition: models.DispositionKeep, DispositionReason: "singleton"}
	}
}

// aliasReason formats "alias_matches_N_groups_via_[sources]": N is the
// count of distinct target groups reached by this record's aliases, and
// sources lists the distinct alias-extraction methods involved, sorted
// for determinism.
func aliasReason(aliases []models.AliasMatch) string {
	groupSet := make(map[string]bool)
	sourceSet := make(map[string]bool)
	for _, a := range aliases {
		if a.TargetGroup != "" {
			groupSet[a.TargetGroup] = true
		}
		sourceSet[a.Source] = true
	}
	n := len(groupSet)
	if n == 0 {
		n = len(aliases)
	}
	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	return fmt.Sprintf("alias_matches_%d_groups_via_[%s]", n, strings.Join(sources, ","))
}
