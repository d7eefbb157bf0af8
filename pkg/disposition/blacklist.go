// Package disposition implements the C8 disposition classifier (§4.11):
// a vectorized-style priority cascade (blacklist, alias match, grouping
// outcome, singleton heuristics) that assigns exactly one of
// {Keep, Update, Delete, Verify} to every input row, plus the C5-reused
// alias-matching pass that cross-links records without altering group
// membership.
package disposition

import (
	"regexp"
	"strings"
)

// BlacklistRegistry is the effective blacklist built at stage entry from
// built-in and manually configured terms (§9 "Global mutable blacklist
// caches" redesign note: an explicit value passed by immutable reference
// into classification, never a package-level mutable cache).
type BlacklistRegistry struct {
	tokenPattern *regexp.Regexp
	tokens       []string
	phrases      []string
}

// NewBlacklistRegistry builds a registry from the effective token and
// phrase lists (already resolved by config.EffectiveBlacklistTokens/
// EffectiveBlacklistPhrases — the configured list, or the built-ins when
// none is configured; the two are not combined). Tokens match
// on word boundaries (whole-word, case-insensitive); phrases match as a
// case-insensitive substring.
func NewBlacklistRegistry(tokens, phrases []string) *BlacklistRegistry {
	r := &BlacklistRegistry{
		tokens:  append([]string(nil), tokens...),
		phrases: append([]string(nil), phrases...),
	}
	if len(tokens) > 0 {
		escaped := make([]string, len(tokens))
		for i, t := range tokens {
			escaped[i] = regexp.QuoteMeta(t)
		}
		r.tokenPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
	}
	return r
}

// Match reports whether nameBase (the lowercased, normalized account name)
// trips the blacklist, and if so, the matched term for the disposition
// reason string ("blacklist:<match>").
func (r *BlacklistRegistry) Match(nameBase string) (matched bool, term string) {
	if r == nil {
		return false, ""
	}
	lower := strings.ToLower(nameBase)
	for _, p := range r.phrases {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true, p
		}
	}
	if r.tokenPattern != nil {
		if m := r.tokenPattern.FindString(lower); m != "" {
			return true, m
		}
	}
	return false, ""
}
