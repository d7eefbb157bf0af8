// Package normalize implements the legal-suffix-aware name canonicalizer
// and alias extractor (§4.5). It is a pure, deterministic, idempotent
// transform from a raw account name to models.NormalizedName — no I/O, no
// concurrency, following the shape of tarsy's pure formatting helpers
// (pkg/utils) rather than its stateful session/queue types.
package normalize

import (
	"regexp"
	"strings"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// symbolMap is the §3/§4.5 symbol-to-word substitution table, applied
// before tokenization.
var symbolMap = []struct {
	from, to string
}{
	{"&", " and "},
	{"/", " "},
	{"-", " "},
	{"@", " at "},
	{"+", " plus "},
}

// suffixTable maps a lowercased trailing token to its suffix_class. Longer,
// multi-word forms are matched first via suffixPhrases below.
var suffixTable = map[string]string{
	"inc":         models.SuffixINC,
	"incorporated": models.SuffixINC,
	"llc":         models.SuffixLLC,
	"l.l.c":       models.SuffixLLC,
	"ltd":         models.SuffixLTD,
	"limited":     models.SuffixLTD,
	"corp":        models.SuffixCORP,
	"corporation": models.SuffixCORP,
	"llp":         models.SuffixLLP,
	"lp":          models.SuffixLP,
	"pllc":        models.SuffixPLLC,
	"pc":          models.SuffixPC,
	"co":          models.SuffixCO,
	"company":     models.SuffixCO,
	"gmbh":        models.SuffixGMBH,
}

// parentheticalBlacklist lists phrases that disqualify parenthesized
// content from being treated as an alias candidate (§4.5).
var parentheticalBlacklist = map[string]bool{
	"paystub":         true,
	"not sure":        true,
	"unsure":          true,
	"staffing agency": true,
}

var (
	numericStyleRe  = regexp.MustCompile(`(\d+)[-/ ](\d+)`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	numberedMarkerRe = regexp.MustCompile(`\(\s*(\d+)\s*\)`)
	capitalizedWordRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]*\b`)
	numbersOnlyRe    = regexp.MustCompile(`^[\s\d]+$`)
	parenContentRe   = regexp.MustCompile(`\(([^()]*)\)`)
)

// Normalize transforms a raw account name into its NormalizedName (§4.5).
// It is deterministic and idempotent: Normalize(Normalize(x).NameRaw) would
// not generally make sense since NameRaw is preserved verbatim, but
// Normalize(x) called twice on the same x always yields byte-identical
// output.
func Normalize(accountID, rawName string) models.NormalizedName {
	n := models.NormalizedName{
		AccountID: accountID,
		NameRaw:   rawName,
	}

	n.HasParentheses = strings.ContainsAny(rawName, "()")
	n.HasSemicolon = strings.Contains(rawName, ";")

	base := unifyNumericStyle(applySymbolMap(strings.ToLower(rawName)))
	base = whitespaceRe.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)
	n.NameBase = base

	tokens := strings.Fields(base)
	core, suffixClass := extractTrailingSuffix(tokens)
	n.NameCore = strings.Join(core, " ")
	n.SuffixClass = suffixClass

	aliases, sources := extractAliases(rawName)
	n.AliasCandidates = aliases
	n.AliasSources = sources
	n.HasMultipleNames = len(aliases) > 0

	return n
}

func applySymbolMap(s string) string {
	for _, sub := range symbolMap {
		s = strings.ReplaceAll(s, sub.from, sub.to)
	}
	return s
}

// unifyNumericStyle collapses `20-20`, `20/20`, `20 20` to a single space
// form `20 20` (§4.5). Applied after the symbol map has already turned '-'
// and '/' into spaces, so by the time this runs the only separator left to
// normalize is whitespace itself; this still exists as an explicit step
// so a raw "20-20" never depends on symbol-map ordering to collapse
// correctly, and to absorb any other adjacent-number spacing variants.
func unifyNumericStyle(s string) string {
	return numericStyleRe.ReplaceAllString(s, "$1 $2")
}

// extractTrailingSuffix pulls the trailing legal-suffix token (if any) off
// a token list, returning the remaining core tokens and the suffix class.
func extractTrailingSuffix(tokens []string) ([]string, string) {
	if len(tokens) == 0 {
		return tokens, models.SuffixNONE
	}
	last := strings.Trim(tokens[len(tokens)-1], ".,")
	if class, ok := suffixTable[last]; ok {
		return tokens[:len(tokens)-1], class
	}
	return tokens, models.SuffixNONE
}

// extractAliases pulls candidate alternate names out of a raw account name
// from three sources (§4.5): semicolon splits, numbered-sequence markers
// "(N)", and parenthesized content meeting the legal-suffix-or-multi-capitalized
// heuristic while not matching the parenthetical blacklist.
func extractAliases(raw string) ([]string, []string) {
	var aliases, sources []string

	if strings.Contains(raw, ";") {
		for _, part := range strings.Split(raw, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			aliases = append(aliases, part)
			sources = append(sources, models.AliasSourceSemicolon)
		}
	}

	for _, m := range numberedMarkerRe.FindAllStringSubmatch(raw, -1) {
		aliases = append(aliases, strings.TrimSpace(m[0]))
		sources = append(sources, models.AliasSourceNumbered)
	}

	for _, m := range parenContentRe.FindAllStringSubmatch(raw, -1) {
		content := strings.TrimSpace(m[1])
		if content == "" {
			continue
		}
		if isAliasWorthyParenthetical(content) {
			aliases = append(aliases, content)
			sources = append(sources, models.AliasSourceParentheses)
		}
	}

	return aliases, sources
}

// isAliasWorthyParenthetical implements the §4.5 rule: parenthesized
// content is a candidate alias only if it contains a legal suffix token or
// at least two capitalized words, and does not match the parenthetical
// blacklist or look like a bare number.
func isAliasWorthyParenthetical(content string) bool {
	lower := strings.ToLower(strings.TrimSpace(content))
	if parentheticalBlacklist[lower] {
		return false
	}
	if numbersOnlyRe.MatchString(content) {
		return false
	}

	hasSuffix := false
	for _, tok := range strings.Fields(strings.ToLower(content)) {
		if _, ok := suffixTable[strings.Trim(tok, ".,")]; ok {
			hasSuffix = true
			break
		}
	}
	if hasSuffix {
		return true
	}

	return len(capitalizedWordRe.FindAllString(content, -1)) >= 2
}

// NumStyleSignature returns a comparable signature for the "numeric style"
// penalty check (§4.8): whether the name contains digit sequences at all,
// and if so the digit-group pattern, so two names with mismatched numeric
// conventions (e.g. "Unit 5" vs "Unit Five") can be flagged.
func NumStyleSignature(nameCore string) string {
	var digits strings.Builder
	for _, r := range nameCore {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 && digits.String()[digits.Len()-1] != ' ' {
			digits.WriteRune(' ')
		}
	}
	return strings.TrimSpace(digits.String())
}
