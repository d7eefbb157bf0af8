package similarity

import (
	"context"
	"sort"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codeready-toolchain/dedupe/pkg/models"
	"github.com/codeready-toolchain/dedupe/pkg/normalize"
	"github.com/codeready-toolchain/dedupe/pkg/parallel"
)

// Params mirrors config.SimilarityConfig, decoupled from the config
// package so this package has no import-time dependency on it.
type Params struct {
	High                float64
	Medium              float64
	GateCutoff          float64
	SuffixMismatch      float64
	NumStyleMismatch    float64
	PunctuationMismatch float64
}

// ratioCacheSize bounds the LRU memoizing token_set_ratio computations
// (§4.8 performance: "penalties are vectorized across a batch"; the LRU
// keeps repeated name-core pairs — common in dense blocks — from redoing
// the O(n*m) edit-distance work).
const ratioCacheSize = 100_000

type ratioCache struct {
	cache *lru.Cache[uint64, float64]
}

func newRatioCache() *ratioCache {
	c, _ := lru.New[uint64, float64](ratioCacheSize)
	return &ratioCache{cache: c}
}

// key combines two name_core strings into one memoization key via
// xxhash, a fast non-cryptographic hash well suited to a hot-path cache
// key (unlike the SHA-256/SHA-1 used for content/group identity, which
// must be cryptographically stable, not merely fast).
func (c *ratioCache) key(a, b string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(a)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(b)
	return h.Sum64()
}

func (c *ratioCache) tokenSetRatio(a, b string) float64 {
	k := c.key(a, b)
	if v, ok := c.cache.Get(k); ok {
		return v
	}
	v := tokenSetRatio(a, b)
	c.cache.Add(k, v)
	return v
}

// NameLookup resolves the normalized-name fields a candidate pair's
// scoring needs, keyed by account ID.
type NameLookup func(accountID string) (models.NormalizedName, bool)

// Score computes the full §4.8 composite score (with the two-phase gate
// and penalties already applied) for one candidate pair. ok is false if
// the pair failed the cheap token-set gate and was never fully scored.
func Score(pair models.CandidatePair, lookup NameLookup, params Params, cache *ratioCache) (models.CandidatePair, bool) {
	a, okA := lookup(pair.IDA)
	b, okB := lookup(pair.IDB)
	if !okA || !okB {
		return pair, false
	}

	if cache == nil {
		cache = newRatioCache()
	}

	gateRatio := cache.tokenSetRatio(a.NameCore, b.NameCore)
	if gateRatio < params.GateCutoff {
		return pair, false
	}

	ratioName := tokenSortRatio(a.NameCore, b.NameCore)
	ratioSet := gateRatio
	jac := jaccard(a.NameCore, b.NameCore)
	composite := 0.45*ratioName + 0.35*ratioSet + 20*jac

	suffixMatch := a.SuffixClass == b.SuffixClass
	penalty := 0.0
	if !suffixMatch {
		penalty += params.SuffixMismatch
	}
	if normalize.NumStyleSignature(a.NameCore) != normalize.NumStyleSignature(b.NameCore) {
		penalty += params.NumStyleMismatch
	}
	if a.HasParentheses != b.HasParentheses || a.HasSemicolon != b.HasSemicolon {
		penalty += params.PunctuationMismatch
	}

	score := clamp(composite-penalty, 0, 100)

	out := pair
	out.RatioName = ratioName
	out.RatioSet = ratioSet
	out.Jaccard = jac
	out.Score = score
	out.SuffixMatch = suffixMatch
	out.HighConf = score >= params.High
	return out, true
}

// ScoreNames computes the §4.8 composite score between two bare name_core
// strings with explicit suffix classes, for callers that need to score
// text that was never blocked into a CandidatePair — specifically
// pkg/disposition's alias matching (§4.11 "scored against all other
// records' name_core using the same similarity function"). It applies the
// same ratio/jaccard composite and the suffix/numeric-style penalties as
// Score; the punctuation-mismatch penalty is omitted because an alias
// candidate string carries no independent has_parentheses/has_semicolon
// flags of its own to compare.
func ScoreNames(coreA, coreB, suffixA, suffixB string, params Params) (score float64, suffixMatch bool) {
	ratioName := tokenSortRatio(coreA, coreB)
	ratioSet := tokenSetRatio(coreA, coreB)
	jac := jaccard(coreA, coreB)
	composite := 0.45*ratioName + 0.35*ratioSet + 20*jac

	suffixMatch = suffixA == suffixB
	penalty := 0.0
	if !suffixMatch {
		penalty += params.SuffixMismatch
	}
	if normalize.NumStyleSignature(coreA) != normalize.NumStyleSignature(coreB) {
		penalty += params.NumStyleMismatch
	}
	return clamp(composite-penalty, 0, 100), suffixMatch
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ScoreBatch scores every pair in parallel (chunked by pair index per
// §4.8 "Parallel executor chunks by pair index"), drops pairs that failed
// the gate or scored below Medium, and restores canonical ordering
// `(id_a, id_b, score desc, strategy)` after the parallel merge (§4.8).
//
// A suffix-mismatched pair is the one exception to the Medium cutoff: per
// §4.8, "Pairs with suffix_match=false cannot be auto-accepted (they may
// only force Verify)". The default suffix-mismatch penalty (25) exceeds
// the gap between a perfect composite (100) and Medium (84), so an
// otherwise-identical pair differing only by legal suffix can never clear
// Medium after the penalty is applied. Such pairs are kept anyway,
// gated on the pre-penalty composite alone, so grouping can still reject
// them as an edge (§4.9 "kept as annotations only") while disposition
// uses their presence to force Verify on both endpoints.
func ScoreBatch(ctx context.Context, pairs []models.CandidatePair, lookup NameLookup, params Params, popts parallel.Options) ([]models.CandidatePair, error) {
	cache := newRatioCache()

	scored, err := parallel.Map(ctx, pairs, popts, func(ctx context.Context, chunk []models.CandidatePair, _ int) ([]models.CandidatePair, error) {
		out := make([]models.CandidatePair, 0, len(chunk))
		for _, p := range chunk {
			scoredPair, ok := Score(p, lookup, params, cache)
			if !ok {
				continue
			}
			if scoredPair.Score >= params.Medium {
				out = append(out, scoredPair)
				continue
			}
			if !scoredPair.SuffixMatch {
				composite := 0.45*scoredPair.RatioName + 0.35*scoredPair.RatioSet + 20*scoredPair.Jaccard
				if composite >= params.Medium {
					out = append(out, scoredPair)
				}
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].IDA != scored[j].IDA {
			return scored[i].IDA < scored[j].IDA
		}
		if scored[i].IDB != scored[j].IDB {
			return scored[i].IDB < scored[j].IDB
		}
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Strategy < scored[j].Strategy
	})
	return scored, nil
}
