// Package blocking implements the C4 candidate-pair generator (§4.7):
// multiple blocking strategies over name_core tokens, token hygiene
// (min length, stop tokens, optional top-K-frequency dropping), per-block
// and global pair caps with deterministic downsampling, a length-window
// prefilter, and jumbo-block sharding.
package blocking

import (
	"sort"
	"strings"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// Options configures one Generate call, typically derived from
// config.BlockingConfig.
type Options struct {
	Strategies        []string
	PrefixLen         int
	MaxBlockSize      int
	MaxPairsPerBlock  int
	MaxPairsTotal     int
	MinTokenLen       int
	StopTokens        map[string]bool
	DropTopFreqTokens int
	LengthWindowRatio float64
}

// Stats records blocking-level bookkeeping for the audit artifact (§4.7
// "When a cap triggers ... recorded in a stats artifact").
type Stats struct {
	BlocksConsidered int
	BlocksCapped     int
	PairsEmitted     int
	PairsCapped      int
	ShardedBlocks    int
}

type block struct {
	key      string
	strategy string
	members  []models.NormalizedName
}

// Generate computes the union of candidate pairs produced by every
// configured blocking strategy over names, applying token hygiene, caps,
// the length-window prefilter, and jumbo sharding (§4.7). Output is sorted
// by (id_a, id_b, strategy) for determinism.
func Generate(names []models.NormalizedName, opts Options) ([]models.CandidatePair, Stats) {
	stopTokenFreq := computeTopFrequentFirstTokens(names, opts.DropTopFreqTokens)

	blocks := buildBlocks(names, opts, stopTokenFreq)

	var stats Stats
	stats.BlocksConsidered = len(blocks)

	seen := make(map[string]bool)
	var pairs []models.CandidatePair

	for _, b := range blocks {
		members := b.members
		if len(members) > opts.MaxBlockSize {
			stats.BlocksCapped++
			for _, shard := range shardBlock(members, opts.MaxBlockSize) {
				stats.ShardedBlocks++
				emitted, capped := emitBlockPairs(shard, b.strategy, b.key, opts, seen)
				pairs = append(pairs, emitted...)
				stats.PairsEmitted += len(emitted)
				stats.PairsCapped += capped
			}
			continue
		}
		emitted, capped := emitBlockPairs(members, b.strategy, b.key, opts, seen)
		pairs = append(pairs, emitted...)
		stats.PairsEmitted += len(emitted)
		stats.PairsCapped += capped
	}

	if opts.MaxPairsTotal > 0 && len(pairs) > opts.MaxPairsTotal {
		sortPairsDeterministic(pairs)
		for i := opts.MaxPairsTotal; i < len(pairs); i++ {
			pairs[i].PairsCapped = true
		}
		stats.PairsCapped += len(pairs) - opts.MaxPairsTotal
		pairs = pairs[:opts.MaxPairsTotal]
	}

	sortPairsDeterministic(pairs)
	return pairs, stats
}

// buildBlocks assigns each eligible name to a block per configured
// strategy, skipping names whose chosen key is empty after hygiene
// filtering.
func buildBlocks(names []models.NormalizedName, opts Options, droppedFirstTokens map[string]bool) []block {
	blocksByKey := make(map[string]*block)
	var order []string

	for _, strategy := range opts.Strategies {
		for _, n := range names {
			tokens := hygienicTokens(n.NameCore, opts)
			key := blockKey(strategy, tokens, opts.PrefixLen, n.NameCore)
			if key == "" {
				continue
			}
			if strategy == models.StrategyFirstToken && droppedFirstTokens[key] {
				continue
			}
			compound := strategy + "\x00" + key
			b, ok := blocksByKey[compound]
			if !ok {
				b = &block{key: key, strategy: strategy}
				blocksByKey[compound] = b
				order = append(order, compound)
			}
			b.members = append(b.members, n)
		}
	}

	sort.Strings(order)
	out := make([]block, 0, len(order))
	for _, k := range order {
		out = append(out, *blocksByKey[k])
	}
	return out
}

// hygienicTokens splits name_core into tokens, dropping any shorter than
// MinTokenLen or present in StopTokens (§4.7 "Token hygiene").
func hygienicTokens(nameCore string, opts Options) []string {
	var out []string
	for _, tok := range strings.Fields(nameCore) {
		if len(tok) < opts.MinTokenLen {
			continue
		}
		if opts.StopTokens != nil && opts.StopTokens[tok] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// blockKey computes the blocking key for one strategy (§4.7).
func blockKey(strategy string, tokens []string, prefixLen int, nameCore string) string {
	switch strategy {
	case models.StrategyFirstToken:
		if len(tokens) == 0 {
			return ""
		}
		return tokens[0]
	case models.StrategyFirstTwoTokens:
		if len(tokens) < 2 {
			return ""
		}
		return tokens[0] + " " + tokens[1]
	case models.StrategyPrefixNgram:
		compact := strings.ReplaceAll(nameCore, " ", "")
		if compact == "" {
			return ""
		}
		if prefixLen <= 0 {
			prefixLen = 10
		}
		if len(compact) > prefixLen {
			compact = compact[:prefixLen]
		}
		return compact
	case models.StrategySortedBigrams:
		if len(tokens) < 2 {
			return ""
		}
		var bigrams []string
		for i := 0; i < len(tokens)-1; i++ {
			a, b := tokens[i], tokens[i+1]
			if b < a {
				a, b = b, a
			}
			bigrams = append(bigrams, a+"_"+b)
		}
		sort.Strings(bigrams)
		return strings.Join(bigrams, ",")
	default:
		return ""
	}
}

// computeTopFrequentFirstTokens returns the set of the topK most frequent
// first tokens across names, to be excluded from first_token blocking
// (§4.7 "Optionally drop the top-K most frequent first tokens").
func computeTopFrequentFirstTokens(names []models.NormalizedName, topK int) map[string]bool {
	out := make(map[string]bool)
	if topK <= 0 {
		return out
	}
	freq := make(map[string]int)
	for _, n := range names {
		tokens := strings.Fields(n.NameCore)
		if len(tokens) == 0 {
			continue
		}
		freq[tokens[0]]++
	}
	type kv struct {
		token string
		count int
	}
	sorted := make([]kv, 0, len(freq))
	for k, v := range freq {
		sorted = append(sorted, kv{k, v})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].token < sorted[j].token // deterministic tiebreak
	})
	for i := 0; i < topK && i < len(sorted); i++ {
		out[sorted[i].token] = true
	}
	return out
}

// shardBlock deterministically partitions an oversized block into shards
// bounded by maxSize, keyed by a secondary signal (third-token initial)
// so jumbo blocks never materialize O(n^2) pairs (§4.7 "Jumbo sharding").
func shardBlock(members []models.NormalizedName, maxSize int) [][]models.NormalizedName {
	sorted := make([]models.NormalizedName, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AccountID < sorted[j].AccountID })

	shardKey := func(n models.NormalizedName) string {
		tokens := strings.Fields(n.NameCore)
		if len(tokens) >= 3 && len(tokens[2]) > 0 {
			return tokens[2][:1]
		}
		if len(tokens) >= 2 && len(tokens[1]) > 0 {
			return tokens[1][:1]
		}
		return ""
	}

	byShard := make(map[string][]models.NormalizedName)
	var shardOrder []string
	for _, n := range sorted {
		k := shardKey(n)
		if _, ok := byShard[k]; !ok {
			shardOrder = append(shardOrder, k)
		}
		byShard[k] = append(byShard[k], n)
	}
	sort.Strings(shardOrder)

	var shards [][]models.NormalizedName
	for _, k := range shardOrder {
		group := byShard[k]
		for len(group) > maxSize {
			shards = append(shards, group[:maxSize])
			group = group[maxSize:]
		}
		if len(group) > 0 {
			shards = append(shards, group)
		}
	}
	return shards
}

// emitBlockPairs produces every within-block pair passing the
// length-window prefilter, deduplicated across strategies via seen, and
// flags pairs beyond MaxPairsPerBlock as capped rather than omitting them
// outright (§4.7: "flagged pairs_capped=1 and recorded in a stats
// artifact").
func emitBlockPairs(members []models.NormalizedName, strategy, key string, opts Options, seen map[string]bool) ([]models.CandidatePair, int) {
	sorted := make([]models.NormalizedName, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AccountID < sorted[j].AccountID })

	var pairs []models.CandidatePair
	capped := 0
	emittedInBlock := 0

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if opts.LengthWindowRatio > 0 && !withinLengthWindow(a.NameCore, b.NameCore, opts.LengthWindowRatio) {
				continue
			}
			idA, idB, _ := models.OrderedPair(a.AccountID, b.AccountID)
			dedupKey := idA + "\x00" + idB
			if seen[dedupKey] {
				continue
			}
			seen[dedupKey] = true

			pair := models.CandidatePair{
				IDA:      idA,
				IDB:      idB,
				BlockKey: key,
				Strategy: strategy,
			}
			if opts.MaxPairsPerBlock > 0 && emittedInBlock >= opts.MaxPairsPerBlock {
				pair.PairsCapped = true
				capped++
			}
			emittedInBlock++
			pairs = append(pairs, pair)
		}
	}
	return pairs, capped
}

// withinLengthWindow reports whether two name_core strings' length ratio
// falls within the configured window, avoiding O(n^2) scoring of pairs
// that differ too much in length to plausibly match (§4.7).
func withinLengthWindow(a, b string, ratio float64) bool {
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return la == lb
	}
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter)/float64(longer) >= ratio
}

// sortPairsDeterministic sorts by (id_a, id_b, strategy) per §4.7's
// determinism contract.
func sortPairsDeterministic(pairs []models.CandidatePair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].IDA != pairs[j].IDA {
			return pairs[i].IDA < pairs[j].IDA
		}
		if pairs[i].IDB != pairs[j].IDB {
			return pairs[i].IDB < pairs[j].IDB
		}
		return pairs[i].Strategy < pairs[j].Strategy
	})
}
