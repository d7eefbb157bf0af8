package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

func baseOpts() Options {
	return Options{
		Strategies:        []string{models.StrategyFirstToken, models.StrategyFirstTwoTokens, models.StrategyPrefixNgram, models.StrategySortedBigrams},
		PrefixLen:         10,
		MaxBlockSize:      2500,
		MaxPairsPerBlock:  1000,
		MaxPairsTotal:     0,
		MinTokenLen:       2,
		StopTokens:        map[string]bool{"inc": true, "llc": true, "ltd": true},
		LengthWindowRatio: 0,
	}
}

func names(pairs ...[2]string) []models.NormalizedName {
	var out []models.NormalizedName
	for _, p := range pairs {
		out = append(out, models.NormalizedName{AccountID: p[0], NameCore: p[1]})
	}
	return out
}

func TestGenerate_SharesFirstTokenBlock(t *testing.T) {
	input := names([2]string{"a1", "acme holdings"}, [2]string{"a2", "acme industries"})
	pairs, _ := Generate(input, baseOpts())
	require.NotEmpty(t, pairs)
	assert.Equal(t, "a1", pairs[0].IDA)
	assert.Equal(t, "a2", pairs[0].IDB)
}

func TestGenerate_NoBlockSharedMeansNoPair(t *testing.T) {
	input := names([2]string{"a1", "acme holdings"}, [2]string{"a2", "zeta corp"})
	pairs, _ := Generate(input, baseOpts())
	assert.Empty(t, pairs)
}

func TestGenerate_DeduplicatesAcrossStrategies(t *testing.T) {
	input := names([2]string{"a1", "acme holdings group"}, [2]string{"a2", "acme holdings group"})
	pairs, _ := Generate(input, baseOpts())
	assert.Len(t, pairs, 1, "identical cores share every strategy's block, pair must be emitted once")
}

func TestGenerate_StopTokensExcludedFromKeys(t *testing.T) {
	input := names([2]string{"a1", "inc holdings"}, [2]string{"a2", "inc industries"})
	pairs, _ := Generate(input, baseOpts())
	// first_token would key on "inc" if not filtered; with it filtered,
	// first_token contributes nothing, but first_two_tokens/bigrams may still
	// differ ("holdings" vs "industries" don't share a block at all here).
	assert.Empty(t, pairs)
}

func TestGenerate_MinTokenLenDropsShortTokens(t *testing.T) {
	opts := baseOpts()
	opts.MinTokenLen = 5
	input := names([2]string{"a1", "ab holdings"}, [2]string{"a2", "ab industries"})
	pairs, _ := Generate(input, opts)
	assert.Empty(t, pairs, "short first token 'ab' should be dropped by min_token_len, leaving no shared block")
}

func TestGenerate_OutputSortedDeterministically(t *testing.T) {
	input := names(
		[2]string{"c1", "acme holdings"},
		[2]string{"a1", "acme holdings"},
		[2]string{"b1", "acme holdings"},
	)
	pairs, _ := Generate(input, baseOpts())
	for i := 1; i < len(pairs); i++ {
		prev, cur := pairs[i-1], pairs[i]
		ok := prev.IDA < cur.IDA || (prev.IDA == cur.IDA && prev.IDB <= cur.IDB)
		assert.True(t, ok, "pairs must be sorted by (id_a, id_b, strategy)")
	}
}

func TestGenerate_MaxPairsPerBlockFlagsCapped(t *testing.T) {
	opts := baseOpts()
	opts.MaxPairsPerBlock = 1
	input := names(
		[2]string{"a1", "acme holdings group"},
		[2]string{"a2", "acme holdings group"},
		[2]string{"a3", "acme holdings group"},
	)
	pairs, stats := Generate(input, opts)
	require.Len(t, pairs, 3) // identical cores -> one block per strategy, deduped to 3 unique pairs total
	assert.Greater(t, stats.PairsCapped, 0)
}

func TestGenerate_LengthWindowRatioExcludesDissimilarLengths(t *testing.T) {
	opts := baseOpts()
	opts.LengthWindowRatio = 0.9
	input := names(
		[2]string{"a1", "acme"},
		[2]string{"a2", "acme holdings international group corp"},
	)
	pairs, _ := Generate(input, opts)
	assert.Empty(t, pairs)
}

func TestGenerate_MaxPairsTotalBoundsOutput(t *testing.T) {
	opts := baseOpts()
	opts.MaxPairsTotal = 1
	input := names(
		[2]string{"a1", "acme holdings"},
		[2]string{"a2", "acme holdings"},
		[2]string{"a3", "acme holdings"},
	)
	pairs, stats := Generate(input, opts)
	assert.Len(t, pairs, 1)
	assert.Greater(t, stats.PairsCapped, 0)
}
