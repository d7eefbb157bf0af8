package config

// Default token hygiene and suffix tables (§4.5, §4.7).
var (
	defaultStopTokens = []string{"inc", "llc", "ltd"}

	// defaultBlacklistTokens are the built-in single-word disposition
	// blacklist entries (§4.11), matched on word boundaries.
	defaultBlacklistTokens = []string{
		"test", "duplicate", "delete", "dnu", "donotuse",
	}

	// defaultBlacklistPhrases are matched by substring (§4.11).
	defaultBlacklistPhrases = []string{
		"not sure", "unsure", "staffing agency", "is not sure",
	}
)

// Default returns the built-in configuration defaults. These are the values
// used when a settings mapping omits a key (§6).
func Default() *Config {
	return &Config{
		Similarity: SimilarityConfig{
			High:       92,
			Medium:     84,
			GateCutoff: 72,
			Penalty: PenaltyConfig{
				SuffixMismatch:      25,
				NumStyleMismatch:    5,
				PunctuationMismatch: 3,
			},
		},
		Blocking: BlockingConfig{
			Strategies:        []string{"first_token", "first_two_tokens", "prefix_ngram", "sorted_bigrams"},
			PrefixLen:         10,
			MaxBlockSize:      2500,
			MaxPairsPerBlock:  50000,
			MaxPairsTotal:     2000000,
			MinTokenLen:       2,
			StopTokens:        append([]string(nil), defaultStopTokens...),
			DropTopFreqTokens: 0,
			LengthWindowRatio: 0.6,
		},
		Grouping: GroupingConfig{
			MaxGroupSize:      500,
			CanopyEnabled:     true,
			EdgeGatingEnabled: true,
		},
		Survivorship: SurvivorshipConfig{
			TieBreakers: []string{"relationship_rank", "created_date", "account_id"},
			DefaultRank: 60,
		},
		Disposition: DispositionConfig{
			Blacklist: BlacklistConfig{
				Tokens:  nil,
				Phrases: nil,
			},
		},
		Parallelism: ParallelismConfig{
			Workers:             0, // 0 = autotune (§4.4)
			Backend:             "process",
			ChunkSize:           0, // 0 = autotune
			SmallInputThreshold: 500,
			MemoryCapFraction:   0.75,
		},
		Run: RunConfig{
			KeepRuns:        20,
			KeepAtLeast:     3,
			AllowEmptyState: true,
		},
	}
}

// EffectiveBlacklistTokens returns the token blacklist in effect (§4.11).
// A configured (non-nil) pointer — even to an empty slice — replaces the
// built-ins entirely; an absent (nil) pointer means "not configured", and
// the built-ins apply. The two lists are never combined: there is no
// separate manual list added on top of the built-ins.
func EffectiveBlacklistTokens(configured *[]string) []string {
	if configured != nil {
		return append([]string(nil), (*configured)...)
	}
	return append([]string(nil), defaultBlacklistTokens...)
}

// EffectiveBlacklistPhrases mirrors EffectiveBlacklistTokens for phrases.
func EffectiveBlacklistPhrases(configured *[]string) []string {
	if configured != nil {
		return append([]string(nil), (*configured)...)
	}
	return append([]string(nil), defaultBlacklistPhrases...)
}
