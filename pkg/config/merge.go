package config

// mergeInto overlays user-supplied settings onto the built-in defaults,
// field by field, following the same "built-in, then override" shape as
// tarsy's pkg/config/merge.go. Zero-valued user fields are treated as
// "not specified" and the default is kept; this mirrors how tarsy merges
// agents/chains/servers by name, applied here to scalar config fields.
func mergeInto(base *Config, override *Config) *Config {
	out := *base

	if override.Similarity.High != 0 {
		out.Similarity.High = override.Similarity.High
	}
	if override.Similarity.Medium != 0 {
		out.Similarity.Medium = override.Similarity.Medium
	}
	if override.Similarity.GateCutoff != 0 {
		out.Similarity.GateCutoff = override.Similarity.GateCutoff
	}
	if override.Similarity.Penalty.SuffixMismatch != 0 {
		out.Similarity.Penalty.SuffixMismatch = override.Similarity.Penalty.SuffixMismatch
	}
	if override.Similarity.Penalty.NumStyleMismatch != 0 {
		out.Similarity.Penalty.NumStyleMismatch = override.Similarity.Penalty.NumStyleMismatch
	}
	if override.Similarity.Penalty.PunctuationMismatch != 0 {
		out.Similarity.Penalty.PunctuationMismatch = override.Similarity.Penalty.PunctuationMismatch
	}

	if len(override.Blocking.Strategies) > 0 {
		out.Blocking.Strategies = override.Blocking.Strategies
	}
	if override.Blocking.PrefixLen != 0 {
		out.Blocking.PrefixLen = override.Blocking.PrefixLen
	}
	if override.Blocking.MaxBlockSize != 0 {
		out.Blocking.MaxBlockSize = override.Blocking.MaxBlockSize
	}
	if override.Blocking.MaxPairsPerBlock != 0 {
		out.Blocking.MaxPairsPerBlock = override.Blocking.MaxPairsPerBlock
	}
	if override.Blocking.MaxPairsTotal != 0 {
		out.Blocking.MaxPairsTotal = override.Blocking.MaxPairsTotal
	}
	if override.Blocking.MinTokenLen != 0 {
		out.Blocking.MinTokenLen = override.Blocking.MinTokenLen
	}
	if len(override.Blocking.StopTokens) > 0 {
		out.Blocking.StopTokens = override.Blocking.StopTokens
	}
	if override.Blocking.DropTopFreqTokens != 0 {
		out.Blocking.DropTopFreqTokens = override.Blocking.DropTopFreqTokens
	}
	if override.Blocking.LengthWindowRatio != 0 {
		out.Blocking.LengthWindowRatio = override.Blocking.LengthWindowRatio
	}

	if override.Grouping.MaxGroupSize != 0 {
		out.Grouping.MaxGroupSize = override.Grouping.MaxGroupSize
	}
	out.Grouping.CanopyEnabled = override.Grouping.CanopyEnabled || base.Grouping.CanopyEnabled
	out.Grouping.EdgeGatingEnabled = override.Grouping.EdgeGatingEnabled || base.Grouping.EdgeGatingEnabled

	if len(override.Survivorship.TieBreakers) > 0 {
		out.Survivorship.TieBreakers = override.Survivorship.TieBreakers
	}
	if len(override.Survivorship.RelationshipRankTable) > 0 {
		out.Survivorship.RelationshipRankTable = override.Survivorship.RelationshipRankTable
	}
	if override.Survivorship.DefaultRank != 0 {
		out.Survivorship.DefaultRank = override.Survivorship.DefaultRank
	}

	if override.Disposition.Blacklist.Tokens != nil {
		out.Disposition.Blacklist.Tokens = override.Disposition.Blacklist.Tokens
	}
	if override.Disposition.Blacklist.Phrases != nil {
		out.Disposition.Blacklist.Phrases = override.Disposition.Blacklist.Phrases
	}

	if override.Parallelism.Workers != 0 {
		out.Parallelism.Workers = override.Parallelism.Workers
	}
	if override.Parallelism.Backend != "" {
		out.Parallelism.Backend = override.Parallelism.Backend
	}
	if override.Parallelism.ChunkSize != 0 {
		out.Parallelism.ChunkSize = override.Parallelism.ChunkSize
	}
	if override.Parallelism.SmallInputThreshold != 0 {
		out.Parallelism.SmallInputThreshold = override.Parallelism.SmallInputThreshold
	}
	if override.Parallelism.MemoryCapFraction != 0 {
		out.Parallelism.MemoryCapFraction = override.Parallelism.MemoryCapFraction
	}

	if override.Run.KeepRuns != 0 {
		out.Run.KeepRuns = override.Run.KeepRuns
	}
	if override.Run.KeepAtLeast != 0 {
		out.Run.KeepAtLeast = override.Run.KeepAtLeast
	}
	out.Run.AllowEmptyState = override.Run.AllowEmptyState || base.Run.AllowEmptyState

	return &out
}
