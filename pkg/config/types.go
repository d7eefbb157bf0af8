// Package config defines the pipeline's configuration tree and loads it
// from YAML, following the shape of tarsy's pkg/config: types, defaults,
// merge (built-in vs. user), validation, and a loader.
package config

// Config is the umbrella configuration object threaded through every stage.
// It is the typed form of the settings mapping described in spec §6.
type Config struct {
	Similarity   SimilarityConfig   `yaml:"similarity"`
	Blocking     BlockingConfig     `yaml:"blocking"`
	Grouping     GroupingConfig     `yaml:"grouping"`
	Survivorship SurvivorshipConfig `yaml:"survivorship"`
	Disposition  DispositionConfig  `yaml:"disposition"`
	Parallelism  ParallelismConfig  `yaml:"parallelism"`
	Run          RunConfig          `yaml:"run"`
}

// PenaltyConfig holds the similarity-score penalty weights (§4.8).
type PenaltyConfig struct {
	SuffixMismatch    float64 `yaml:"suffix_mismatch" validate:"min=0"`
	NumStyleMismatch  float64 `yaml:"num_style_mismatch" validate:"min=0"`
	PunctuationMismatch float64 `yaml:"punctuation_mismatch" validate:"min=0"`
}

// SimilarityConfig controls scoring thresholds and penalties (§4.8).
type SimilarityConfig struct {
	High       float64       `yaml:"high" validate:"min=0,max=100"`
	Medium     float64       `yaml:"medium" validate:"min=0,max=100"`
	GateCutoff float64       `yaml:"gate_cutoff" validate:"min=0,max=100"`
	Penalty    PenaltyConfig `yaml:"penalty"`
}

// BlockingConfig controls candidate generation (§4.7).
type BlockingConfig struct {
	Strategies        []string `yaml:"strategies"`
	PrefixLen         int      `yaml:"prefix_len" validate:"min=1"`
	MaxBlockSize      int      `yaml:"max_block_size" validate:"min=1"`
	MaxPairsPerBlock  int      `yaml:"max_pairs_per_block" validate:"min=1"`
	MaxPairsTotal     int      `yaml:"max_pairs_total" validate:"min=1"`
	MinTokenLen       int      `yaml:"min_token_len" validate:"min=1"`
	StopTokens        []string `yaml:"stop_tokens"`
	DropTopFreqTokens int      `yaml:"drop_top_freq_tokens" validate:"min=0"`
	LengthWindowRatio float64  `yaml:"length_window_ratio" validate:"min=0"`
}

// GroupingConfig controls the union-find grouping engine (§4.9).
type GroupingConfig struct {
	MaxGroupSize      int  `yaml:"max_group_size" validate:"min=1"`
	CanopyEnabled     bool `yaml:"canopy_enabled"`
	EdgeGatingEnabled bool `yaml:"edge_gating_enabled"`
}

// SurvivorshipConfig controls primary selection (§4.10).
type SurvivorshipConfig struct {
	TieBreakers           []string       `yaml:"tie_breakers"`
	RelationshipRankTable map[string]int `yaml:"relationship_rank_table,omitempty"`
	DefaultRank           int            `yaml:"default_rank"`
}

// BlacklistConfig is the manually configured disposition blacklist (§4.11).
// Tokens/Phrases are pointers so that "key absent" (nil, built-ins apply)
// is distinguishable from "key present but an empty list" (disables the
// corresponding built-ins per §4.11).
type BlacklistConfig struct {
	Tokens  *[]string `yaml:"tokens,omitempty"`
	Phrases *[]string `yaml:"phrases,omitempty"`
}

// DispositionConfig controls the disposition classifier (§4.11).
type DispositionConfig struct {
	Blacklist BlacklistConfig `yaml:"blacklist"`
}

// ParallelismConfig controls the chunked parallel executor (§4.4, §6).
type ParallelismConfig struct {
	Workers            int    `yaml:"workers" validate:"min=0"`
	Backend            string `yaml:"backend" validate:"omitempty,oneof=process thread"`
	ChunkSize          int    `yaml:"chunk_size" validate:"min=0"`
	SmallInputThreshold int   `yaml:"small_input_threshold" validate:"min=0"`
	MemoryCapFraction  float64 `yaml:"memory_cap_fraction" validate:"min=0,max=1"`
}

// RunConfig controls run retention policy (§4.3, §6).
type RunConfig struct {
	KeepRuns        int  `yaml:"keep_runs" validate:"min=0"`
	KeepAtLeast     int  `yaml:"keep_at_least" validate:"min=0"`
	AllowEmptyState bool `yaml:"allow_empty_state"`
}
