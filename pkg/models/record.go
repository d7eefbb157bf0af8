// Package models defines the data types shared across every pipeline stage.
package models

import "time"

// RelationshipRankUnknown is the default rank assigned to a relationship
// value absent from the configured rank table. Configuration may override it.
const RelationshipRankUnknown = 60

// Record is the canonical internal representation of one input row.
type Record struct {
	AccountID      string    `json:"account_id"`
	AccountIDSrc   string    `json:"account_id_src"`
	AccountName    string    `json:"account_name"`
	CreatedDate    time.Time `json:"created_date"`
	Relationship   string    `json:"relationship"`
	RelationshipRk int       `json:"relationship_rank"`
}

// NormalizedName is the normalized view of a Record's AccountName, produced
// by pkg/normalize.
type NormalizedName struct {
	AccountID         string   `json:"account_id"`
	NameRaw           string   `json:"name_raw"`
	NameBase          string   `json:"name_base"`
	NameCore          string   `json:"name_core"`
	SuffixClass       string   `json:"suffix_class"`
	HasParentheses    bool     `json:"has_parentheses"`
	HasSemicolon      bool     `json:"has_semicolon"`
	HasMultipleNames  bool     `json:"has_multiple_names"`
	AliasCandidates   []string `json:"alias_candidates"`
	AliasSources      []string `json:"alias_sources"`
}

// Suffix classes recognized by the normalizer (§3).
const (
	SuffixINC  = "INC"
	SuffixLLC  = "LLC"
	SuffixLTD  = "LTD"
	SuffixCORP = "CORP"
	SuffixLLP  = "LLP"
	SuffixLP   = "LP"
	SuffixPLLC = "PLLC"
	SuffixPC   = "PC"
	SuffixCO   = "CO"
	SuffixGMBH = "GMBH"
	SuffixNONE = "NONE"
)

// Alias sources (§3).
const (
	AliasSourceSemicolon   = "semicolon"
	AliasSourceNumbered    = "numbered"
	AliasSourceParentheses = "parentheses"
)
