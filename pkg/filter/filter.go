// Package filter implements the C2 pre-blocking filter (§2): it drops
// records whose normalized name is empty or too noisy to block on
// meaningfully, and records every drop in an audit artifact so row counts
// stay reconcilable end to end.
package filter

import (
	"strings"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// DroppedRecord is one audit-artifact row: which record was dropped and
// why.
type DroppedRecord struct {
	AccountID string `json:"account_id"`
	NameRaw   string `json:"name_raw"`
	Reason    string `json:"reason"`
}

// Reason codes for dropped records.
const (
	ReasonEmptyName  = "empty_name"
	ReasonNoiseOnly  = "noise_only_name"
)

// noiseTokens are names that, alone, carry no identifying signal (pure
// punctuation/boilerplate placeholders seen in real exports).
var noiseTokens = map[string]bool{
	"n/a":         true,
	"na":          true,
	"none":        true,
	"unknown":     true,
	"test":        true,
	"-":           true,
	".":           true,
}

// Result is the filtered record set plus its audit trail.
type Result struct {
	Kept    []models.NormalizedName
	Dropped []DroppedRecord
}

// Apply drops empty or noise-only normalized names, returning the
// surviving set and an audit artifact for the rest. raw supplies the
// original AccountName per AccountID purely for the audit row; filtering
// decisions are made on the normalized name.
func Apply(normalized []models.NormalizedName, rawNameByID map[string]string) Result {
	result := Result{Kept: make([]models.NormalizedName, 0, len(normalized))}

	for _, n := range normalized {
		trimmed := strings.TrimSpace(n.NameBase)
		if trimmed == "" {
			result.Dropped = append(result.Dropped, DroppedRecord{
				AccountID: n.AccountID,
				NameRaw:   rawNameByID[n.AccountID],
				Reason:    ReasonEmptyName,
			})
			continue
		}
		if noiseTokens[trimmed] {
			result.Dropped = append(result.Dropped, DroppedRecord{
				AccountID: n.AccountID,
				NameRaw:   rawNameByID[n.AccountID],
				Reason:    ReasonNoiseOnly,
			})
			continue
		}
		result.Kept = append(result.Kept, n)
	}
	return result
}
