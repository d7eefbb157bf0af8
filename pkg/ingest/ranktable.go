package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// LoadRelationshipRankTable parses the two-column CSV mapping
// `relationship,rank` described in §4.10, used by pkg/survivorship as a
// tie-breaker input. A relationship absent from the file resolves to
// models.RelationshipRankUnknown at lookup time via RelationshipRankTable.Rank.
func LoadRelationshipRankTable(path string) (RelationshipRankTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return RelationshipRankTable{}, fmt.Errorf("ingest: opening rank table %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return RelationshipRankTable{}, fmt.Errorf("ingest: reading rank table header: %w", err)
	}
	relIdx, rankIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "relationship":
			relIdx = i
		case "rank":
			rankIdx = i
		}
	}
	if relIdx < 0 || rankIdx < 0 {
		return RelationshipRankTable{}, &SchemaError{Column: "relationship,rank", Reason: "rank table must have relationship and rank columns"}
	}

	ranks := make(map[string]int)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return RelationshipRankTable{}, fmt.Errorf("ingest: reading rank table row: %w", err)
		}
		rank, err := strconv.Atoi(strings.TrimSpace(field(row, rankIdx)))
		if err != nil {
			return RelationshipRankTable{}, fmt.Errorf("ingest: rank table: invalid rank %q: %w", field(row, rankIdx), err)
		}
		ranks[strings.TrimSpace(field(row, relIdx))] = rank
	}
	return RelationshipRankTable{Ranks: ranks, DefaultRank: models.RelationshipRankUnknown}, nil
}
