package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// WriteJSON marshals v to path as indented JSON. Every interim and
// processed artifact that is not the CSV review export uses this one
// writer, matching pkg/stage and pkg/runstore's own encoding/json use for
// structured on-disk state.
func WriteJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: marshaling %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("stats: writing %s: %w", path, err)
	}
	return nil
}

// reviewCSVHeader is the fixed column order for review_ready.csv (§6
// "Schemas are fixed per the §3 data model").
var reviewCSVHeader = []string{
	"account_id", "account_id_src", "account_name", "created_date", "relationship",
	"relationship_rank", "group_id", "is_primary", "weakest_edge_to_primary",
	"score_to_primary", "disposition", "disposition_reason",
}

// WriteReviewCSV writes the final review-ready table using the standard
// library csv writer — the idiomatic ecosystem choice already established
// by pkg/ingest for this format (see DESIGN.md). A parquet sibling
// (review_ready.parquet) is named in §6 but not produced: no repo in the
// retrieval pack imports a parquet library, and fabricating one would
// violate the no-stub-dependency rule, so the columnar artifact here is
// CSV only.
func WriteReviewCSV(path string, rows []models.ReviewRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("stats: creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reviewCSVHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.AccountID,
			r.AccountIDSrc,
			r.AccountName,
			r.CreatedDate.Format("2006-01-02T15:04:05Z07:00"),
			r.Relationship,
			strconv.Itoa(r.RelationshipRk),
			r.GroupID,
			strconv.FormatBool(r.IsPrimary),
			strconv.FormatFloat(r.WeakestEdgeToPrimary, 'f', -1, 64),
			strconv.FormatFloat(r.ScoreToPrimary, 'f', -1, 64),
			r.Disposition,
			r.DispositionReason,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
