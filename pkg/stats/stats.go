// Package stats implements the C9 stats/output stage (§4.12): group-level
// summary materialization and assembly of the final review-ready output
// row set from every upstream stage's artifacts. There is no teacher
// analog for a reporting/projection stage; this follows the same pure,
// stateless transform shape as pkg/survivorship and pkg/disposition — a
// function over already-computed in-memory results. The Build functions do
// no I/O; the package's file writers (WriteJSON, WriteReviewCSV) are in
// output.go.
package stats

import (
	"sort"
	"time"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// BuildGroupStats materializes one group_stats row per group
// (group_id, group_size, max_score, primary_name, disposition), sorted by
// group_id (§4.12). The group's reported disposition is its primary
// member's disposition, since that is the outcome the UI's group list
// cares about at a glance.
func BuildGroupStats(groups []models.Group, survivorship []models.SurvivorshipRecord, dispositions map[string]models.Disposition, records map[string]models.Record) []models.GroupStats {
	primaryOf := make(map[string]string, len(survivorship)) // group_id -> primary account_id
	for _, sr := range survivorship {
		if sr.IsPrimary {
			primaryOf[sr.GroupID] = sr.AccountID
		}
	}

	out := make([]models.GroupStats, 0, len(groups))
	for _, g := range groups {
		primaryID := primaryOf[g.GroupID]
		primaryName := ""
		if r, ok := records[primaryID]; ok {
			primaryName = r.AccountName
		}
		disposition := ""
		if d, ok := dispositions[primaryID]; ok {
			disposition = d.Disposition
		}
		out = append(out, models.GroupStats{
			GroupID:     g.GroupID,
			GroupSize:   g.Size,
			MaxScore:    g.MaxScore,
			PrimaryName: primaryName,
			Disposition: disposition,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}

// BuildGroupDetails projects the final review rows down to the columns
// needed for per-group display, sorted by (group_id, account_id) (§4.12).
// Rows without a group (singletons) are excluded — group_details exists to
// paginate group membership, not the whole table.
func BuildGroupDetails(rows []models.ReviewRow) []models.GroupDetailRow {
	out := make([]models.GroupDetailRow, 0, len(rows))
	for _, r := range rows {
		if r.GroupID == "" {
			continue
		}
		out = append(out, models.GroupDetailRow{
			GroupID:           r.GroupID,
			AccountID:         r.AccountID,
			AccountName:       r.AccountName,
			IsPrimary:         r.IsPrimary,
			ScoreToPrimary:    r.ScoreToPrimary,
			Disposition:       r.Disposition,
			DispositionReason: r.DispositionReason,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out
}

// ReviewRowInputs bundles the per-stage results BuildReviewRows projects
// into the final output table (§4.12 "Final review output: all input
// records plus group_id, is_primary, ...").
type ReviewRowInputs struct {
	Records       []models.Record
	Survivorship  []models.SurvivorshipRecord // AccountID -> group/primary facts
	Dispositions  map[string]models.Disposition
	MergePreviews map[string]models.MergePreview // by group_id
	AliasCrossRefs map[string][]models.AliasMatch // by source account_id
}

// BuildReviewRows assembles the final per-record output: every input
// record plus its group assignment, primary/score facts, disposition, an
// optional merge preview (only for its group, if one exists), and its
// outgoing alias cross-links. Records that never joined a group (and so
// have no SurvivorshipRecord) get an empty GroupID and IsPrimary=false —
// survivorship and grouping never produce singleton groups, so "no
// survivorship record" is definitionally "not in a multi-member group".
func BuildReviewRows(in ReviewRowInputs) []models.ReviewRow {
	survByID := make(map[string]models.SurvivorshipRecord, len(in.Survivorship))
	for _, sr := range in.Survivorship {
		survByID[sr.AccountID] = sr
	}

	out := make([]models.ReviewRow, 0, len(in.Records))
	for _, rec := range in.Records {
		row := models.ReviewRow{Record: rec}

		if sr, ok := survByID[rec.AccountID]; ok {
			row.GroupID = sr.GroupID
			row.IsPrimary = sr.IsPrimary
			row.WeakestEdgeToPrimary = sr.WeakestEdgeToPrimary
			row.ScoreToPrimary = sr.ScoreToPrimary
			if mp, ok := in.MergePreviews[sr.GroupID]; ok {
				preview := mp
				row.MergePreview = &preview
			}
		}

		if d, ok := in.Dispositions[rec.AccountID]; ok {
			row.Disposition = d.Disposition
			row.DispositionReason = d.DispositionReason
		}

		if refs, ok := in.AliasCrossRefs[rec.AccountID]; ok {
			row.AliasCrossRefs = refs
		}

		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// BuildReviewMeta summarizes the assembled review rows for the UI's
// landing view (§4.12 processed/{run_id}/review_meta).
func BuildReviewMeta(runID string, generatedUTC time.Time, rows []models.ReviewRow, groupCount int) models.ReviewMeta {
	counts := make(map[string]int, 4)
	singletons := 0
	for _, r := range rows {
		counts[r.Disposition]++
		if r.GroupID == "" {
			singletons++
		}
	}
	return models.ReviewMeta{
		RunID:             runID,
		GeneratedUTC:      generatedUTC,
		RecordCount:       len(rows),
		GroupCount:        groupCount,
		SingletonCount:    singletons,
		DispositionCounts: counts,
	}
}
