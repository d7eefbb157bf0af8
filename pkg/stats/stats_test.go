package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

func TestBuildGroupStats_UsesPrimaryForGroupDisposition(t *testing.T) {
	groups := []models.Group{{GroupID: "g1", Size: 2, MaxScore: 97}}
	survivorship := []models.SurvivorshipRecord{
		{AccountID: "A001", GroupID: "g1", IsPrimary: true},
		{AccountID: "A002", GroupID: "g1", IsPrimary: false},
	}
	dispositions := map[string]models.Disposition{
		"A001": {AccountID: "A001", Disposition: models.DispositionKeep},
		"A002": {AccountID: "A002", Disposition: models.DispositionUpdate},
	}
	records := map[string]models.Record{
		"A001": {AccountID: "A001", AccountName: "Acme Inc"},
	}

	out := BuildGroupStats(groups, survivorship, dispositions, records)
	require.Len(t, out, 1)
	assert.Equal(t, "g1", out[0].GroupID)
	assert.Equal(t, "Acme Inc", out[0].PrimaryName)
	assert.Equal(t, models.DispositionKeep, out[0].Disposition)
}

func TestBuildGroupDetails_ExcludesSingletons(t *testing.T) {
	rows := []models.ReviewRow{
		{Record: models.Record{AccountID: "A001"}, GroupID: "g1", Disposition: models.DispositionKeep},
		{Record: models.Record{AccountID: "A002"}, GroupID: "", Disposition: models.DispositionKeep},
	}
	out := BuildGroupDetails(rows)
	require.Len(t, out, 1)
	assert.Equal(t, "A001", out[0].AccountID)
}

func TestBuildReviewRows_AssemblesFromAllInputs(t *testing.T) {
	in := ReviewRowInputs{
		Records: []models.Record{
			{AccountID: "A001", AccountName: "Acme Inc"},
			{AccountID: "A002", AccountName: "Acme Incorporated"},
		},
		Survivorship: []models.SurvivorshipRecord{
			{AccountID: "A001", GroupID: "g1", IsPrimary: true, ScoreToPrimary: 100},
			{AccountID: "A002", GroupID: "g1", IsPrimary: false, ScoreToPrimary: 95},
		},
		Dispositions: map[string]models.Disposition{
			"A001": {AccountID: "A001", Disposition: models.DispositionKeep, DispositionReason: "primary"},
			"A002": {AccountID: "A002", Disposition: models.DispositionUpdate, DispositionReason: "non_primary_in_group"},
		},
		MergePreviews: map[string]models.MergePreview{
			"g1": {GroupID: "g1", Diffs: []models.FieldDiff{{Field: "account_name", PrimaryVal: "Acme Inc", OtherVal: "Acme Incorporated", OtherID: "A002"}}},
		},
		AliasCrossRefs: map[string][]models.AliasMatch{},
	}

	rows := BuildReviewRows(in)
	require.Len(t, rows, 2)
	byID := map[string]models.ReviewRow{}
	for _, r := range rows {
		byID[r.AccountID] = r
	}
	assert.True(t, byID["A001"].IsPrimary)
	assert.Equal(t, models.DispositionKeep, byID["A001"].Disposition)
	assert.NotNil(t, byID["A002"].MergePreview)
	assert.Equal(t, 95.0, byID["A002"].ScoreToPrimary)
}

func TestBuildReviewRows_RecordWithoutGroupIsSingleton(t *testing.T) {
	in := ReviewRowInputs{
		Records:      []models.Record{{AccountID: "A003"}},
		Dispositions: map[string]models.Disposition{"A003": {AccountID: "A003", Disposition: models.DispositionKeep}},
	}
	rows := BuildReviewRows(in)
	require.Len(t, rows, 1)
	assert.Empty(t, rows[0].GroupID)
	assert.False(t, rows[0].IsPrimary)
}

func TestBuildReviewMeta_CountsDispositionsAndSingletons(t *testing.T) {
	rows := []models.ReviewRow{
		{Record: models.Record{AccountID: "A1"}, GroupID: "g1", Disposition: models.DispositionKeep},
		{Record: models.Record{AccountID: "A2"}, GroupID: "", Disposition: models.DispositionKeep},
		{Record: models.Record{AccountID: "A3"}, GroupID: "", Disposition: models.DispositionVerify},
	}
	meta := BuildReviewMeta("run1", time.Unix(0, 0).UTC(), rows, 1)
	assert.Equal(t, 3, meta.RecordCount)
	assert.Equal(t, 1, meta.GroupCount)
	assert.Equal(t, 2, meta.SingletonCount)
	assert.Equal(t, 2, meta.DispositionCounts[models.DispositionKeep])
	assert.Equal(t, 1, meta.DispositionCounts[models.DispositionVerify])
}

func TestWriteReviewCSV_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review_ready.csv")
	rows := []models.ReviewRow{
		{Record: models.Record{AccountID: "A001", AccountName: "Acme Inc", CreatedDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}, GroupID: "g1", IsPrimary: true, Disposition: models.DispositionKeep},
	}
	require.NoError(t, WriteReviewCSV(path, rows))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "account_id")
	assert.Contains(t, string(b), "A001")
	assert.Contains(t, string(b), "Acme Inc")
}

func TestWriteJSON_WritesValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "group_stats.json")
	require.NoError(t, WriteJSON(path, []models.GroupStats{{GroupID: "g1", GroupSize: 2}}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\"group_id\": \"g1\"")
}
