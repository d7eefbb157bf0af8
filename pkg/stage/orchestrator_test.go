package stage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

func TestLoad_NoPreviousRun(t *testing.T) {
	o, reason, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, models.ReasonNoPreviousRun, reason)
	_, found := o.GetLastCompleted()
	assert.False(t, found)
}

func TestLoad_CorruptStateResets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFileName), []byte("{not valid json"), 0o644))

	o, reason, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, models.ReasonStateCorruptReset, reason)
	_, found := o.GetLastCompleted()
	assert.False(t, found)
}

func TestMarkStart_MarkComplete_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, o.MarkStart(models.StageNormalization))
	st := o.StageState(models.StageNormalization)
	assert.Equal(t, models.StageStatusRunning, st.Status)
	require.NotNil(t, st.StartUTC)

	require.NoError(t, o.MarkComplete(models.StageNormalization, []string{filepath.Join(dir, "normalized.json")}))
	st = o.StageState(models.StageNormalization)
	assert.Equal(t, models.StageStatusComplete, st.Status)
	assert.Equal(t, []string{filepath.Join(dir, "normalized.json")}, st.ArtifactsWritten)

	last, found := o.GetLastCompleted()
	require.True(t, found)
	assert.Equal(t, models.StageNormalization, last)

	// A fresh Load should pick the persisted state back up.
	reloaded, reason, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, models.ReasonSmartDetect, reason)
	last2, found2 := reloaded.GetLastCompleted()
	require.True(t, found2)
	assert.Equal(t, models.StageNormalization, last2)
}

func TestMarkFailed_RecordsError(t *testing.T) {
	o, _, err := Load(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, o.MarkStart(models.StageFiltering))
	require.NoError(t, o.MarkFailed(models.StageFiltering, assert.AnError))
	st := o.StageState(models.StageFiltering)
	assert.Equal(t, models.StageStatusFailed, st.Status)
	assert.Equal(t, assert.AnError.Error(), st.Error)
}

func TestValidateIntermediateFiles_ReopensMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)

	missing := filepath.Join(dir, "does-not-exist.json")
	require.NoError(t, o.MarkComplete(models.StageNormalization, []string{missing}))

	reopened := o.ValidateIntermediateFiles()
	require.Contains(t, reopened, models.StageNormalization)

	st := o.StageState(models.StageNormalization)
	assert.Equal(t, models.StageStatusPending, st.Status)
}

func TestSmartResume_NoPreviousRun_StartsAtFirstStage(t *testing.T) {
	o, _, err := Load(t.TempDir())
	require.NoError(t, err)

	d := o.SmartResume(ResumeOptions{})
	assert.Equal(t, models.StageOrder[0], d.StartAt)
	assert.Equal(t, models.ReasonNoPreviousRun, d.Reason)
}

func TestSmartResume_ResumesAfterLastCompleted(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, o.SetInputHash("abc123"))
	require.NoError(t, o.MarkComplete(models.StageNormalization, nil))

	d := o.SmartResume(ResumeOptions{CurrentInputHash: "abc123"})
	assert.Equal(t, models.StageFiltering, d.StartAt)
	assert.Equal(t, models.ReasonSmartDetect, d.Reason)
}

func TestSmartResume_HashMismatchRestartsFromScratch(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, o.SetInputHash("abc123"))
	require.NoError(t, o.MarkComplete(models.StageNormalization, nil))

	d := o.SmartResume(ResumeOptions{CurrentInputHash: "different-hash"})
	assert.Equal(t, models.StageOrder[0], d.StartAt)
	assert.Equal(t, models.ReasonHashMismatch, d.Reason)

	st := o.StageState(models.StageNormalization)
	assert.Equal(t, models.StageStatusPending, st.Status, "hash mismatch should reset previously completed stages")
}

func TestSmartResume_ForceOverrideWinsEvenWithFreshState(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, o.SetInputHash("abc123"))
	require.NoError(t, o.MarkComplete(models.StageNormalization, nil))

	d := o.SmartResume(ResumeOptions{ForceOverride: true, CurrentInputHash: "abc123"})
	assert.Equal(t, models.StageOrder[0], d.StartAt)
	assert.Equal(t, models.ReasonForceOverride, d.Reason)
}

func TestSmartResume_ManualOverrideStartsAtNamedStage(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, o.MarkComplete(models.StageNormalization, nil))
	require.NoError(t, o.MarkComplete(models.StageFiltering, nil))

	d := o.SmartResume(ResumeOptions{ManualStartStage: models.StageFiltering})
	assert.Equal(t, models.StageFiltering, d.StartAt)
	assert.Equal(t, models.ReasonManualOverride, d.Reason)

	// Filtering and everything after should now be pending again.
	st := o.StageState(models.StageFiltering)
	assert.Equal(t, models.StageStatusPending, st.Status)
	// Normalization, before the manual start point, is untouched.
	norm := o.StageState(models.StageNormalization)
	assert.Equal(t, models.StageStatusComplete, norm.Status)
}

func TestSmartResume_ArtifactMissingReopensEarliestAffectedStage(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, o.SetInputHash("abc123"))

	missing := filepath.Join(dir, "gone.json")
	require.NoError(t, o.MarkComplete(models.StageNormalization, []string{missing}))
	require.NoError(t, o.MarkComplete(models.StageFiltering, nil))

	d := o.SmartResume(ResumeOptions{CurrentInputHash: "abc123"})
	assert.Equal(t, models.StageNormalization, d.StartAt)
	assert.Equal(t, models.ReasonArtifactMissing, d.Reason)
}

func TestSmartResume_AllStagesCompleteReportsNextStageReady(t *testing.T) {
	dir := t.TempDir()
	o, _, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, o.SetInputHash("abc123"))
	for _, name := range models.StageOrder {
		require.NoError(t, o.MarkComplete(name, nil))
	}

	d := o.SmartResume(ResumeOptions{CurrentInputHash: "abc123"})
	assert.Equal(t, models.StageOrder[len(models.StageOrder)-1], d.StartAt)
	assert.Equal(t, models.ReasonNextStageReady, d.Reason)
}
