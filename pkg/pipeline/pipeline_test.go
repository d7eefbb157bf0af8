package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/config"
	"github.com/codeready-toolchain/dedupe/pkg/ingest"
	"github.com/codeready-toolchain/dedupe/pkg/models"
	"github.com/codeready-toolchain/dedupe/pkg/pipelineevents"
)

const testCSV = `account_id,account_name,created_date,relationship
001000000000001,Acme Holdings Inc,2020-01-01,Customer
001000000000002,Acme Holdings Incorporated,2020-02-01,Customer
001000000000003,Wayne Enterprises LLC,2019-06-15,Partner
`

func writeTestInput(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o644))
	return path
}

func testColumnMap() ingest.ColumnMap {
	return ingest.ColumnMap{
		Name:         "account_name",
		AccountID:    "account_id",
		CreatedDate:  "created_date",
		Relationship: "relationship",
	}
}

func TestRun_FreshRunProducesReviewRowsAndGroup(t *testing.T) {
	inputPath := writeTestInput(t)
	outDir := t.TempDir()

	result, err := Run(context.Background(), Options{
		InputPath: inputPath,
		OutDir:    outDir,
		Config:    config.Default(),
		ColumnMap: testColumnMap(),
		RunID:     "test-run-1",
		RunType:   models.RunTypeTest,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Len(t, result.ReviewRows, 3)
	assert.Equal(t, 1, result.ReviewMeta.GroupCount)
	assert.Equal(t, 1, result.ReviewMeta.SingletonCount)

	var grouped, singleton int
	for _, row := range result.ReviewRows {
		if row.GroupID != "" {
			grouped++
		} else {
			singleton++
		}
	}
	assert.Equal(t, 2, grouped)
	assert.Equal(t, 1, singleton)

	_, err = os.Stat(filepath.Join(outDir, "processed", "test-run-1", "review_ready.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "processed", "test-run-1", "review_meta.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "interim", "test-run-1", "pipeline_state.json"))
	assert.NoError(t, err)
}

func TestRun_ResumeSkipsCompletedStages(t *testing.T) {
	inputPath := writeTestInput(t)
	outDir := t.TempDir()
	opts := Options{
		InputPath: inputPath,
		OutDir:    outDir,
		Config:    config.Default(),
		ColumnMap: testColumnMap(),
		RunID:     "test-run-2",
		RunType:   models.RunTypeTest,
	}

	first, err := Run(context.Background(), opts)
	require.NoError(t, err)

	second, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, first.ReviewMeta.GroupCount, second.ReviewMeta.GroupCount)
	assert.Equal(t, len(first.ReviewRows), len(second.ReviewRows))
}

func TestRun_ForceRestartsFromScratch(t *testing.T) {
	inputPath := writeTestInput(t)
	outDir := t.TempDir()
	opts := Options{
		InputPath: inputPath,
		OutDir:    outDir,
		Config:    config.Default(),
		ColumnMap: testColumnMap(),
		RunID:     "test-run-3",
		RunType:   models.RunTypeTest,
	}

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)

	opts.Force = true
	result, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, result.ReviewRows, 3)
}

func TestRun_EmitsStageEvents(t *testing.T) {
	inputPath := writeTestInput(t)
	outDir := t.TempDir()

	var bus pipelineevents.Bus
	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	var sawFinalOutput bool
	go func() {
		defer close(done)
		for e := range ch {
			if e.Type == pipelineevents.EventStageCompleted && e.Stage == models.StageFinalOutput {
				sawFinalOutput = true
			}
			if e.Type == pipelineevents.EventRunCompleted {
				return
			}
		}
	}()

	_, err := Run(context.Background(), Options{
		InputPath: inputPath,
		OutDir:    outDir,
		Config:    config.Default(),
		ColumnMap: testColumnMap(),
		RunID:     "test-run-4",
		RunType:   models.RunTypeTest,
		Events:    &bus,
	})
	require.NoError(t, err)
	<-done
	assert.True(t, sawFinalOutput)
}

func TestRun_InvalidAccountIDIsRowErrorNotStageFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("account_id,account_name,created_date,relationship\nshort,Acme Inc,2020-01-01,Customer\n"), 0o644))
	outDir := t.TempDir()

	_, err := Run(context.Background(), Options{
		InputPath: path,
		OutDir:    outDir,
		Config:    config.Default(),
		ColumnMap: testColumnMap(),
		RunID:     "test-run-bad-id",
		RunType:   models.RunTypeTest,
	})
	require.NoError(t, err, "a malformed ID is a row-level IngestError, not a fatal stage failure")
}
