package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/dedupe/pkg/models"
	"github.com/codeready-toolchain/dedupe/pkg/runstore"
)

func newTestStore(t *testing.T) *runstore.Store {
	t.Helper()
	store, err := runstore.New(t.TempDir())
	require.NoError(t, err)
	return store
}

func putCompleteRun(t *testing.T, store *runstore.Store, runID string, created time.Time) {
	t.Helper()
	_, err := store.InterimDir(runID)
	require.NoError(t, err)
	require.NoError(t, store.PutRun(models.RunRecord{
		RunID:      runID,
		Status:     models.RunStatusComplete,
		CreatedUTC: created,
		RunType:    models.RunTypeTest,
	}))
}

func TestService_RunOnceReconcilesWithoutDeletingWhenFuseOff(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		putCompleteRun(t, store, "run"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour))
	}

	svc := NewService(&Config{KeepRuns: 1, KeepAtLeast: 0, Fuse: false, CleanupInterval: time.Hour}, store)
	svc.RunOnce()

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 5, "fuse disabled: CleanupOldRuns must refuse to delete anything")
}

func TestService_RunOnceDeletesBeyondKeepRunsWhenFuseOn(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		putCompleteRun(t, store, "run"+string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour))
	}

	svc := NewService(&Config{KeepRuns: 2, KeepAtLeast: 0, Fuse: true, CleanupInterval: time.Hour}, store)
	svc.RunOnce()

	runs, err := store.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
}

func TestService_StartStopIsIdempotentAndClean(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(&Config{KeepRuns: 10, KeepAtLeast: 0, Fuse: false, CleanupInterval: time.Millisecond}, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.Start(ctx)
	svc.Start(ctx) // second call must be a no-op, not a second goroutine
	time.Sleep(5 * time.Millisecond)
	svc.Stop()
	svc.Stop() // second call must also be a no-op
}
