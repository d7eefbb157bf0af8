package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// ReconcileReport describes orphan directories and stale index entries
// found by Reconcile (§4.3).
type ReconcileReport struct {
	OrphanDirectories []string // reason code: orphan_directory
	StaleIndexEntries []string // reason code: stale_index
}

const (
	ReasonOrphanDirectory = "orphan_directory"
	ReasonStaleIndex      = "stale_index"
)

// Reconcile scans interim/ for directories absent from the run index
// (orphans) and scans the index for run IDs with no directory on disk
// (stale entries). Both are reported as cleanup candidates; Reconcile never
// deletes anything itself.
func (s *Store) Reconcile() (*ReconcileReport, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.interimRoot())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	onDisk := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			onDisk[e.Name()] = true
		}
	}

	report := &ReconcileReport{}
	for dirName := range onDisk {
		if _, ok := idx[dirName]; !ok {
			report.OrphanDirectories = append(report.OrphanDirectories, dirName)
		}
	}
	for runID := range idx {
		if !onDisk[runID] {
			report.StaleIndexEntries = append(report.StaleIndexEntries, runID)
		}
	}
	sort.Strings(report.OrphanDirectories)
	sort.Strings(report.StaleIndexEntries)
	return report, nil
}

// DeleteOptions gates destructive operations (§4.3 "Safety").
type DeleteOptions struct {
	// Fuse must be true for any deletion to proceed. Off by default.
	Fuse bool
	// KeepAtLeast is the floor below which deletion is refused, unless
	// Override is set.
	KeepAtLeast int
	// Override bypasses the KeepAtLeast floor.
	Override int
	// AllowDeleteRunning permits deleting a run with status "running".
	AllowDeleteRunning bool
}

// ErrFuseDisabled is returned when a destructive operation is attempted
// without the explicit fuse enabled.
var ErrFuseDisabled = fmt.Errorf("runstore: destructive operation refused: fuse is disabled")

// ErrBelowKeepFloor is returned when deletion would drop the retained run
// count below the configured floor.
var ErrBelowKeepFloor = fmt.Errorf("runstore: deletion refused: would drop below keep_at_least floor")

// ErrRunIsRunning is returned when deleting a running run without override.
var ErrRunIsRunning = fmt.Errorf("runstore: deletion refused: run is still running")

// DeleteRun removes a run's interim and processed directories and its run
// index entry, subject to the safety gates in DeleteOptions (§4.3).
func (s *Store) DeleteRun(runID string, opts DeleteOptions) error {
	if !opts.Fuse {
		return ErrFuseDisabled
	}

	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	rec, ok := idx[runID]
	if !ok {
		return fmt.Errorf("runstore: run %q not found", runID)
	}
	if rec.Status == models.RunStatusRunning && !opts.AllowDeleteRunning {
		return ErrRunIsRunning
	}

	keepFloor := opts.KeepAtLeast
	if opts.Override > 0 {
		keepFloor = 0
	}
	if keepFloor > 0 && len(idx) <= keepFloor {
		return ErrBelowKeepFloor
	}

	delete(idx, runID)
	if err := s.saveIndex(idx); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.interimRoot(), runID)); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.processedRoot(), runID)); err != nil {
		return err
	}
	return s.recomputeLatest(idx)
}

// CleanupOldRuns deletes the oldest complete runs beyond keepRuns, honoring
// the keepAtLeast floor. Runs that are not complete are never auto-deleted
// by this path.
func (s *Store) CleanupOldRuns(fuse bool, keepRuns, keepAtLeast int) ([]string, error) {
	runs, err := s.ListRuns() // most-recent-first
	if err != nil {
		return nil, err
	}

	var completeRuns []models.RunRecord
	for _, r := range runs {
		if r.Status == models.RunStatusComplete {
			completeRuns = append(completeRuns, r)
		}
	}
	if keepRuns <= 0 || len(completeRuns) <= keepRuns {
		return nil, nil
	}

	toDelete := completeRuns[keepRuns:] // most-recent-first
	var deleted []string
	for i := len(toDelete) - 1; i >= 0; i-- { // oldest first
		r := toDelete[i]
		remaining := len(runs) - len(deleted)
		if keepAtLeast > 0 && remaining <= keepAtLeast {
			break
		}
		if err := s.DeleteRun(r.RunID, DeleteOptions{Fuse: fuse, KeepAtLeast: keepAtLeast}); err != nil {
			if err == ErrBelowKeepFloor {
				break
			}
			return deleted, err
		}
		deleted = append(deleted, r.RunID)
	}
	return deleted, nil
}
