// Package runstore manages run directories, the run index, the "latest"
// pointer, and safe cleanup/reconciliation (§4.3). It is the file-based
// analog of tarsy's database-backed session store: where tarsy persists a
// Session row per conversation via ent+Postgres, this package persists a
// RunRecord per pipeline execution as an entry in a JSON run index, with the
// artifacts themselves living under per-run directories on disk.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

const (
	interimDirName    = "interim"
	processedDirName  = "processed"
	runIndexFileName  = "run_index.json"
	latestFileName    = "latest.json"
	latestSymlinkName = "latest"
)

// Store owns a base directory containing interim/, processed/, the run
// index, and the latest pointer. Per §3 "Ownership", the Store exclusively
// owns the run_id -> RunRecord mapping; the filesystem owns each run's
// artifact directory.
type Store struct {
	baseDir string
}

// New creates a Store rooted at baseDir, creating the directory tree if
// necessary.
func New(baseDir string) (*Store, error) {
	s := &Store{baseDir: baseDir}
	for _, dir := range []string{s.interimRoot(), s.processedRoot()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("runstore: creating %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *Store) interimRoot() string   { return filepath.Join(s.baseDir, interimDirName) }
func (s *Store) processedRoot() string { return filepath.Join(s.baseDir, processedDirName) }

// InterimDir returns the per-run interim artifact directory, creating it if
// necessary.
func (s *Store) InterimDir(runID string) (string, error) {
	dir := filepath.Join(s.interimRoot(), runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// ProcessedDir returns the per-run processed (review-ready) output
// directory, creating it if necessary.
func (s *Store) ProcessedDir(runID string) (string, error) {
	dir := filepath.Join(s.processedRoot(), runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// writeAtomic writes b to path via write-to-temp-then-rename, which is
// functionally atomic on POSIX filesystems (§4.3, §5).
func writeAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// --- Run index ---

func (s *Store) runIndexPath() string { return filepath.Join(s.baseDir, runIndexFileName) }

// loadIndex reads the run index, returning an empty map if it does not yet
// exist (matches tarsy's "Present | Absent" result-type approach from
// pkg/config/loader.go instead of raising for the not-found case).
func (s *Store) loadIndex() (map[string]models.RunRecord, error) {
	b, err := os.ReadFile(s.runIndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]models.RunRecord{}, nil
		}
		return nil, err
	}
	var idx map[string]models.RunRecord
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, fmt.Errorf("runstore: run index corrupt: %w", err)
	}
	return idx, nil
}

func (s *Store) saveIndex(idx map[string]models.RunRecord) error {
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.runIndexPath(), b)
}

// PutRun inserts or updates a RunRecord in the index and recomputes the
// latest pointer. Both writes are atomic.
func (s *Store) PutRun(rec models.RunRecord) error {
	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	idx[rec.RunID] = rec
	if err := s.saveIndex(idx); err != nil {
		return err
	}
	return s.recomputeLatest(idx)
}

// GetRun looks up a run by ID.
func (s *Store) GetRun(runID string) (*models.RunRecord, bool, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, false, err
	}
	rec, ok := idx[runID]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

// ListRuns returns every indexed run, sorted most-recent-first.
func (s *Store) ListRuns() ([]models.RunRecord, error) {
	idx, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	out := make([]models.RunRecord, 0, len(idx))
	for _, r := range idx {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedUTC.After(out[j].CreatedUTC) })
	return out, nil
}

// --- Latest pointer ---

func (s *Store) latestPath() string { return filepath.Join(s.baseDir, latestFileName) }

// Latest reads the latest pointer.
func (s *Store) Latest() (*models.LatestPointer, error) {
	b, err := os.ReadFile(s.latestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &models.LatestPointer{RunID: nil, EmptyState: true, UpdatedUTC: time.Now().UTC()}, nil
		}
		return nil, err
	}
	var p models.LatestPointer
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("runstore: latest pointer corrupt: %w", err)
	}
	return &p, nil
}

// recomputeLatest recomputes the latest pointer from the index: the most
// recent run with status complete, or an empty state if none exists (§4.3).
func (s *Store) recomputeLatest(idx map[string]models.RunRecord) error {
	var best *models.RunRecord
	for _, r := range idx {
		if r.Status != models.RunStatusComplete {
			continue
		}
		rCopy := r
		if best == nil || rCopy.CreatedUTC.After(best.CreatedUTC) {
			best = &rCopy
		}
	}

	ptr := models.LatestPointer{UpdatedUTC: time.Now().UTC()}
	if best != nil {
		ptr.RunID = &best.RunID
	} else {
		ptr.EmptyState = true
	}

	b, err := json.MarshalIndent(ptr, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomic(s.latestPath(), b); err != nil {
		return err
	}
	return s.refreshLatestSymlink(ptr)
}

// refreshLatestSymlink maintains an optional convenience symlink; the JSON
// pointer file remains authoritative (§4.3). Symlink failures (e.g.
// unsupported filesystem) are not propagated as errors.
func (s *Store) refreshLatestSymlink(ptr models.LatestPointer) error {
	link := filepath.Join(s.baseDir, latestSymlinkName)
	_ = os.Remove(link)
	if ptr.RunID == nil {
		return nil
	}
	target := filepath.Join(interimDirName, *ptr.RunID)
	_ = os.Symlink(target, link) // best-effort convenience only
	return nil
}

// RecomputeLatest forces recomputation of the latest pointer from the
// current index, e.g. after deleting the previously-latest run (§4.3).
func (s *Store) RecomputeLatest() error {
	idx, err := s.loadIndex()
	if err != nil {
		return err
	}
	return s.recomputeLatest(idx)
}
