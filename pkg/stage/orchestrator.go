// Package stage implements the mini-DAG orchestrator (§4.2): per-stage state
// tracking, atomic persistence, and the smart auto-resume algorithm. Its
// state-machine shape — a status enum plus start/end timestamps per unit of
// work, mutex-guarded in memory and mirrored to durable storage — follows
// tarsy's pkg/session.Session, generalized from one mutable struct per
// conversation session to a small ordered DAG of named stages.
package stage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

const stateFileName = "pipeline_state.json"

// Orchestrator owns one run's pipeline_state.json and the decisions about
// which stage to resume from.
type Orchestrator struct {
	mu        sync.Mutex
	statePath string
	state     *models.PipelineState
}

// Load reads stage state from runDir/pipeline_state.json. A missing or
// corrupt file resets to a clean state rather than erroring, matching §4.2
// step 1 and tarsy's "Present | Absent" result-type style for load paths
// (pkg/config/loader.go) instead of raising exceptions for "not found".
func Load(runDir string) (*Orchestrator, models.ReasonCode, error) {
	path := filepath.Join(runDir, stateFileName)
	o := &Orchestrator{statePath: path}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			o.state = freshState()
			return o, models.ReasonNoPreviousRun, nil
		}
		return nil, "", fmt.Errorf("stage: reading %s: %w", path, err)
	}

	var st models.PipelineState
	if err := json.Unmarshal(b, &st); err != nil {
		o.state = freshState()
		return o, models.ReasonStateCorruptReset, nil
	}
	if err := validateStageSet(st.Stages); err != nil {
		o.state = freshState()
		return o, models.ReasonStateCorruptReset, nil
	}
	o.state = &st
	return o, models.ReasonSmartDetect, nil
}

func freshState() *models.PipelineState {
	stages := make(map[models.StageName]*models.StageState, len(models.StageOrder))
	for _, name := range models.StageOrder {
		stages[name] = &models.StageState{Name: name, Status: models.StageStatusPending}
	}
	return &models.PipelineState{
		DAGVersion: models.CurrentDAGVersion,
		Stages:     stages,
	}
}

// validateStageSet rejects unknown stage names or a stage set that does not
// match the declared DAG order (§4.2: "Unknown stages or reordering are
// rejected at load time").
func validateStageSet(stages map[models.StageName]*models.StageState) error {
	if len(stages) != len(models.StageOrder) {
		return fmt.Errorf("stage: expected %d stages, got %d", len(models.StageOrder), len(stages))
	}
	for _, name := range models.StageOrder {
		if _, ok := stages[name]; !ok {
			return fmt.Errorf("stage: missing stage %q", name)
		}
	}
	return nil
}

// save persists state atomically (write-to-temp, rename).
func (o *Orchestrator) save() error {
	o.state.LastUpdateUTC = time.Now().UTC()
	b, err := json.MarshalIndent(o.state, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(o.statePath)
	tmp, err := os.CreateTemp(dir, ".tmp-state-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, o.statePath)
}

// MarkStart marks a stage running and persists the change.
func (o *Orchestrator) MarkStart(name models.StageName) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now().UTC()
	st := o.state.Stages[name]
	st.Status = models.StageStatusRunning
	st.StartUTC = &now
	st.EndUTC = nil
	st.Error = ""
	return o.save()
}

// MarkComplete marks a stage complete with its declared artifact paths. No
// artifact rename by a stage's caller should be treated as durable until
// this call succeeds (§4.2 "Failure semantics").
func (o *Orchestrator) MarkComplete(name models.StageName, artifacts []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now().UTC()
	st := o.state.Stages[name]
	st.Status = models.StageStatusComplete
	st.EndUTC = &now
	st.ArtifactsWritten = artifacts
	st.Error = ""
	return o.save()
}

// MarkFailed marks a stage failed, preserving any partially-produced
// artifacts for post-mortem (§4.2).
func (o *Orchestrator) MarkFailed(name models.StageName, cause error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now().UTC()
	st := o.state.Stages[name]
	st.Status = models.StageStatusFailed
	st.EndUTC = &now
	if cause != nil {
		st.Error = cause.Error()
	}
	return o.save()
}

// MarkInterrupted marks a stage interrupted (signal received mid-stage).
func (o *Orchestrator) MarkInterrupted(name models.StageName) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now().UTC()
	st := o.state.Stages[name]
	st.Status = models.StageStatusInterrupted
	st.EndUTC = &now
	return o.save()
}

// StageState returns a copy of one stage's current state.
func (o *Orchestrator) StageState(name models.StageName) models.StageState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return *o.state.Stages[name]
}

// GetLastCompleted returns the last stage in declared order whose status is
// complete, or ("", false) if none are.
func (o *Orchestrator) GetLastCompleted() (models.StageName, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var last models.StageName
	found := false
	for _, name := range models.StageOrder {
		if o.state.Stages[name].Status == models.StageStatusComplete {
			last = name
			found = true
			continue
		}
		break
	}
	return last, found
}

// ValidateIntermediateFiles checks that every artifact a "complete" stage
// declared still exists on disk. Stages whose declared artifacts are
// missing are treated as incomplete (§4.2 step 3, §7 ArtifactMissingError)
// and demoted back to pending in memory (not yet persisted — the caller
// re-runs and re-completes them, which persists the correction).
func (o *Orchestrator) ValidateIntermediateFiles() []models.StageName {
	o.mu.Lock()
	defer o.mu.Unlock()

	var reopened []models.StageName
	for _, name := range models.StageOrder {
		st := o.state.Stages[name]
		if st.Status != models.StageStatusComplete {
			continue
		}
		for _, artifact := range st.ArtifactsWritten {
			if _, err := os.Stat(artifact); err != nil {
				st.Status = models.StageStatusPending
				st.ArtifactsWritten = nil
				reopened = append(reopened, name)
				break
			}
		}
	}
	return reopened
}
