package stage

import (
	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// ResumeDecision is the outcome of SmartResume: which stage to (re)run next
// and why (§4.2).
type ResumeDecision struct {
	StartAt models.StageName
	Reason  models.ReasonCode
}

// ResumeOptions carries the caller's override flags (§4.2 "Overrides").
type ResumeOptions struct {
	// ForceOverride reruns the entire DAG from the first stage regardless of
	// any persisted state.
	ForceOverride bool
	// ManualStartStage pins resume to a specific stage, bypassing detection.
	ManualStartStage models.StageName
	// CurrentInputHash is the content hash of the current input file(s).
	CurrentInputHash string
}

// SmartResume implements the §4.2 auto-resume decision algorithm:
//
//  1. ForceOverride always wins: start at the first stage.
//  2. ManualStartStage, if set, wins next: start there, clearing any stage
//     state at or after it so a stale "complete" cannot leak through.
//  3. If the run has never executed a stage, start at the first stage.
//  4. If the recorded input hash differs from the current input hash, the
//     whole DAG is stale: start at the first stage.
//  5. Otherwise validate on-disk artifacts for every complete stage; if any
//     are missing, resume at the earliest stage whose artifacts vanished.
//  6. Otherwise resume at the stage after the last completed one, or report
//     the DAG already fully complete by returning the final stage name with
//     NEXT_STAGE_READY when every stage is complete.
func (o *Orchestrator) SmartResume(opts ResumeOptions) ResumeDecision {
	o.mu.Lock()
	inputHash := o.state.InputHash
	o.mu.Unlock()

	if opts.ForceOverride {
		o.resetFrom(models.StageOrder[0])
		return ResumeDecision{StartAt: models.StageOrder[0], Reason: models.ReasonForceOverride}
	}

	if opts.ManualStartStage != "" {
		o.resetFrom(opts.ManualStartStage)
		return ResumeDecision{StartAt: opts.ManualStartStage, Reason: models.ReasonManualOverride}
	}

	last, found := o.GetLastCompleted()
	if !found {
		return ResumeDecision{StartAt: models.StageOrder[0], Reason: models.ReasonNoPreviousRun}
	}

	if opts.CurrentInputHash != "" && inputHash != "" && opts.CurrentInputHash != inputHash {
		o.resetFrom(models.StageOrder[0])
		return ResumeDecision{StartAt: models.StageOrder[0], Reason: models.ReasonHashMismatch}
	}

	if reopened := o.ValidateIntermediateFiles(); len(reopened) > 0 {
		earliest := earliestInOrder(reopened)
		return ResumeDecision{StartAt: earliest, Reason: models.ReasonArtifactMissing}
	}

	nextIdx := indexOf(last) + 1
	if nextIdx >= len(models.StageOrder) {
		return ResumeDecision{StartAt: last, Reason: models.ReasonNextStageReady}
	}
	return ResumeDecision{StartAt: models.StageOrder[nextIdx], Reason: models.ReasonSmartDetect}
}

// resetFrom marks every stage from name onward (inclusive) back to pending,
// so a restart never appears to "complete" a stage it didn't actually run.
func (o *Orchestrator) resetFrom(name models.StageName) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := indexOf(name)
	for i := start; i < len(models.StageOrder); i++ {
		st := o.state.Stages[models.StageOrder[i]]
		st.Status = models.StageStatusPending
		st.StartUTC = nil
		st.EndUTC = nil
		st.ArtifactsWritten = nil
		st.Error = ""
	}
	_ = o.save()
}

// SetInputHash records the content hash of the current input so future
// SmartResume calls can detect a changed source file (§4.2 step 4).
func (o *Orchestrator) SetInputHash(hash string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.InputHash = hash
	return o.save()
}

func indexOf(name models.StageName) int {
	for i, n := range models.StageOrder {
		if n == name {
			return i
		}
	}
	return -1
}

func earliestInOrder(names []models.StageName) models.StageName {
	best := names[0]
	bestIdx := indexOf(best)
	for _, n := range names[1:] {
		if idx := indexOf(n); idx < bestIdx {
			best, bestIdx = n, idx
		}
	}
	return best
}
