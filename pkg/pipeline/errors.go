package pipeline

import (
	"fmt"

	"github.com/codeready-toolchain/dedupe/pkg/models"
)

// ConfigError reports a problem loading or validating the run's
// configuration (§7). pkg/config already distinguishes ErrConfigNotFound /
// ErrInvalidYAML / ErrValidationFailed / LoadError / ValidationError at the
// field level; ConfigError wraps whichever of those pkg/config returned so
// callers at the entry point can type-switch on one closed taxonomy without
// pipeline needing to know config's internal error shapes.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("pipeline: config error: %v", e.Err) }
func (e *ConfigError) Unwrap() error  { return e.Err }

// HashMismatchError describes an input whose content hash differs from the
// hash recorded for a run_id (§4.2, §7). Run does not return it: on a
// mismatch pkg/stage's SmartResume resets every stage and the run restarts
// from the first stage with reason HASH_MISMATCH.
type HashMismatchError struct {
	RunID      string
	InputHash  string
	ConfigHash string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("pipeline: run %q: input/config hash no longer matches recorded state (input=%s config=%s)",
		e.RunID, e.InputHash, e.ConfigHash)
}

// ArtifactMissingError is raised when a stage marked complete in
// pipeline_state.json is missing one of its declared artifacts on disk and
// the caller asked to resume without re-running it (§4.2 step 3, §7).
// pkg/stage.ValidateIntermediateFiles normally demotes such stages back to
// pending and lets SmartResume pick them back up automatically; this error
// exists for the ManualStartStage path, where a caller pins a start stage
// that is after one whose artifacts have vanished.
type ArtifactMissingError struct {
	Stage    models.StageName
	Artifact string
}

func (e *ArtifactMissingError) Error() string {
	return fmt.Sprintf("pipeline: stage %q: declared artifact %q is missing", e.Stage, e.Artifact)
}

// StageFailure wraps the error a single stage returned, annotated with
// which stage failed (§7 "each stage's error is a StageFailure wrapping the
// underlying cause"). An error from a stage's own work reaches Run's caller
// as a *StageFailure, so the failing stage name can be recovered. Errors
// from Run's setup steps are returned as *ConfigError or unwrapped, reloading
// a skipped stage's artifact can return *ArtifactMissingError, and an
// interrupt returns *Interrupted.
type StageFailure struct {
	Stage models.StageName
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("pipeline: stage %q failed: %v", e.Stage, e.Err)
}
func (e *StageFailure) Unwrap() error { return e.Err }

// Interrupted is returned when a run was stopped mid-stage by a cooperative
// interrupt signal (§4.4, §7). The stage is left in the "interrupted"
// status in pipeline_state.json so a subsequent SmartResume picks it back
// up from there rather than from the start of the DAG.
type Interrupted struct {
	Stage models.StageName
}

func (e *Interrupted) Error() string {
	return fmt.Sprintf("pipeline: interrupted during stage %q", e.Stage)
}

// TimeoutError describes an operation that exceeded its deadline (§7). Run
// does not return it: pipeline stages have no deadline of their own, and a
// cancelled or expired context, like a raised interrupt flag, is reported
// as *Interrupted.
type TimeoutError struct {
	Stage   models.StageName
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pipeline: stage %q exceeded its %s timeout", e.Stage, e.Timeout)
}

// SchemaError and IdFormatError are not redefined here: ingest.SchemaError
// and hashutil.IdFormatError already model those two members of the §7
// taxonomy at the package that detects them. Run returns an
// ingest.SchemaError directly (wrapped in a *StageFailure) rather than
// re-wrapping it in a parallel pipeline-local type. An IdFormatError does
// not fail a run: pkg/ingest records an invalid account ID as a row-level
// ingest.IngestError and drops that row.
//
// CapExceededWarning (§4.7) is deliberately absent from this file: per §7
// it is not an error at all, it is a stats record — blocking.Stats already
// carries PairsCapped/BlocksCapped and pkg/stats surfaces it in the audit
// artifacts, never as something Run returns as a failure.
