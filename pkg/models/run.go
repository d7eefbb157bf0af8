package models

import "time"

// RunStatus mirrors the lifecycle tarsy's session.SessionStatus models for a
// conversation session, applied here to a pipeline run (§3 RunRecord).
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
	RunStatusInterrupted RunStatus = "interrupted"
)

// RunType distinguishes dev/test/prod runs for retention policy purposes.
type RunType string

const (
	RunTypeDev  RunType = "dev"
	RunTypeTest RunType = "test"
	RunTypeProd RunType = "prod"
)

// RunRecord is the run index entry for a single pipeline execution (§3).
type RunRecord struct {
	RunID      string    `json:"run_id"`
	InputHash  string    `json:"input_hash"`
	ConfigHash string    `json:"config_hash"`
	InputPath  string    `json:"input_path"`
	ConfigPath string    `json:"config_path"`
	CreatedUTC time.Time `json:"created_utc"`
	Status     RunStatus `json:"status"`
	RunType    RunType   `json:"run_type"`
}

// StageName enumerates the mini-DAG stages in fixed order (§4.2).
type StageName string

const (
	StageNormalization      StageName = "normalization"
	StageFiltering          StageName = "filtering"
	StageExactEquals        StageName = "exact_equals"
	StageCandidateGen       StageName = "candidate_generation"
	StageGrouping           StageName = "grouping"
	StageSurvivorship       StageName = "survivorship"
	StageDisposition        StageName = "disposition"
	StageAliasMatching      StageName = "alias_matching"
	StageFinalOutput        StageName = "final_output"
)

// StageOrder is the fixed, validated stage sequence. Reordering or unknown
// stage names are rejected at load time by pkg/stage.
var StageOrder = []StageName{
	StageNormalization,
	StageFiltering,
	StageExactEquals,
	StageCandidateGen,
	StageGrouping,
	StageSurvivorship,
	StageDisposition,
	StageAliasMatching,
	StageFinalOutput,
}

// StageStatus is the per-stage execution status (§3).
type StageStatus string

const (
	StageStatusPending     StageStatus = "pending"
	StageStatusRunning     StageStatus = "running"
	StageStatusComplete    StageStatus = "complete"
	StageStatusFailed      StageStatus = "failed"
	StageStatusInterrupted StageStatus = "interrupted"
)

// StageState is the persisted state of one stage (§3).
type StageState struct {
	Name             StageName   `json:"name"`
	Status           StageStatus `json:"status"`
	StartUTC         *time.Time  `json:"start_utc,omitempty"`
	EndUTC           *time.Time  `json:"end_utc,omitempty"`
	ArtifactsWritten []string    `json:"artifacts_written"`
	Error            string      `json:"error,omitempty"`
}

// PipelineState is the full on-disk stage-state document (§4.2), persisted
// atomically at a known path under the run directory.
type PipelineState struct {
	InputHash      string                 `json:"input_hash"`
	DAGVersion     int                    `json:"dag_version"`
	Cmdline        string                 `json:"cmdline"`
	LastUpdateUTC  time.Time              `json:"last_update_utc"`
	Stages         map[StageName]*StageState `json:"stages"`
}

// ReasonCode is the closed enumeration of resume/orchestration decisions (§4.2).
type ReasonCode string

const (
	ReasonNoPreviousRun    ReasonCode = "NO_PREVIOUS_RUN"
	ReasonSmartDetect      ReasonCode = "SMART_DETECT"
	ReasonHashMismatch     ReasonCode = "HASH_MISMATCH"
	ReasonForceOverride    ReasonCode = "FORCE_OVERRIDE"
	ReasonManualOverride   ReasonCode = "MANUAL_OVERRIDE"
	ReasonNextStageReady   ReasonCode = "NEXT_STAGE_READY"
	ReasonStateCorruptReset ReasonCode = "STATE_CORRUPT_RESET"
	ReasonArtifactMissing  ReasonCode = "ARTIFACT_MISSING"
)

// LatestPointer is the run-store "latest" file (§4.3).
type LatestPointer struct {
	RunID      *string   `json:"run_id"`
	EmptyState bool      `json:"empty_state,omitempty"`
	UpdatedUTC time.Time `json:"updated_utc"`
}

// CurrentDAGVersion is bumped whenever the stage sequence or semantics change
// in a way that invalidates previously persisted stage state.
const CurrentDAGVersion = 1
