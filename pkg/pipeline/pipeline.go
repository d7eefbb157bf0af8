// Package pipeline wires every C1-C9 stage behind the single entry point
// the CLI (and any future caller) drives, following §6's
// run_pipeline(input_path, outdir, config, run_id, ...) contract. It owns
// no algorithm of its own — everything here is orchestration: resolve the
// resume decision via pkg/stage, run or reload each stage's artifacts via
// pkg/runstore, and hand data between the compute packages in mini-DAG
// order. There is no single teacher analog for this shape; it follows
// tarsy's services.SessionService insofar as a session ties together many
// independent collaborators (chain registry, MCP registry, event
// publication) behind one call, generalized here from one LLM investigation
// to one dedup run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/codeready-toolchain/dedupe/pkg/blocking"
	"github.com/codeready-toolchain/dedupe/pkg/config"
	"github.com/codeready-toolchain/dedupe/pkg/disposition"
	"github.com/codeready-toolchain/dedupe/pkg/exactmatch"
	"github.com/codeready-toolchain/dedupe/pkg/filter"
	"github.com/codeready-toolchain/dedupe/pkg/grouping"
	"github.com/codeready-toolchain/dedupe/pkg/hashutil"
	"github.com/codeready-toolchain/dedupe/pkg/ingest"
	"github.com/codeready-toolchain/dedupe/pkg/models"
	"github.com/codeready-toolchain/dedupe/pkg/normalize"
	"github.com/codeready-toolchain/dedupe/pkg/parallel"
	"github.com/codeready-toolchain/dedupe/pkg/pipelineevents"
	"github.com/codeready-toolchain/dedupe/pkg/runstore"
	"github.com/codeready-toolchain/dedupe/pkg/similarity"
	"github.com/codeready-toolchain/dedupe/pkg/stage"
	"github.com/codeready-toolchain/dedupe/pkg/stats"
	"github.com/codeready-toolchain/dedupe/pkg/survivorship"
)

// Options is the Go-native form of §6's run_pipeline keyword arguments.
type Options struct {
	InputPath  string
	OutDir     string
	Config     *config.Config
	ColumnMap  ingest.ColumnMap
	RankTable  ingest.RelationshipRankTable
	RunID      string // empty: derived from content hashes + timestamp
	ResumeFrom models.StageName
	NoResume   bool
	Force      bool
	Workers    int
	ChunkSize  int
	RunType    models.RunType
	Events     *pipelineevents.Bus // optional; nil disables progress events
	Interrupt  *parallel.InterruptFlag
}

// Result is everything a caller needs after a successful Run: the final
// review table plus the summary artifacts also written to the processed
// directory.
type Result struct {
	RunID       string
	ReviewRows  []models.ReviewRow
	GroupStats  []models.GroupStats
	GroupDetail []models.GroupDetailRow
	ReviewMeta  models.ReviewMeta
	PerfSummary models.PerfSummary
}

// publish is a nil-safe convenience so every call site below doesn't need
// its own "if opts.Events != nil" guard.
func publish(b *pipelineevents.Bus, fn func(*pipelineevents.Bus)) {
	if b != nil {
		fn(b)
	}
}

// Run executes the full mini-DAG for one input file, resuming from
// whatever stage SmartResume decides (§4.2), and writes every interim and
// processed artifact named in §6. It never runs the Go toolchain or any
// external process; every stage is an in-process function call.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, &ConfigError{Err: err}
	}

	inputBytes, err := os.ReadFile(opts.InputPath)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("reading input %s: %w", opts.InputPath, err)}
	}
	inputHash := hashutil.ContentHash(inputBytes)

	settingsMap, err := config.AsSettingsMap(cfg)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	configHash, err := hashutil.ConfigHash(settingsMap)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	runID := opts.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s_%s_%s", inputHash[:8], configHash[:8], time.Now().UTC().Format("20060102T150405Z"))
	}

	store, err := runstore.New(opts.OutDir)
	if err != nil {
		return nil, err
	}
	interimDir, err := store.InterimDir(runID)
	if err != nil {
		return nil, err
	}
	processedDir, err := store.ProcessedDir(runID)
	if err != nil {
		return nil, err
	}

	orch, _, err := stage.Load(interimDir)
	if err != nil {
		return nil, err
	}

	decision := orch.SmartResume(stage.ResumeOptions{
		ForceOverride:    opts.Force || opts.NoResume,
		ManualStartStage: opts.ResumeFrom,
		CurrentInputHash: inputHash,
	})
	slog.Info("pipeline: resume decision", "run_id", runID, "start_at", decision.StartAt, "reason", decision.Reason)
	publish(opts.Events, func(b *pipelineevents.Bus) { b.ResumeDecided(runID, decision.StartAt, decision.Reason) })

	if err := orch.SetInputHash(inputHash); err != nil {
		return nil, err
	}

	rec := models.RunRecord{
		RunID:      runID,
		InputHash:  inputHash,
		ConfigHash: configHash,
		InputPath:  opts.InputPath,
		CreatedUTC: time.Now().UTC(),
		Status:     models.RunStatusRunning,
		RunType:    opts.RunType,
	}
	if err := store.PutRun(rec); err != nil {
		return nil, err
	}

	popts := parallel.Options{Workers: opts.Workers, ChunkSize: opts.ChunkSize, Interrupt: opts.Interrupt}
	simParams := similarity.Params{
		High:                cfg.Similarity.High,
		Medium:              cfg.Similarity.Medium,
		GateCutoff:          cfg.Similarity.GateCutoff,
		SuffixMismatch:      cfg.Similarity.Penalty.SuffixMismatch,
		NumStyleMismatch:    cfg.Similarity.Penalty.NumStyleMismatch,
		PunctuationMismatch: cfg.Similarity.Penalty.PunctuationMismatch,
	}

	r := &runner{
		opts:         opts,
		cfg:          cfg,
		store:        store,
		orch:         orch,
		interimDir:   interimDir,
		processedDir: processedDir,
		runID:        runID,
		configHash:   configHash,
		popts:        popts,
		simParams:    simParams,
		timings:      make(map[models.StageName]int64),
	}

	result, runErr := r.execute(ctx, decision.StartAt)

	finalStatus := models.RunStatusComplete
	if runErr != nil {
		finalStatus = models.RunStatusFailed
		var interrupted *Interrupted
		if asInterrupted(runErr, &interrupted) {
			finalStatus = models.RunStatusInterrupted
		}
	}
	rec.Status = finalStatus
	_ = store.PutRun(rec) // best-effort: the stage state on disk is the source of truth for resume

	if runErr != nil {
		return nil, runErr
	}

	result.PerfSummary.TotalDurationMs = time.Since(start).Milliseconds()
	if err := stats.WriteJSON(filepath.Join(processedDir, "perf_summary.json"), result.PerfSummary); err != nil {
		return nil, &StageFailure{Stage: models.StageFinalOutput, Err: err}
	}

	publish(opts.Events, func(b *pipelineevents.Bus) { b.RunCompleted(runID) })
	return result, nil
}

func asInterrupted(err error, target **Interrupted) bool {
	for err != nil {
		if it, ok := err.(*Interrupted); ok {
			*target = it
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// runner carries the in-memory state threaded between stages within one
// Run call: every artifact a later stage needs is either produced fresh
// this invocation or reloaded from interimDir when resume skips the stage
// that would otherwise have produced it.
type runner struct {
	opts         Options
	cfg          *config.Config
	store        *runstore.Store
	orch         *stage.Orchestrator
	interimDir   string
	processedDir string
	runID        string
	configHash   string
	popts        parallel.Options
	simParams    similarity.Params
	timings      map[models.StageName]int64

	records      []models.Record
	normalized   []models.NormalizedName
	filterResult filter.Result
	exactPairs   []models.CandidatePair
	candPairs    []models.CandidatePair
	groupResult  grouping.Result
	survResult   survivorship.Result
	dispositions []models.Disposition
	aliasMatches []models.AliasMatch
}

func stageIndex(name models.StageName) int {
	for i, n := range models.StageOrder {
		if n == name {
			return i
		}
	}
	return -1
}

// shouldRun reports whether stage must be (re)computed this invocation, as
// opposed to being reloaded from its already-complete on-disk artifacts.
func shouldRun(startAt, name models.StageName) bool {
	return stageIndex(name) >= stageIndex(startAt)
}

func (r *runner) artifactPath(name string) string {
	return filepath.Join(r.interimDir, name)
}

// runStage is the common bracket around every stage: mark it running,
// publish the start event, invoke fn, and mark it complete/failed
// accordingly. fn returns the artifact paths it wrote, for MarkComplete.
func (r *runner) runStage(ctx context.Context, name models.StageName, fn func(ctx context.Context) ([]string, error)) error {
	if err := ctx.Err(); err != nil {
		_ = r.orch.MarkInterrupted(name)
		publish(r.opts.Events, func(b *pipelineevents.Bus) { b.StageInterrupted(r.runID, name) })
		return &Interrupted{Stage: name}
	}
	if r.opts.Interrupt != nil && r.opts.Interrupt.IsSet() {
		_ = r.orch.MarkInterrupted(name)
		publish(r.opts.Events, func(b *pipelineevents.Bus) { b.StageInterrupted(r.runID, name) })
		return &Interrupted{Stage: name}
	}

	stageStart := time.Now()
	if err := r.orch.MarkStart(name); err != nil {
		return &StageFailure{Stage: name, Err: err}
	}
	publish(r.opts.Events, func(b *pipelineevents.Bus) { b.StageStarted(r.runID, name) })

	artifacts, err := fn(ctx)
	r.timings[name] = time.Since(stageStart).Milliseconds()
	if err != nil {
		if ctx.Err() != nil || (r.opts.Interrupt != nil && r.opts.Interrupt.IsSet()) {
			_ = r.orch.MarkInterrupted(name)
			publish(r.opts.Events, func(b *pipelineevents.Bus) { b.StageInterrupted(r.runID, name) })
			return &Interrupted{Stage: name}
		}
		_ = r.orch.MarkFailed(name, err)
		publish(r.opts.Events, func(b *pipelineevents.Bus) { b.StageFailed(r.runID, name, err) })
		return &StageFailure{Stage: name, Err: err}
	}
	if err := r.orch.MarkComplete(name, artifacts); err != nil {
		return &StageFailure{Stage: name, Err: err}
	}
	publish(r.opts.Events, func(b *pipelineevents.Bus) { b.StageCompleted(r.runID, name) })
	return nil
}

// execute runs the C1-C9 sequence starting at startAt, loading from disk
// whatever an earlier, already-complete stage produced.
func (r *runner) execute(ctx context.Context, startAt models.StageName) (*Result, error) {
	if err := r.stageNormalization(ctx, startAt); err != nil {
		return nil, err
	}
	if err := r.stageFiltering(ctx, startAt); err != nil {
		return nil, err
	}
	if err := r.stageExactEquals(ctx, startAt); err != nil {
		return nil, err
	}
	if err := r.stageCandidateGeneration(ctx, startAt); err != nil {
		return nil, err
	}
	if err := r.stageGrouping(ctx, startAt); err != nil {
		return nil, err
	}
	if err := r.stageSurvivorship(ctx, startAt); err != nil {
		return nil, err
	}
	if err := r.stageAliasMatching(ctx, startAt); err != nil {
		return nil, err
	}
	if err := r.stageDisposition(ctx, startAt); err != nil {
		return nil, err
	}
	return r.stageFinalOutput(ctx, startAt)
}

// --- C1 normalization ---

func (r *runner) stageNormalization(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("accounts_normalized.json")
	if !shouldRun(startAt, models.StageNormalization) {
		return loadJSON(path, &r.normalized)
	}
	return r.runStage(ctx, models.StageNormalization, func(ctx context.Context) ([]string, error) {
		result, err := ingest.Read(ctx, r.opts.InputPath, r.opts.ColumnMap, r.opts.RankTable)
		if err != nil {
			return nil, err
		}
		r.records = result.Records

		out, err := parallel.Map(ctx, r.records, r.popts, func(ctx context.Context, chunk []models.Record, _ int) ([]models.NormalizedName, error) {
			res := make([]models.NormalizedName, len(chunk))
			for i, rec := range chunk {
				res[i] = normalize.Normalize(rec.AccountID, rec.AccountName)
			}
			return res, nil
		})
		if err != nil {
			return nil, err
		}
		r.normalized = out

		if err := stats.WriteJSON(r.artifactPath("accounts_raw.json"), r.records); err != nil {
			return nil, err
		}
		if err := stats.WriteJSON(path, r.normalized); err != nil {
			return nil, err
		}
		return []string{r.artifactPath("accounts_raw.json"), path}, nil
	})
}

// --- C2 filtering ---

func (r *runner) stageFiltering(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("accounts_filtered.json")
	droppedPath := r.artifactPath("accounts_filtered_out.json")
	if !shouldRun(startAt, models.StageFiltering) {
		if err := loadJSON(r.artifactPath("accounts_raw.json"), &r.records); err != nil {
			return err
		}
		return loadJSON(path, &r.filterResult.Kept)
	}
	return r.runStage(ctx, models.StageFiltering, func(ctx context.Context) ([]string, error) {
		if len(r.records) == 0 {
			if err := loadJSON(r.artifactPath("accounts_raw.json"), &r.records); err != nil {
				return nil, err
			}
		}
		rawByID := make(map[string]string, len(r.records))
		for _, rec := range r.records {
			rawByID[rec.AccountID] = rec.AccountName
		}
		r.filterResult = filter.Apply(r.normalized, rawByID)
		if err := stats.WriteJSON(path, r.filterResult.Kept); err != nil {
			return nil, err
		}
		if err := stats.WriteJSON(droppedPath, r.filterResult.Dropped); err != nil {
			return nil, err
		}
		return []string{path, droppedPath}, nil
	})
}

// --- C3 exact-equals fast path ---

func (r *runner) stageExactEquals(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("exact_raw_groups.json")
	if !shouldRun(startAt, models.StageExactEquals) {
		return loadJSON(path, &r.exactPairs)
	}
	return r.runStage(ctx, models.StageExactEquals, func(ctx context.Context) ([]string, error) {
		r.exactPairs = exactmatch.Run(r.records)
		if err := stats.WriteJSON(path, r.exactPairs); err != nil {
			return nil, err
		}
		return []string{path}, nil
	})
}

// --- C4 candidate generation (blocking + similarity scoring) ---

func (r *runner) stageCandidateGeneration(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("candidate_pairs.json")
	statsPath := r.artifactPath("block_stats.json")
	if !shouldRun(startAt, models.StageCandidateGen) {
		return loadJSON(path, &r.candPairs)
	}
	return r.runStage(ctx, models.StageCandidateGen, func(ctx context.Context) ([]string, error) {
		stopTokens := toSet(r.cfg.Blocking.StopTokens)
		blockOpts := blocking.Options{
			Strategies:        r.cfg.Blocking.Strategies,
			PrefixLen:         r.cfg.Blocking.PrefixLen,
			MaxBlockSize:      r.cfg.Blocking.MaxBlockSize,
			MaxPairsPerBlock:  r.cfg.Blocking.MaxPairsPerBlock,
			MaxPairsTotal:     r.cfg.Blocking.MaxPairsTotal,
			MinTokenLen:       r.cfg.Blocking.MinTokenLen,
			StopTokens:        stopTokens,
			DropTopFreqTokens: r.cfg.Blocking.DropTopFreqTokens,
			LengthWindowRatio: r.cfg.Blocking.LengthWindowRatio,
		}
		blocked, blockStats := blocking.Generate(r.filterResult.Kept, blockOpts)

		nameByID := make(map[string]models.NormalizedName, len(r.normalized))
		for _, n := range r.normalized {
			nameByID[n.AccountID] = n
		}
		lookup := similarity.NameLookup(func(id string) (models.NormalizedName, bool) {
			n, ok := nameByID[id]
			return n, ok
		})

		scored, err := similarity.ScoreBatch(ctx, blocked, lookup, r.simParams, r.popts)
		if err != nil {
			return nil, err
		}

		r.candPairs = append(append([]models.CandidatePair{}, r.exactPairs...), scored...)
		if err := stats.WriteJSON(path, r.candPairs); err != nil {
			return nil, err
		}
		if err := stats.WriteJSON(statsPath, blockStats); err != nil {
			return nil, err
		}
		return []string{path, statsPath}, nil
	})
}

// --- C6 grouping ---

func (r *runner) stageGrouping(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("groups.json")
	rejectionsPath := r.artifactPath("group_rejections.json")
	if !shouldRun(startAt, models.StageGrouping) {
		if err := loadJSON(path, &r.groupResult.Groups); err != nil {
			return err
		}
		return loadJSON(rejectionsPath, &r.groupResult.Rejections)
	}
	return r.runStage(ctx, models.StageGrouping, func(ctx context.Context) ([]string, error) {
		nameByID := make(map[string]models.NormalizedName, len(r.normalized))
		for _, n := range r.normalized {
			nameByID[n.AccountID] = n
		}
		lookup := grouping.NameLookup(func(id string) (string, string, bool) {
			n, ok := nameByID[id]
			if !ok {
				return "", "", false
			}
			return n.NameCore, n.SuffixClass, true
		})
		groupOpts := grouping.Options{
			MaxGroupSize:      r.cfg.Grouping.MaxGroupSize,
			CanopyEnabled:     r.cfg.Grouping.CanopyEnabled,
			EdgeGatingEnabled: r.cfg.Grouping.EdgeGatingEnabled,
			High:              r.cfg.Similarity.High,
			Medium:            r.cfg.Similarity.Medium,
			StopTokens:        toSet(r.cfg.Blocking.StopTokens),
			ConfigHash:        r.configHash,
		}
		r.groupResult = grouping.Run(r.candPairs, lookup, groupOpts)
		if err := stats.WriteJSON(path, r.groupResult.Groups); err != nil {
			return nil, err
		}
		if err := stats.WriteJSON(rejectionsPath, r.groupResult.Rejections); err != nil {
			return nil, err
		}
		return []string{path, rejectionsPath}, nil
	})
}

// --- C7 survivorship ---

func (r *runner) stageSurvivorship(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("survivorship.json")
	previewsPath := r.artifactPath("merge_previews.json")
	if !shouldRun(startAt, models.StageSurvivorship) {
		if err := loadJSON(path, &r.survResult.Records); err != nil {
			return err
		}
		return loadJSON(previewsPath, &r.survResult.Previews)
	}
	return r.runStage(ctx, models.StageSurvivorship, func(ctx context.Context) ([]string, error) {
		recByID := make(map[string]models.Record, len(r.records))
		for _, rec := range r.records {
			recByID[rec.AccountID] = rec
		}
		recordLookup := survivorship.RecordLookup(func(id string) (models.Record, bool) {
			rec, ok := recByID[id]
			return rec, ok
		})

		pairScoreByKey := make(map[string]float64, len(r.candPairs))
		for _, p := range r.candPairs {
			pairScoreByKey[p.IDA+"\x00"+p.IDB] = p.Score
		}
		pairScore := survivorship.PairScoreLookup(func(a, b string) (float64, bool) {
			idA, idB, _ := models.OrderedPair(a, b)
			score, ok := pairScoreByKey[idA+"\x00"+idB]
			return score, ok
		})

		r.survResult = survivorship.Run(r.groupResult.Groups, recordLookup, pairScore, survivorship.Options{
			TieBreakers: r.cfg.Survivorship.TieBreakers,
		})
		if err := stats.WriteJSON(path, r.survResult.Records); err != nil {
			return nil, err
		}
		if err := stats.WriteJSON(previewsPath, r.survResult.Previews); err != nil {
			return nil, err
		}
		return []string{path, previewsPath}, nil
	})
}

// --- C8 alias matching (runs ahead of disposition, which consumes it) ---

func (r *runner) stageAliasMatching(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("alias_matches.json")
	if !shouldRun(startAt, models.StageAliasMatching) {
		return loadJSON(path, &r.aliasMatches)
	}
	return r.runStage(ctx, models.StageAliasMatching, func(ctx context.Context) ([]string, error) {
		groupByID := make(map[string]string, len(r.groupResult.Groups))
		for _, g := range r.groupResult.Groups {
			for _, m := range g.Members {
				groupByID[m] = g.GroupID
			}
		}
		groupOf := disposition.GroupLookup(func(id string) (string, bool) {
			gid, ok := groupByID[id]
			return gid, ok
		})

		matches, err := disposition.FindAliasMatches(ctx, r.normalized, groupOf, r.simParams, r.popts)
		if err != nil {
			return nil, err
		}
		r.aliasMatches = matches
		if err := stats.WriteJSON(path, r.aliasMatches); err != nil {
			return nil, err
		}
		return []string{path}, nil
	})
}

// --- C9a disposition ---

func (r *runner) stageDisposition(ctx context.Context, startAt models.StageName) error {
	path := r.artifactPath("dispositions.json")
	if !shouldRun(startAt, models.StageDisposition) {
		return loadJSON(path, &r.dispositions)
	}
	return r.runStage(ctx, models.StageDisposition, func(ctx context.Context) ([]string, error) {
		normByID := make(map[string]models.NormalizedName, len(r.normalized))
		for _, n := range r.normalized {
			normByID[n.AccountID] = n
		}
		tokens := config.EffectiveBlacklistTokens(r.cfg.Disposition.Blacklist.Tokens)
		phrases := config.EffectiveBlacklistPhrases(r.cfg.Disposition.Blacklist.Phrases)
		bl := disposition.NewBlacklistRegistry(tokens, phrases)

		suffixConflictIDs := make(map[string]bool, len(r.groupResult.Rejections))
		for _, rej := range r.groupResult.Rejections {
			if rej.Reason != "suffix_mismatch" {
				continue
			}
			suffixConflictIDs[rej.IDA] = true
			suffixConflictIDs[rej.IDB] = true
		}
		suffixConflict := disposition.SuffixConflictChecker(func(id string) bool { return suffixConflictIDs[id] })

		r.dispositions = disposition.ClassifyAll(r.records, normByID, r.groupResult.Groups, r.survResult.Records, r.aliasMatches, bl, suffixConflict)
		if err := stats.WriteJSON(path, r.dispositions); err != nil {
			return nil, err
		}
		return []string{path}, nil
	})
}

// --- C9b final output assembly ---

func (r *runner) stageFinalOutput(ctx context.Context, startAt models.StageName) (*Result, error) {
	var result *Result
	err := r.runStage(ctx, models.StageFinalOutput, func(ctx context.Context) ([]string, error) {
		dispByID := make(map[string]models.Disposition, len(r.dispositions))
		for _, d := range r.dispositions {
			dispByID[d.AccountID] = d
		}
		previewsByGroup := make(map[string]models.MergePreview, len(r.survResult.Previews))
		for _, p := range r.survResult.Previews {
			previewsByGroup[p.GroupID] = p
		}
		aliasBySource := make(map[string][]models.AliasMatch, len(r.aliasMatches))
		for _, a := range r.aliasMatches {
			aliasBySource[a.SourceID] = append(aliasBySource[a.SourceID], a)
		}

		rows := stats.BuildReviewRows(stats.ReviewRowInputs{
			Records:        r.records,
			Survivorship:   r.survResult.Records,
			Dispositions:   dispByID,
			MergePreviews:  previewsByGroup,
			AliasCrossRefs: aliasBySource,
		})

		recByID := make(map[string]models.Record, len(r.records))
		for _, rec := range r.records {
			recByID[rec.AccountID] = rec
		}
		groupStats := stats.BuildGroupStats(r.groupResult.Groups, r.survResult.Records, dispByID, recByID)
		groupDetails := stats.BuildGroupDetails(rows)
		meta := stats.BuildReviewMeta(r.runID, time.Now().UTC(), rows, len(r.groupResult.Groups))

		csvPath := filepath.Join(r.processedDir, "review_ready.csv")
		if err := stats.WriteReviewCSV(csvPath, rows); err != nil {
			return nil, err
		}
		groupStatsPath := filepath.Join(r.processedDir, "group_stats.json")
		if err := stats.WriteJSON(groupStatsPath, groupStats); err != nil {
			return nil, err
		}
		groupDetailsPath := filepath.Join(r.processedDir, "group_details.json")
		if err := stats.WriteJSON(groupDetailsPath, groupDetails); err != nil {
			return nil, err
		}
		metaPath := filepath.Join(r.processedDir, "review_meta.json")
		if err := stats.WriteJSON(metaPath, meta); err != nil {
			return nil, err
		}

		result = &Result{
			RunID:       r.runID,
			ReviewRows:  rows,
			GroupStats:  groupStats,
			GroupDetail: groupDetails,
			ReviewMeta:  meta,
			PerfSummary: r.buildPerfSummary(),
		}
		return []string{csvPath, groupStatsPath, groupDetailsPath, metaPath}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *runner) buildPerfSummary() models.PerfSummary {
	timings := make([]models.StageTiming, 0, len(models.StageOrder))
	for _, name := range models.StageOrder {
		if ms, ok := r.timings[name]; ok {
			timings = append(timings, models.StageTiming{Stage: name, DurationMs: ms})
		}
	}
	workers := r.popts.Workers
	if workers == 0 {
		workers = parallel.Autotune()
	}
	return models.PerfSummary{
		RunID:          r.runID,
		Stages:         timings,
		InputRecords:   len(r.records),
		CandidatePairs: len(r.candPairs),
		Groups:         len(r.groupResult.Groups),
		Workers:        workers,
	}
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
