// Command dedupe runs the account deduplication pipeline end to end,
// following §6's run_pipeline(input_path, outdir, config, run_id, ...) CLI
// contract. It is intentionally a thin flag-parsing shim over pkg/pipeline,
// in the style of cmd/tarsy/main.go (flag + godotenv + plain log), minus the
// HTTP server — this is a batch job, not a long-lived service.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/dedupe/pkg/cleanup"
	"github.com/codeready-toolchain/dedupe/pkg/config"
	"github.com/codeready-toolchain/dedupe/pkg/ingest"
	"github.com/codeready-toolchain/dedupe/pkg/models"
	"github.com/codeready-toolchain/dedupe/pkg/parallel"
	"github.com/codeready-toolchain/dedupe/pkg/pipeline"
	"github.com/codeready-toolchain/dedupe/pkg/pipelineevents"
	"github.com/codeready-toolchain/dedupe/pkg/runstore"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	inputPath := flag.String("input", "", "path to the input Account export (csv/xlsx/xls)")
	outDir := flag.String("outdir", getEnv("DEDUPE_OUTDIR", "./data"), "run store root (interim/ and processed/ live here)")
	configPath := flag.String("config", getEnv("DEDUPE_CONFIG", ""), "path to a YAML config overriding the defaults")
	runID := flag.String("run-id", "", "reuse an existing run id; empty derives one from input+config hashes")
	runType := flag.String("run-type", "dev", "run type for retention purposes: dev, test, or prod")
	resumeFrom := flag.String("resume-from", "", "manually pin the resume start stage, skipping SmartResume's own detection")
	noResume := flag.Bool("no-resume", false, "ignore any existing run state and start from the first stage")
	force := flag.Bool("force", false, "same as -no-resume: rerun every stage from the first; it does not resume past an input-hash mismatch")
	workers := flag.Int("workers", 0, "worker count for chunked parallel stages; 0 autotunes from GOMAXPROCS")
	chunkSize := flag.Int("chunk-size", 0, "chunk size for chunked parallel stages; 0 uses the package default")
	nameCol := flag.String("col-name", "Account Name", "input column holding the account name")
	idCol := flag.String("col-id", "Account ID", "input column holding the Salesforce account id")
	dateCol := flag.String("col-created", "Created Date", "input column holding the created date")
	relCol := flag.String("col-relationship", "Relationship", "input column holding the account relationship")
	rankTablePath := flag.String("rank-table", "", "path to a CSV relationship-rank table (relationship,rank columns)")
	cleanupFuse := flag.Bool("cleanup-fuse", false, "enable retention deletion after a successful run (default: report only)")
	envPath := flag.String("env-file", getEnv("DEDUPE_ENV_FILE", ".env"), "path to a .env file to load before running")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil {
		log.Printf("warning: could not load %s: %v", *envPath, err)
	}

	if *inputPath == "" {
		log.Fatal("missing required -input flag")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config %s: %v", *configPath, err)
		}
		cfg = loaded
	}

	rankTable := ingest.RelationshipRankTable{DefaultRank: models.RelationshipRankUnknown}
	if *rankTablePath != "" {
		loaded, err := ingest.LoadRelationshipRankTable(*rankTablePath)
		if err != nil {
			log.Fatalf("failed to load relationship rank table %s: %v", *rankTablePath, err)
		}
		rankTable = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interrupt := parallel.NewInterruptFlag()
	go func() {
		<-ctx.Done()
		log.Println("interrupt received, stopping at the next chunk boundary")
		interrupt.Set()
	}()

	events := &pipelineevents.Bus{}
	logCh, unsubscribe := events.Subscribe()
	defer unsubscribe()
	go func() {
		for e := range logCh {
			log.Printf("pipeline event: %s run=%s stage=%s reason=%s err=%s", e.Type, e.RunID, e.Stage, e.Reason, e.Err)
		}
	}()

	opts := pipeline.Options{
		InputPath: *inputPath,
		OutDir:    *outDir,
		Config:    cfg,
		ColumnMap: ingest.ColumnMap{
			Name:         *nameCol,
			AccountID:    *idCol,
			CreatedDate:  *dateCol,
			Relationship: *relCol,
		},
		RankTable:  rankTable,
		RunID:      *runID,
		ResumeFrom: models.StageName(*resumeFrom),
		NoResume:   *noResume,
		Force:      *force,
		Workers:    *workers,
		ChunkSize:  *chunkSize,
		RunType:    models.RunType(*runType),
		Events:     events,
		Interrupt:  interrupt,
	}

	result, err := pipeline.Run(ctx, opts)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}

	log.Printf("run %s complete: %d review rows, %d groups, %d ms",
		result.RunID, len(result.ReviewRows), result.ReviewMeta.GroupCount, result.PerfSummary.TotalDurationMs)

	store, err := runstore.New(*outDir)
	if err != nil {
		log.Printf("warning: could not open run store for post-run retention pass: %v", err)
		return
	}
	retention := cleanup.NewService(&cleanup.Config{
		KeepRuns:        cfg.Run.KeepRuns,
		KeepAtLeast:     cfg.Run.KeepAtLeast,
		Fuse:            *cleanupFuse,
		CleanupInterval: time.Hour,
	}, store)
	retention.RunOnce()
}
