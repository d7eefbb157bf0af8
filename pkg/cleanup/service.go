// Package cleanup provides a background retention service over pkg/runstore,
// adapted from tarsy's pkg/cleanup — the same Start/Stop/ticker loop, driving
// runstore.Store.Reconcile and CleanupOldRuns instead of session/event
// soft-deletes.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/dedupe/pkg/runstore"
)

// Config controls the retention loop. Fuse is deliberately not part of
// pkg/config's YAML tree (§4.3 "Safety"): enabling actual deletion is an
// explicit, per-invocation opt-in (a CLI flag), never a persisted default.
type Config struct {
	KeepRuns        int
	KeepAtLeast     int
	Fuse            bool
	CleanupInterval time.Duration
}

// Service periodically reconciles the run store and prunes old complete
// runs beyond the configured retention window.
type Service struct {
	config *Config
	store  *runstore.Store

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service over store.
func NewService(cfg *Config, store *runstore.Store) *Service {
	return &Service{config: cfg, store: store}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup service started",
		"keep_runs", s.config.KeepRuns,
		"keep_at_least", s.config.KeepAtLeast,
		"fuse", s.config.Fuse,
		"interval", s.config.CleanupInterval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll()

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll()
		}
	}
}

func (s *Service) runAll() {
	s.reconcile()
	s.pruneOldRuns()
}

func (s *Service) reconcile() {
	report, err := s.store.Reconcile()
	if err != nil {
		slog.Error("retention: reconcile failed", "error", err)
		return
	}
	if len(report.OrphanDirectories) > 0 {
		slog.Info("retention: found orphan run directories", "count", len(report.OrphanDirectories), "dirs", report.OrphanDirectories)
	}
	if len(report.StaleIndexEntries) > 0 {
		slog.Info("retention: found stale run index entries", "count", len(report.StaleIndexEntries), "run_ids", report.StaleIndexEntries)
	}
}

func (s *Service) pruneOldRuns() {
	deleted, err := s.store.CleanupOldRuns(s.config.Fuse, s.config.KeepRuns, s.config.KeepAtLeast)
	if err != nil {
		slog.Error("retention: prune old runs failed", "error", err)
		return
	}
	if len(deleted) > 0 {
		slog.Info("retention: pruned old runs", "count", len(deleted), "run_ids", deleted)
	}
}

// RunOnce performs a single reconcile+prune pass outside the ticker loop,
// for callers (e.g. cmd/dedupe, which calls it once after a run) that want one-shot
// retention enforcement without starting the background service.
func (s *Service) RunOnce() {
	s.runAll()
}
