// Package parallel implements the chunked parallel map executor shared by
// every compute-heavy pipeline stage (normalization, similarity scoring,
// alias matching): deterministic chunk partitioning,
// bounded concurrent execution, in-order merge, and a cooperative
// interruption flag. Where tarsy bounds concurrency with a worker-pool of
// goroutines pulling off a channel (pkg/queue.WorkerPool), this package
// bounds it with golang.org/x/sync/errgroup's SetLimit, because the unit of
// work here is a pure, short-lived chunk function rather than a long-lived
// worker loop.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ChunkFunc processes one chunk of input and returns the corresponding
// chunk of output, or an error that aborts the whole Map call.
type ChunkFunc[I, O any] func(ctx context.Context, chunk []I, chunkIndex int) ([]O, error)

// Options configures a Map call. A zero Options uses resource-aware
// defaults (§5 "Resource-aware autotune").
type Options struct {
	// Workers is the number of chunks processed concurrently. Zero selects
	// an autotuned value (see Autotune).
	Workers int
	// ChunkSize is the number of input elements per chunk. Zero selects a
	// size that yields roughly Workers*4 chunks, bounded to [1, len(input)].
	ChunkSize int
	// Interrupt, if non-nil, is polled at chunk boundaries; when it reports
	// true no new chunk is scheduled, but in-flight chunks run to
	// completion (§5 "Suspension points").
	Interrupt *InterruptFlag
}

// InterruptFlag is a cooperative, concurrency-safe stop signal polled at
// chunk boundaries rather than used for cooperative suspension mid-chunk
// (§9 "Coroutine/async in UI fetch paths" non-goal: cancellation is a
// shared flag, not cooperative suspension inside a stage).
type InterruptFlag struct {
	ch chan struct{}
}

// NewInterruptFlag returns a ready-to-use, unset InterruptFlag.
func NewInterruptFlag() *InterruptFlag {
	return &InterruptFlag{ch: make(chan struct{})}
}

// Set raises the flag. Idempotent.
func (f *InterruptFlag) Set() {
	if f == nil {
		return
	}
	select {
	case <-f.ch:
	default:
		close(f.ch)
	}
}

// IsSet reports whether the flag has been raised.
func (f *InterruptFlag) IsSet() bool {
	if f == nil {
		return false
	}
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}

// Autotune picks a worker count from available CPUs when the caller has not
// configured one explicitly (§5 "Resource-aware autotune"): it returns
// runtime.GOMAXPROCS(0), at least 1. Available memory is not consulted, and
// there is no memory cap on the count. This package has no BLAS calls, but
// callers that shell out to vectorized scoring libraries should divide this
// value by their own per-worker thread count before setting
// GOMAXPROCS-equivalent env vars.
func Autotune() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// InterruptedError is returned by Map, together with the concatenated
// output of the chunks it had scheduled, when the interrupt flag stopped
// scheduling before every chunk was started.
type InterruptedError struct {
	// ChunksCompleted is how many chunks finished before interruption.
	ChunksCompleted int
	// ChunksTotal is the total chunk count the call partitioned into.
	ChunksTotal int
}

func (e *InterruptedError) Error() string {
	return "parallel: interrupted after completing chunks"
}

// Map partitions input into deterministic chunks, processes them
// concurrently bounded by opts.Workers, and returns results concatenated in
// original input order. Output is bit-identical for identical input and
// chunk size regardless of worker count (§5 "Ordering guarantees") because
// chunk boundaries are a pure function of index and chunk size, and results
// are written into a pre-sized slice by chunk index rather than appended in
// completion order.
func Map[I, O any](ctx context.Context, input []I, opts Options, fn ChunkFunc[I, O]) ([]O, error) {
	if len(input) == 0 {
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = Autotune()
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = chunkSizeFor(len(input), workers)
	}

	chunks := Partition(input, chunkSize)
	results := make([][]O, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	completed := 0
	for i, chunk := range chunks {
		if opts.Interrupt != nil && opts.Interrupt.IsSet() {
			break
		}
		i, chunk := i, chunk
		g.Go(func() error {
			out, err := fn(gctx, chunk, i)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
		completed++
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Interrupt != nil && opts.Interrupt.IsSet() && completed < len(chunks) {
		return Flatten(results[:completed]), &InterruptedError{ChunksCompleted: completed, ChunksTotal: len(chunks)}
	}

	return Flatten(results), nil
}

// Partition splits input into deterministic, contiguous, order-preserving
// chunks of at most chunkSize elements each.
func Partition[I any](input []I, chunkSize int) [][]I {
	if chunkSize <= 0 {
		chunkSize = len(input)
	}
	var chunks [][]I
	for start := 0; start < len(input); start += chunkSize {
		end := start + chunkSize
		if end > len(input) {
			end = len(input)
		}
		chunks = append(chunks, input[start:end])
	}
	return chunks
}

// Flatten concatenates chunk results back into a single slice, preserving
// chunk order and therefore original input order.
func Flatten[O any](chunks [][]O) []O {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]O, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// chunkSizeFor targets roughly 4 chunks per worker so stragglers don't
// stall the whole Map call, never below 1 and never above len(input).
func chunkSizeFor(n, workers int) int {
	if workers < 1 {
		workers = 1
	}
	target := n / (workers * 4)
	if target < 1 {
		target = 1
	}
	if target > n {
		target = n
	}
	return target
}
