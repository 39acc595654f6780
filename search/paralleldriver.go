// paralleldriver.go - the Parallel Search Driver (spec.md S4.4)
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package search

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/opencoff/go-logger"

	"github.com/opencoff/rgx"
	"github.com/opencoff/rgx/walk"
)

// DriverResult is what every driver in this package returns: the
// library-mode FileMatch accumulation (nil unless Collect was
// requested), the final counter snapshot and the process exit code.
type DriverResult struct {
	Matches []rgx.FileMatch
	Stats   rgx.Snapshot
	Exit    rgx.ExitCode
}

// ParallelDriver spawns walker threads, one worker per thread, and
// optionally an aggregator goroutine that collects FileMatch records
// for library callers. See spec.md S4.4 for the exact per-entry
// sequence this implements.
type ParallelDriver struct {
	Args      *rgx.Args
	Predicate rgx.Predicate
	Matcher   Matcher
	Collect   bool
	Log       logger.Logger
}

// Run executes one parallel search and blocks until the walk (and
// any early cancellation) has fully drained.
func (d *ParallelDriver) Run() (*DriverResult, error) {
	args := d.Args

	if args.NeverMatch {
		return &DriverResult{Exit: rgx.ExitNoMatch}, nil
	}

	if len(args.Paths) == 0 {
		return d.runStdin()
	}

	nthreads := args.Threads
	if nthreads <= 0 {
		nthreads = runtime.NumCPU()
	}

	quiet := &rgx.QuietMatched{}
	stats := &rgx.Stats{}
	var stopped atomic.Bool

	var bw *rgx.BufWriter
	if args.Stdout != nil {
		bw = rgx.NewBufWriter(args.Stdout)
	}

	ident := NewStdoutIdentity(args.StdoutFile)
	filter := &DirEntryFilter{NoMessages: args.NoMessages, Stdout: ident, Log: d.Log}

	opt := walk.Options{
		Concurrency: nthreads,
		Type:        walk.ALL,
		Excludes:    args.Excludes,
	}

	entries, errch := walk.Walk(args.Paths, opt)

	var sinkCh chan *rgx.FileMatch
	var results []rgx.FileMatch
	var aggWg sync.WaitGroup
	if d.Collect {
		sinkCh = make(chan *rgx.FileMatch, nthreads)
		aggWg.Add(1)
		go func() {
			defer aggWg.Done()
			for fm := range sinkCh {
				results = append(results, *fm)
			}
		}()
	}

	workers := make([]*Worker, nthreads)
	for i := range workers {
		workers[i] = NewWorker(d.Matcher, args.MmapThreshold)
	}

	var candidateIdx atomic.Uint64

	pool := rgx.NewWorkPool[*walk.Entry](nthreads, func(tid int, e *walk.Entry) error {
		return d.processEntry(workers[tid], e, args, filter, quiet, stats, &stopped, &candidateIdx, bw, sinkCh)
	})

	go func() {
		for e := range entries {
			if stopped.Load() || quiet.HasMatch() {
				stopped.Store(true)
				continue
			}
			pool.Submit(e)
		}
		pool.Close()
	}()

	var errWg sync.WaitGroup
	errWg.Add(1)
	go func() {
		defer errWg.Done()
		for err := range errch {
			filter.WalkerError(err)
		}
	}()

	poolErr := pool.Wait()
	errWg.Wait()

	if sinkCh != nil {
		close(sinkCh)
		aggWg.Wait()
	}

	snap := stats.Snapshot()
	if len(args.Paths) > 0 && snap.PathsSearched == 0 && !args.NoMessages && !args.NoPrinter {
		fmt.Fprintln(os.Stderr, "rgx: no files were searched")
	}

	exit := rgx.ExitNoMatch
	if snap.FilesMatched > 0 {
		exit = rgx.ExitMatch
	}

	return &DriverResult{Matches: results, Stats: snap, Exit: exit}, poolErr
}

// processEntry runs the per-entry sequence of spec.md S4.4 steps
// 1-9 for a single walker entry on its owning thread's Worker.
func (d *ParallelDriver) processEntry(
	w *Worker,
	e *walk.Entry,
	args *rgx.Args,
	filter *DirEntryFilter,
	quiet *rgx.QuietMatched,
	stats *rgx.Stats,
	stopped *atomic.Bool,
	candidateIdx *atomic.Uint64,
	bw *rgx.BufWriter,
	sinkCh chan *rgx.FileMatch,
) error {
	if quiet.HasMatch() || stopped.Load() {
		stopped.Store(true)
		return nil
	}

	if !filter.Accept(e) {
		return nil
	}

	idx := candidateIdx.Add(1)
	state := rgx.Nothing
	if d.Predicate != nil {
		state = d.Predicate(idx, e.Name())
	}
	if state == rgx.Continue {
		return nil
	}
	deferQuit := state == rgx.Quit

	stats.IncPathsSearched()

	var buf *bytes.Buffer
	var sink rgx.PrinterSink
	if bw != nil && !args.NoPrinter {
		buf = bw.Buffer()
		sink = rgx.NewTextPrinter(buf, args.Color)
	}

	lines, err := w.Run(sink, Work{Entry: e})
	if err != nil {
		filter.warn("%s", err)
	}

	matched := len(lines) > 0

	// report is the gate that decides whether this file's output
	// (and its library-mode FileMatch) actually surfaces. Outside
	// quiet mode every matched file is reported. Inside quiet
	// mode, only the one worker whose SetMatch call transitions
	// the flag gets to report -- every other concurrently racing
	// worker that also matched stays silent (I3).
	report := matched
	if matched && args.Quiet {
		transitioned := quiet.SetMatch(true)
		report = transitioned
		if transitioned {
			stopped.Store(true)
		}
	}

	if report {
		stats.AddFileMatch(len(lines))
		if sinkCh != nil {
			sinkCh <- &rgx.FileMatch{Path: e.Name(), Lines: lines}
		}
	}

	if sink != nil {
		if report {
			bw.Print(buf)
		}
		bw.Release(buf)
	}

	if deferQuit {
		stopped.Store(true)
	}
	return nil
}

// runStdin handles the degenerate case of an empty Paths list: there
// is no tree to walk, so the walker, the DirEntry filter and the
// predicate are all bypassed and a single Worker searches the
// process's stdin directly.
func (d *ParallelDriver) runStdin() (*DriverResult, error) {
	args := d.Args
	stats := &rgx.Stats{}

	var bw *rgx.BufWriter
	if args.Stdout != nil {
		bw = rgx.NewBufWriter(args.Stdout)
	}

	var sink rgx.PrinterSink
	var buf *bytes.Buffer
	if bw != nil && !args.NoPrinter {
		buf = bw.Buffer()
		sink = rgx.NewTextPrinter(buf, args.Color)
	}

	w := NewWorker(d.Matcher, args.MmapThreshold)
	lines, err := w.Run(sink, Work{Stdin: true})

	var results []rgx.FileMatch
	if len(lines) > 0 {
		stats.IncPathsSearched()
		stats.AddFileMatch(len(lines))
		if d.Collect {
			results = append(results, rgx.FileMatch{Path: "<stdin>", Lines: lines})
		}
	}

	if sink != nil {
		bw.Print(buf)
		bw.Release(buf)
	}

	exit := rgx.ExitNoMatch
	if len(lines) > 0 {
		exit = rgx.ExitMatch
	}
	return &DriverResult{Matches: results, Stats: stats.Snapshot(), Exit: exit}, err
}
