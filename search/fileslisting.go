// fileslisting.go - the File-Listing Drivers (spec.md S4.6)
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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opencoff/go-logger"

	"github.com/opencoff/rgx"
	"github.com/opencoff/rgx/walk"
)

// FilesDriver implements --files: it runs the same walk, filter and
// predicate sequence as a content search, but never opens a file or
// invokes a Matcher -- every accepted path is itself the result.
// Run picks the parallel or serial walker from Args.Threads alone;
// unlike Facade.GetMatches, the number of paths plays no part.
type FilesDriver struct {
	Args      *rgx.Args
	Predicate rgx.Predicate
	Collect   bool
	Log       logger.Logger
}

// Run lists every path the filter and predicate accept.
func (d *FilesDriver) Run() (*DriverResult, error) {
	if d.Args.Threads > 1 {
		return d.runParallel()
	}
	return d.runSerial()
}

func (d *FilesDriver) runSerial() (*DriverResult, error) {
	args := d.Args
	stats := &rgx.Stats{}

	var bw *rgx.BufWriter
	if args.Stdout != nil {
		bw = rgx.NewBufWriter(args.Stdout)
	}

	ident := NewStdoutIdentity(args.StdoutFile)
	filter := &DirEntryFilter{NoMessages: args.NoMessages, Stdout: ident, Log: d.Log}

	var results []rgx.FileMatch
	var candidates uint64

	opt := walk.Options{Concurrency: 1, Type: walk.ALL, Excludes: args.Excludes}

	walkErr := walk.WalkSerialFunc(args.Paths, opt, func(e *walk.Entry) bool {
		if !filter.Accept(e) {
			return true
		}

		candidates++
		idx := candidates
		state := rgx.Nothing
		if d.Predicate != nil {
			state = d.Predicate(idx, e.Name())
		}
		if state == rgx.Continue {
			return true
		}

		stats.IncPathsSearched()
		d.report(bw, e.Name(), &results)
		return state != rgx.Quit
	})

	if walkErr != nil {
		filter.WalkerError(walkErr)
		walkErr = nil
	}

	return d.finish(stats, results, args, walkErr)
}

// runParallel splits the walk across walker threads that each feed
// accepted paths through a channel to a single printer goroutine
// (spec.md S4.6): ordering across threads is meaningless here, so
// unlike runSerial this form returns only a count, never an ordered
// Matches list, regardless of Collect.
func (d *FilesDriver) runParallel() (*DriverResult, error) {
	args := d.Args
	stats := &rgx.Stats{}
	var stopped atomic.Bool
	var candidateIdx atomic.Uint64

	var bw *rgx.BufWriter
	if args.Stdout != nil {
		bw = rgx.NewBufWriter(args.Stdout)
	}

	ident := NewStdoutIdentity(args.StdoutFile)
	filter := &DirEntryFilter{NoMessages: args.NoMessages, Stdout: ident, Log: d.Log}

	opt := walk.Options{Concurrency: args.Threads, Type: walk.ALL, Excludes: args.Excludes}
	entries, errch := walk.Walk(args.Paths, opt)

	printCh := make(chan string, args.Threads)
	var printWg sync.WaitGroup
	printWg.Add(1)
	go func() {
		defer printWg.Done()
		for path := range printCh {
			if bw == nil || args.NoPrinter {
				continue
			}
			buf := bw.Buffer()
			fmt.Fprintf(buf, "%s\n", path)
			bw.Print(buf)
			bw.Release(buf)
		}
	}()

	pool := rgx.NewWorkPool[*walk.Entry](args.Threads, func(_ int, e *walk.Entry) error {
		if stopped.Load() {
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

		stats.IncPathsSearched()
		printCh <- e.Name()
		if state == rgx.Quit {
			stopped.Store(true)
		}
		return nil
	})

	go func() {
		for e := range entries {
			if stopped.Load() {
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
	close(printCh)
	printWg.Wait()

	return d.finish(stats, nil, args, poolErr)
}

// report emits one path: to the printer sink (if any) and/or into
// the library result accumulator (if Collect is set). Only runSerial
// uses this -- the parallel form never collects an ordered result.
func (d *FilesDriver) report(bw *rgx.BufWriter, path string, results *[]rgx.FileMatch) {
	if bw != nil && !d.Args.NoPrinter {
		buf := bw.Buffer()
		fmt.Fprintf(buf, "%s\n", path)
		bw.Print(buf)
		bw.Release(buf)
	}
	if d.Collect {
		*results = append(*results, rgx.FileMatch{Path: path})
	}
}

func (d *FilesDriver) finish(stats *rgx.Stats, results []rgx.FileMatch, args *rgx.Args, walkErr error) (*DriverResult, error) {
	snap := stats.Snapshot()
	exit := rgx.ExitNoMatch
	if snap.PathsSearched > 0 {
		exit = rgx.ExitMatch
	}
	return &DriverResult{Matches: results, Stats: snap, Exit: exit}, walkErr
}
