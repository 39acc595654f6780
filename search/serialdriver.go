// serialdriver.go - the Serial Search Driver (spec.md S4.5)
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

	"github.com/opencoff/go-logger"

	"github.com/opencoff/rgx"
	"github.com/opencoff/rgx/walk"
)

// SerialDriver runs the same per-entry sequence as ParallelDriver,
// but on the caller's own goroutine, in walker-iteration order, with
// a single Worker shared across the whole run. It is selected
// whenever Args.Threads <= 1 (spec.md S6): no worker pool, no
// aggregator goroutine, no races to reason about.
type SerialDriver struct {
	Args      *rgx.Args
	Predicate rgx.Predicate
	Matcher   Matcher
	Collect   bool
	Log       logger.Logger
}

// Run executes one serial search to completion, or until the
// predicate or quiet mode asks it to stop early.
func (d *SerialDriver) Run() (*DriverResult, error) {
	args := d.Args

	if args.NeverMatch {
		return &DriverResult{Exit: rgx.ExitNoMatch}, nil
	}

	if len(args.Paths) == 0 {
		return d.runStdin()
	}

	quiet := &rgx.QuietMatched{}
	stats := &rgx.Stats{}

	var bw *rgx.BufWriter
	if args.Stdout != nil {
		bw = rgx.NewBufWriter(args.Stdout)
	}

	ident := NewStdoutIdentity(args.StdoutFile)
	filter := &DirEntryFilter{NoMessages: args.NoMessages, Stdout: ident, Log: d.Log}

	w := NewWorker(d.Matcher, args.MmapThreshold)

	var results []rgx.FileMatch
	var candidates uint64
	firstFile := true

	opt := walk.Options{
		Concurrency: 1,
		Type:        walk.ALL,
		Excludes:    args.Excludes,
	}

	walkErr := walk.WalkSerialFunc(args.Paths, opt, func(e *walk.Entry) bool {
		if quiet.HasMatch() {
			return false
		}

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

		var buf *bytes.Buffer
		var sink rgx.PrinterSink
		if bw != nil && !args.NoPrinter {
			buf = bw.Buffer()
			sink = rgx.NewTextPrinter(buf, args.Color)
			if !firstFile && args.FileSeparator != nil {
				sink.FileSeparator(args.FileSeparator)
			}
		}

		lines, err := w.Run(sink, Work{Entry: e})
		if err != nil {
			filter.warn("%s", err)
		}

		matched := len(lines) > 0
		if matched {
			firstFile = false
			stats.AddFileMatch(len(lines))
			if d.Collect {
				results = append(results, rgx.FileMatch{Path: e.Name(), Lines: lines})
			}
			if args.Quiet {
				quiet.SetMatch(true)
			}
		}

		if sink != nil {
			if matched {
				bw.Print(buf)
			}
			bw.Release(buf)
		}

		if state == rgx.Quit {
			return false
		}
		return !(args.Quiet && matched)
	})

	// WalkSerialFunc has no separate error channel the way the
	// parallel Walk does; its soft errors (an unreadable directory,
	// a failed lstat) come back joined into one error. Route them
	// through the same warn-only path the parallel driver uses,
	// rather than surfacing them as this Run's hard error.
	if walkErr != nil {
		filter.WalkerError(walkErr)
	}

	snap := stats.Snapshot()
	if len(args.Paths) > 0 && snap.PathsSearched == 0 && !args.NoMessages && !args.NoPrinter {
		fmt.Fprintln(os.Stderr, "rgx: no files were searched")
	}

	exit := rgx.ExitNoMatch
	if snap.FilesMatched > 0 {
		exit = rgx.ExitMatch
	}

	return &DriverResult{Matches: results, Stats: snap, Exit: exit}, nil
}

// runStdin mirrors ParallelDriver.runStdin: an empty Paths list means
// there is nothing to walk, so a single Worker searches stdin
// directly.
func (d *SerialDriver) runStdin() (*DriverResult, error) {
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
