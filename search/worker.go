// worker.go - per-thread search worker (spec.md S4.2)
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
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/opencoff/go-mmap"

	"github.com/opencoff/rgx"
	"github.com/opencoff/rgx/walk"
)

// defaultMmapThreshold is used when Args.MmapThreshold is zero: below
// this size a buffered scanner is cheaper than a mapping.
const defaultMmapThreshold = 1 << 20 // 1 MiB

// Work is the unit of input a Worker searches: either the process's
// stdin, or one walker-produced directory entry.
type Work struct {
	Stdin bool
	Entry *walk.Entry
}

// Path returns the name a FileMatch for this work should carry.
func (w Work) Path() string {
	if w.Stdin {
		return "<stdin>"
	}
	return w.Entry.Name()
}

// Worker is the per-thread object that performs the pattern search
// on a single input and produces line matches. It is
// thread-confined: callers must create one Worker per goroutine,
// never share one across goroutines.
type Worker struct {
	matcher       Matcher
	mmapThreshold int64
}

// NewWorker returns a Worker that uses matcher for pattern matching.
// A mmapThreshold <= 0 selects defaultMmapThreshold; this is the
// "read-strategy chooser" named in the Worker row of the data model.
func NewWorker(matcher Matcher, mmapThreshold int64) *Worker {
	if mmapThreshold <= 0 {
		mmapThreshold = defaultMmapThreshold
	}
	return &Worker{matcher: matcher, mmapThreshold: mmapThreshold}
}

// Run searches work and writes already-formatted output into sink
// (which may be nil, when printing is suppressed). It never emits a
// partial match: a line is only ever reported once matching
// completes for it.
func (w *Worker) Run(sink rgx.PrinterSink, work Work) ([]rgx.LineMatch, error) {
	if work.Stdin {
		return w.scan(os.Stdin, sink, work.Path())
	}

	path := work.Path()
	f, err := os.Open(path)
	if err != nil {
		return nil, &rgx.SearchError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if work.Entry.Size() >= w.mmapThreshold {
		matches, err := w.scanMmap(f, sink, path)
		if err == nil {
			return matches, nil
		}
		// fall back to a buffered read if the mapping failed (eg:
		// the file shrank, or is on a filesystem that doesn't
		// support mmap) -- never fail the whole file over a read
		// strategy detail.
		if _, serr := f.Seek(0, os.SEEK_SET); serr == nil {
			return w.scan(f, sink, path)
		}
		return matches, &rgx.SearchError{Op: "mmap", Path: path, Err: err}
	}

	return w.scan(f, sink, path)
}

// scan performs a buffered, line-oriented search over r.
func (w *Worker) scan(r *os.File, sink rgx.PrinterSink, path string) ([]rgx.LineMatch, error) {
	var matches []rgx.LineMatch
	var lineNo uint64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<24)
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if !w.matcher.Match(line) {
			continue
		}
		buf := append([]byte(nil), line...)
		n := lineNo
		matches = append(matches, rgx.LineMatch{LineNo: &n, Buf: buf})
		w.emit(sink, path, n, buf)
	}
	if err := sc.Err(); err != nil {
		return matches, &rgx.SearchError{Op: "scan", Path: path, Err: err}
	}
	return matches, nil
}

// scanMmap performs the same line-oriented search, but over a
// memory-mapped view of f, for files at or above the mmap threshold.
func (w *Worker) scanMmap(f *os.File, sink rgx.PrinterSink, path string) ([]rgx.LineMatch, error) {
	var matches []rgx.LineMatch
	var lineNo uint64
	var scanErr error

	_, err := mmap.Reader(f, func(b []byte) error {
		rest := b
		for len(rest) > 0 {
			i := bytes.IndexByte(rest, '\n')
			var line []byte
			if i < 0 {
				line, rest = rest, nil
			} else {
				line, rest = rest[:i], rest[i+1:]
			}
			lineNo++
			if !w.matcher.Match(line) {
				continue
			}
			buf := append([]byte(nil), line...)
			n := lineNo
			matches = append(matches, rgx.LineMatch{LineNo: &n, Buf: buf})
			w.emit(sink, path, n, buf)
		}
		return nil
	})
	if err != nil {
		scanErr = &rgx.SearchError{Op: "mmap-reader", Path: path, Err: err}
	}
	return matches, scanErr
}

func (w *Worker) emit(sink rgx.PrinterSink, path string, lineNo uint64, line []byte) {
	if sink == nil {
		return
	}
	sink.Path(path)
	fmt.Fprintf(sink, "%d:%s\n", lineNo, line)
}
