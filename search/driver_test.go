// driver_test.go -- end-to-end scenarios for the search drivers
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
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/opencoff/rgx"
)

func newAsserter(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}

		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}

		s := fmt.Sprintf(msg, args...)
		t.Fatalf("\n%s: %d: Assertion failed: %s\n", file, line, s)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(fn), 0700); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	if err := os.WriteFile(fn, []byte(content), 0600); err != nil {
		t.Fatalf("writefile: %s", err)
	}
	return fn
}

func newArgs(paths ...string) *rgx.Args {
	a := rgx.NewArgs()
	a.Paths = paths
	a.NoPrinter = true
	return a
}

// Scenario 1: simple match.
func TestScenarioSimpleMatch(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\nworld\n")
	writeFile(t, dir, "b.txt", "nope\n")

	args := newArgs(dir)
	args.Threads = 2

	m, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	facade := &Facade{Args: args, Matcher: m}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)
	assert(res.Exit == rgx.ExitMatch, "expected ExitMatch, got %v", res.Exit)
	assert(len(res.Matches) == 1, "expected exactly one FileMatch, got %d", len(res.Matches))

	fm := res.Matches[0]
	assert(filepath.Base(fm.Path) == "a.txt", "expected a.txt, got %s", fm.Path)
	assert(len(fm.Lines) == 1, "expected one line match, got %d", len(fm.Lines))
	assert(*fm.Lines[0].LineNo == 1, "expected line 1, got %d", *fm.Lines[0].LineNo)
}

// Scenario 2: quiet early-exit.
func TestScenarioQuietEarlyExit(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\nworld\n")
	writeFile(t, dir, "b.txt", "nope\n")

	args := newArgs(dir)
	args.Threads = 8
	args.Quiet = true

	m, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	facade := &Facade{Args: args, Matcher: m}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)
	assert(res.Exit == rgx.ExitMatch, "expected ExitMatch, got %v", res.Exit)
	assert(len(res.Matches) <= 1, "expected at most one FileMatch in quiet mode, got %d", len(res.Matches))
}

// Scenario 3: predicate skip.
func TestScenarioPredicateSkip(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	for i := 0; i < 100; i++ {
		writeFile(t, dir, fmt.Sprintf("f%03d.txt", i), "hello\n")
	}

	args := newArgs(dir)
	args.Threads = 4

	predicate := func(idx uint64, path string) rgx.PredicateState {
		if idx%2 == 1 {
			return rgx.Continue
		}
		return rgx.Nothing
	}

	m, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	facade := &Facade{Args: args, Matcher: m, Predicate: predicate}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)
	assert(res.Stats.PathsSearched == 50, "expected paths_searched=50, got %d", res.Stats.PathsSearched)
	assert(len(res.Matches) <= 50, "expected at most 50 matches, got %d", len(res.Matches))
}

// Scenario 4: predicate abort.
func TestScenarioPredicateAbort(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	for i := 0; i < 1000; i++ {
		writeFile(t, dir, fmt.Sprintf("f%04d.txt", i), "hello\n")
	}

	args := newArgs(dir)
	args.Threads = 4

	predicate := func(idx uint64, path string) rgx.PredicateState {
		if idx == 5 {
			return rgx.Quit
		}
		return rgx.Nothing
	}

	m, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	facade := &Facade{Args: args, Matcher: m, Predicate: predicate}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)
	assert(len(res.Matches) >= 1 && len(res.Matches) <= args.Threads,
		"expected between 1 and %d matches, got %d", args.Threads, len(res.Matches))
	assert(res.Exit == rgx.ExitMatch, "expected ExitMatch since every processed file matched")
}

// Scenario 5: stdout redirection loop.
func TestScenarioStdoutRedirectionLoop(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	writeFile(t, dir, "other.txt", "hello there\n")

	logPath := filepath.Join(dir, "out.log")
	f, err := os.Create(logPath)
	assert(err == nil, "create out.log: %s", err)
	defer f.Close()
	_, err = f.WriteString("hello there, this is the redirected log\n")
	assert(err == nil, "write out.log: %s", err)
	f.Sync()

	args := rgx.NewArgs()
	args.Paths = []string{dir}
	args.Stdout = f
	args.StdoutFile = f
	args.NoPrinter = false
	args.Threads = 2

	m, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	facade := &Facade{Args: args, Matcher: m}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)

	for _, fm := range res.Matches {
		assert(filepath.Base(fm.Path) != "out.log", "out.log must never be searched, got a match for it")
	}
	assert(res.Exit == rgx.ExitMatch, "expected other.txt to still match")
}

// Scenario 6: --files mode, with the equivalent of a ".gitignore:
// b.txt" expressed as an already-resolved exclude glob (ignore-file
// parsing itself is out of scope; the walker only ever sees resolved
// globs).
func TestScenarioFilesMode(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	writeFile(t, dir, "x/y/a.txt", "irrelevant\n")
	writeFile(t, dir, "x/y/b.txt", "irrelevant\n")

	args := newArgs(dir)
	args.Files = true
	args.Excludes = []string{"b.txt"}

	facade := &Facade{Args: args}
	res, err := facade.GetFiles()
	assert(err == nil, "GetFiles: %s", err)
	assert(res.Exit == rgx.ExitMatch, "expected ExitMatch, got %v", res.Exit)
	assert(len(res.Matches) == 1, "expected exactly one listed file, got %d", len(res.Matches))
	assert(filepath.Base(res.Matches[0].Path) == "a.txt", "expected a.txt, got %s", res.Matches[0].Path)
}

// Boundary: predicate returning Continue for everything yields zero
// results and paths_searched == 0.
func TestBoundaryPredicateAlwaysContinue(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\n")

	args := newArgs(dir)
	predicate := func(idx uint64, path string) rgx.PredicateState { return rgx.Continue }

	m, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	facade := &Facade{Args: args, Matcher: m, Predicate: predicate}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)
	assert(len(res.Matches) == 0, "expected no matches, got %d", len(res.Matches))
	assert(res.Stats.PathsSearched == 0, "expected paths_searched=0, got %d", res.Stats.PathsSearched)
}

// Boundary: never_match short-circuits before touching the walker.
func TestBoundaryNeverMatch(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\n")

	args := newArgs(dir)
	args.NeverMatch = true

	facade := &Facade{Args: args}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)
	assert(res.Exit == rgx.ExitNoMatch, "expected ExitNoMatch, got %v", res.Exit)
	assert(len(res.Matches) == 0, "never_match must produce zero matches")
}

// Round-trip: serial (threads=1) and parallel drivers agree on the
// set of (path, line) pairs for the same input.
func TestRoundTripSerialParallelAgree(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello\nworld\n")
	writeFile(t, dir, "sub/b.txt", "hello again\n")
	writeFile(t, dir, "sub/c.txt", "nothing here\n")

	mkArgs := func(threads int) *rgx.Args {
		a := newArgs(dir)
		a.Threads = threads
		return a
	}

	m1, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)
	m2, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	// Drive both drivers directly: with a single root path the Facade
	// would pick the serial driver for threads=4 as well.
	serial, err := (&SerialDriver{Args: mkArgs(1), Matcher: m1, Collect: true}).Run()
	assert(err == nil, "serial Run: %s", err)

	parallel, err := (&ParallelDriver{Args: mkArgs(4), Matcher: m2, Collect: true}).Run()
	assert(err == nil, "parallel Run: %s", err)

	assert(len(serial.Matches) == len(parallel.Matches),
		"result count mismatch: serial=%d parallel=%d", len(serial.Matches), len(parallel.Matches))

	want := map[string]int{}
	for _, fm := range serial.Matches {
		want[filepath.Base(fm.Path)] = len(fm.Lines)
	}
	for _, fm := range parallel.Matches {
		n, ok := want[filepath.Base(fm.Path)]
		assert(ok, "parallel found %s, serial did not", fm.Path)
		assert(n == len(fm.Lines), "line count mismatch for %s: serial=%d parallel=%d", fm.Path, n, len(fm.Lines))
	}
}

// Boundary: empty paths falls back to searching stdin.
func TestBoundaryEmptyPathsSearchesStdin(t *testing.T) {
	assert := newAsserter(t)

	old := os.Stdin
	r, w, err := os.Pipe()
	assert(err == nil, "pipe: %s", err)
	os.Stdin = r
	defer func() { os.Stdin = old }()

	go func() {
		w.WriteString("hello from stdin\n")
		w.Close()
	}()

	args := rgx.NewArgs()
	args.NoPrinter = true

	m, err := NewRegexMatcher("hello", false)
	assert(err == nil, "compile: %s", err)

	facade := &Facade{Args: args, Matcher: m, Predicate: nil}
	res, err := facade.GetMatches()
	assert(err == nil, "GetMatches: %s", err)
	assert(res.Exit == rgx.ExitMatch, "expected stdin content to match")
	assert(len(res.Matches) == 1 && res.Matches[0].Path == "<stdin>",
		"expected a single <stdin> FileMatch, got %v", res.Matches)
}
