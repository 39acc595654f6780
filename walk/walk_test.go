// walk_test.go -- test harness for walk.go and serial.go
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

package walk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"testing"
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

// make a test dir with known entries, same shape the teacher's own
// walk tests use: a plain file, a nested file, a sibling nested file
// and a symlink pointing at one of them.
func mkTestDir(tmpdir string) error {
	if err := mkfile(tmpdir, "a"); err != nil {
		return err
	}
	if err := mkfile(tmpdir, "b/c/d"); err != nil {
		return err
	}
	if err := mkfile(tmpdir, "b/c/e"); err != nil {
		return err
	}
	return mksym(tmpdir, "b/c/e", "b/symlink")
}

func mkfile(tmpdir, p string) error {
	fn := filepath.Join(tmpdir, p)
	bn := filepath.Dir(fn)
	if err := os.MkdirAll(bn, 0700); err != nil {
		return fmt.Errorf("mkdir: %s: %w", bn, err)
	}

	fd, err := os.OpenFile(fn, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("creat: %s: %w", fn, err)
	}
	fd.Write([]byte("hello\nworld\n"))
	fd.Sync()
	return fd.Close()
}

func mksym(tmpdir, src, targ string) error {
	s := filepath.Join(tmpdir, src)
	d := filepath.Join(tmpdir, targ)
	return os.Symlink(s, d)
}

func parallelNames(t *testing.T, root string) []string {
	assert := newAsserter(t)

	och, ech := Walk([]string{root}, Options{Type: ALL})

	var wg sync.WaitGroup
	var errs []error
	wg.Add(1)
	go func() {
		for e := range ech {
			errs = append(errs, e)
		}
		wg.Done()
	}()

	var names []string
	for e := range och {
		names = append(names, e.Name())
	}
	wg.Wait()
	assert(len(errs) == 0, "parallel walk errors: %s", errors.Join(errs...))
	sort.Strings(names)
	return names
}

func serialNames(t *testing.T, root string) []string {
	assert := newAsserter(t)

	var names []string
	err := WalkSerialFunc([]string{root}, Options{Type: ALL}, func(e *Entry) bool {
		names = append(names, e.Name())
		return true
	})
	assert(err == nil, "serial walk error: %s", err)
	sort.Strings(names)
	return names
}

func TestWalkParallelMatchesSerial(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()
	assert(mkTestDir(tmpdir) == nil, "mktestdir failed")

	p := parallelNames(t, tmpdir)
	s := serialNames(t, tmpdir)

	assert(len(p) == len(s), "entry count mismatch: parallel=%d serial=%d", len(p), len(s))
	for i := range p {
		assert(p[i] == s[i], "entry %d mismatch: parallel=%s serial=%s", i, p[i], s[i])
	}
}

func TestWalkDepth(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()
	assert(mkTestDir(tmpdir) == nil, "mktestdir failed")

	depths := map[string]int{}
	err := WalkSerialFunc([]string{tmpdir}, Options{Type: ALL}, func(e *Entry) bool {
		depths[e.Name()] = e.Depth
		return true
	})
	assert(err == nil, "walk error: %s", err)

	root := depths[tmpdir]
	assert(root == 0, "root depth should be 0, got %d", root)

	a := depths[filepath.Join(tmpdir, "a")]
	assert(a == 1, "a depth should be 1, got %d", a)

	d := depths[filepath.Join(tmpdir, "b/c/d")]
	assert(d == 3, "b/c/d depth should be 3, got %d", d)
}

func TestWalkSerialStopsEarly(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()
	assert(mkTestDir(tmpdir) == nil, "mktestdir failed")

	n := 0
	err := WalkSerialFunc([]string{tmpdir}, Options{Type: FILE}, func(e *Entry) bool {
		n++
		return false
	})
	assert(err == nil, "walk error: %s", err)
	assert(n == 1, "expected exactly one visited entry, got %d", n)
}

func TestWalkExcludes(t *testing.T) {
	assert := newAsserter(t)
	tmpdir := t.TempDir()
	assert(mkTestDir(tmpdir) == nil, "mktestdir failed")

	var names []string
	err := WalkSerialFunc([]string{tmpdir}, Options{Type: ALL, Excludes: []string{"c"}}, func(e *Entry) bool {
		names = append(names, e.Name())
		return true
	})
	assert(err == nil, "walk error: %s", err)

	for _, nm := range names {
		assert(filepath.Base(filepath.Dir(nm)) != "c", "descended into excluded dir: %s", nm)
	}
}

func TestTypeString(t *testing.T) {
	assert := newAsserter(t)
	s := FILE.String()
	assert(s == "File", "FILE.String() = %q, want File", s)
}
