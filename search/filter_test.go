// filter_test.go -- tests for DirEntryFilter
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
	"os"
	"path/filepath"
	"testing"

	"github.com/opencoff/rgx/walk"
)

func statEntry(t *testing.T, nm string, depth int) *walk.Entry {
	t.Helper()
	fi := new(walk.Info)
	if err := walk.Lstatm(nm, fi); err != nil {
		t.Fatalf("lstat %s: %s", nm, err)
	}
	return &walk.Entry{Info: fi, Depth: depth}
}

func TestFilterAcceptsRegularFile(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	fn := writeFile(t, dir, "a.txt", "hi\n")

	e := statEntry(t, fn, 1)
	f := &DirEntryFilter{}
	assert(f.Accept(e), "a plain regular file at depth>0 must be accepted")
}

func TestFilterRejectsDirectory(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0700); err != nil {
		t.Fatalf("mkdir: %s", err)
	}

	e := statEntry(t, sub, 1)
	f := &DirEntryFilter{}
	assert(!f.Accept(e), "a directory must never be accepted for search")
}

func TestFilterRejectsDepthZeroDirectory(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0700); err != nil {
		t.Fatalf("mkdir: %s", err)
	}

	// depth 0 and NOT a directory is always accepted; a depth-0
	// directory (the common case: the root itself) is still
	// rejected, since it isn't a regular file either.
	e := statEntry(t, sub, 0)
	f := &DirEntryFilter{}
	assert(!f.Accept(e), "a depth-0 directory is still not searchable content")
}

func TestFilterStdinEntryAlwaysAccepted(t *testing.T) {
	assert := newAsserter(t)
	f := &DirEntryFilter{}
	e := &walk.Entry{Info: nil, Depth: 0}
	assert(f.Accept(e), "an entry with no stat info (stdin) must always be accepted")
}

func TestFilterRejectsStdoutIdentity(t *testing.T) {
	assert := newAsserter(t)
	dir := t.TempDir()
	fn := writeFile(t, dir, "out.log", "hello\n")

	f, err := os.Open(fn)
	assert(err == nil, "open: %s", err)
	defer f.Close()

	ident := NewStdoutIdentity(f)
	filter := &DirEntryFilter{Stdout: ident}

	e := statEntry(t, fn, 1)
	assert(!filter.Accept(e), "a file matching the stdout identity must be rejected")
}

func TestFilterNoMessagesSuppressesWarnings(t *testing.T) {
	f := &DirEntryFilter{NoMessages: true}
	// must not panic and must simply do nothing
	f.WalkerError(nil)
}
