// walk.go - concurrent fs-walker
//
// (c) 2022- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package walk does a concurrent file system traversal and returns
// each entry. Callers can filter the returned entries via `Options`
// or a caller provided `Filter` function. This library uses all the
// available CPUs (as returned by `runtime.NumCPU()`) to maximize
// concurrency of the file tree traversal. It is the concrete,
// in-module implementation of the "walker" the search orchestrator
// is built on top of.
//
// This library can detect mount point crossings, follow symlinks and
// track entry depth relative to the roots it was given.
package walk

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// High level design:
//
// * multiple workers; each worker is responsible for processing a single
//   directory and its contents. A worker *always* outputs the directory entry
//   before descending to its children.
// * each directory encountered bumps up a WaitGroup count (walkState::dirWg).
// * Some filtering is done when we output via the `.output()` method and
//   some filtering happens when we process entries from a directory.

// Type is an output filter that can be bitwise OR'd. It denotes
// the types of file system entries that will be *returned* to the caller.
type Type uint

const (
	FILE    Type = 1 << iota // regular file
	DIR                      // directory
	SYMLINK                  // symbolic link
	DEVICE                   // device special file (blk and char)
	SPECIAL                  // other special files

	// This is a short cut for "give me all entries"
	ALL = FILE | DIR | SYMLINK | DEVICE | SPECIAL
)

// Options control the behavior of the filesystem walk.
type Options struct {
	// Number of go-routines to use; if not set (ie 0),
	// Walk() will use the max available cpus
	Concurrency int

	// Follow symlinks if set
	FollowSymlinks bool

	// stay within the same file-system
	OneFS bool

	// Ignore duplicate inodes. Turning this on suppresses
	// entries with a hardlink count greater than 1 - for those
	// entries, only the first encountered entry is output. It
	// also guards against symlink loops.
	IgnoreDuplicateInode bool

	// Types of entries to return
	Type Type

	// Excludes is a list of shell-glob patterns to exclude from
	// the traversal. In a sense it is an "input filter" - excluded
	// directories are not descended. The matching is done on the
	// basename component of the pathname. This is the walker's
	// stand-in for full gitignore-file parsing, which is out of
	// scope for this module.
	Excludes []string

	// Filter is an optional caller provided callback to exclude
	// entries from further traversal. It must return true if this
	// entry should no longer be processed (filtered out).
	Filter func(e *Entry) (bool, error)
}

// Entry is one file-system object produced by the walker: its stat
// information, its depth relative to the root it descended from
// (0 for a user-named root) and any non-fatal error encountered
// while stat'ing or reading it.
type Entry struct {
	*Info
	Depth   int
	SoftErr error
}

// internal state
type walkState struct {
	Options
	ch    chan dirJob
	out   chan *Entry
	errch chan error

	// type mask for output filtering
	typ os.FileMode

	// Tracks completion of the DFS walk across directories.
	// Each counter in this waitGroup tracks one subdir
	// we've encountered.
	dirWg sync.WaitGroup

	// Tracks worker goroutines
	wg sync.WaitGroup

	// functions that make our filtering easier
	filterName func(nm string) bool

	// return true if we haven't crossed mount point
	singlefs func(fi *Info) bool

	// the output action - either send info via chan or call user supplied func
	apply func(e *Entry)

	// Tracks device major:minor to detect mount-point crossings
	fs *xsync.MapOf[string, *Info]

	// Tracks inodes seen, to detect symlink loops / hardlink dups
	ino *xsync.MapOf[string, *Info]
}

type dirJob struct {
	nm    string
	depth int
}

// mapping our types to the stdlib types
var typMap = map[Type]os.FileMode{
	FILE:    0,
	DIR:     os.ModeDir,
	SYMLINK: os.ModeSymlink,
	DEVICE:  os.ModeDevice | os.ModeCharDevice,
	SPECIAL: os.ModeNamedPipe | os.ModeSocket,
}

var strMap = map[Type]string{
	FILE:    "File",
	DIR:     "Dir",
	SYMLINK: "Symlink",
	DEVICE:  "Device",
	SPECIAL: "Special",
}

// Stringer for walk filter Type
func (t Type) String() string {
	var z []string
	for k, v := range strMap {
		if (k & t) > 0 {
			z = append(z, v)
		}
	}
	return strings.Join(z, "|")
}

// Walk traverses the entries in 'names' in a concurrent fashion and
// returns results in a channel of *Entry. The caller must service
// the channel. Any errors encountered during the walk (that aren't
// attached to a specific entry) are returned in the error channel.
func Walk(names []string, opt Options) (chan *Entry, chan error) {
	if opt.Concurrency <= 0 {
		opt.Concurrency = runtime.NumCPU()
	}

	out := make(chan *Entry, opt.Concurrency)
	d := newWalkState(opt)

	d.apply = func(e *Entry) {
		out <- e
	}

	d.doWalk(names)

	// close the channels when we're all done
	go func() {
		d.dirWg.Wait()
		close(d.ch)
		close(out)
		close(d.errch)
		d.wg.Wait()
	}()

	return out, d.errch
}

func newWalkState(opt Options) *walkState {
	d := &walkState{
		Options: opt,
		ch:      make(chan dirJob, opt.Concurrency),
		errch:   make(chan error, opt.Concurrency),
		fs:      xsync.NewMapOf[string, *Info](),
		ino:     xsync.NewMapOf[string, *Info](),

		filterName: func(_ string) bool {
			return false
		},
		singlefs: func(_ *Info) bool {
			return true
		},
	}

	if len(d.Excludes) > 0 {
		d.filterName = d.exclude
	}

	if d.OneFS {
		d.singlefs = d.isSingleFS
	}

	if d.Filter == nil {
		d.Filter = func(_ *Entry) (bool, error) {
			return false, nil
		}
	}

	// build a fast lookup of our types to stdlib; we will use
	// this in the output path (walkState.output)
	t := d.Type
	for k, v := range typMap {
		if (t & k) > 0 {
			d.typ |= v
		}
	}

	d.wg.Add(d.Concurrency)
	for i := 0; i < d.Concurrency; i++ {
		go d.worker()
	}
	return d
}

// walk the entries in 'names'; this creates workers to
// traverse the FS in a concurrent fashion.
func (d *walkState) doWalk(names []string) {
	dirs := make([]dirJob, 0, len(names))
	for i := range names {
		nm := strings.TrimSuffix(names[i], "/")
		if len(nm) == 0 {
			nm = "/"
		}

		if d.filterName(nm) {
			continue
		}

		fi := new(Info)
		if err := Lstatm(nm, fi); err != nil {
			d.error(&Error{"lstat", nm, err})
			continue
		}

		if d.isEntrySeen(fi) {
			continue
		}

		e := &Entry{Info: fi, Depth: 0}
		skip, err := d.Filter(e)
		if err != nil {
			d.error(&Error{"filter", nm, err})
			continue
		}
		if skip {
			continue
		}

		m := fi.Mode()
		switch {
		case m.IsDir():
			if d.OneFS {
				d.trackFS(fi)
			}
			dirs = append(dirs, dirJob{nm, 0})

		case (m & os.ModeSymlink) > 0:
			dirs = d.doSymlink(e, dirs)

		default:
			d.output(e)
		}
	}

	d.enq(dirs)
}

// worker thread to walk directories
func (d *walkState) worker() {
	for job := range d.ch {
		fi := new(Info)
		if err := Lstatm(job.nm, fi); err != nil {
			d.error(&Error{"lstat-wrk", job.nm, err})
			d.dirWg.Done()
			continue
		}

		// we are _sure_ this is a dir.
		d.output(&Entry{Info: fi, Depth: job.depth})

		// Now process the contents of this dir
		d.walkPath(job.nm, job.depth+1)

		// It is crucial that we do this as the last thing in the processing loop.
		// Otherwise, we have a race condition where the workers will prematurely quit.
		// We can only decrement this wait-group _after_ walkPath() has returned!
		d.dirWg.Done()
	}

	d.wg.Done()
}

// output action for entries we encounter
func (d *walkState) output(e *Entry) {
	m := e.Mode()

	// we have to special case regular files because there is
	// no mask for Regular Files!
	//
	// For everyone else, we can consult the typ map
	if (d.typ&m) > 0 || ((d.Type&FILE) > 0 && m.IsRegular()) {
		d.apply(e)
	}
}

// return true iff basename(nm) matches one of the patterns
func (d *walkState) exclude(nm string) bool {
	bn := path.Base(nm)
	for _, pat := range d.Excludes {
		ok, err := path.Match(pat, bn)
		if err != nil {
			d.error(&Error{"exclude-glob", nm, fmt.Errorf("'%s': %w", pat, err)})
		} else if ok {
			return true
		}
	}

	return false
}

// enqueue a list of dirs in a separate go-routine so the caller is
// not blocked (deadlocked)
func (d *walkState) enq(dirs []dirJob) {
	if len(dirs) > 0 {
		d.dirWg.Add(len(dirs))
		go func(dirs []dirJob) {
			for _, j := range dirs {
				d.ch <- j
			}
		}(dirs)
	}
}

// read a dir and return the sorted names
func readDir(nm string) ([]string, error) {
	fd, err := os.Open(nm)
	if err != nil {
		return nil, &Error{"readdir", nm, err}
	}
	defer fd.Close()

	names, err := fd.Readdirnames(-1)
	if err != nil {
		return nil, &Error{"readdirnames", nm, err}
	}
	return names, nil
}

// Process a directory and return the list of subdirs
//
// There is *no* race condition between the workers reading d.ch and the
// wait-group going to zero: there is at least 1 count outstanding: of the
// current entry being processed. So, this function can take as long as it wants
// the caller (d.worker()) won't decrement that wait-count until this function
// returns. And by then the wait-count would've been bumped up by the number of
// dirs we've seen here.
func (d *walkState) walkPath(nm string, depth int) {
	names, err := readDir(nm)
	if err != nil {
		d.error(err)
		return
	}

	// hack to make joined paths not look like '//file'
	if nm == "/" {
		nm = ""
	}

	dirs := make([]dirJob, 0, len(names)/2)
	for i := range names {
		entry := names[i]

		// we don't want to use filepath.Join() because it "cleans"
		// the path (removes the leading .)
		fp := fmt.Sprintf("%s/%s", nm, entry)

		if d.filterName(fp) {
			continue
		}

		fi := new(Info)
		err := Lstatm(fp, fi)
		if err != nil {
			d.error(&Error{"lstat", fp, err})
			continue
		}

		if d.isEntrySeen(fi) {
			continue
		}

		e := &Entry{Info: fi, Depth: depth}
		skip, err := d.Filter(e)
		if err != nil {
			d.error(&Error{"filter", fp, err})
			continue
		}
		if skip {
			continue
		}

		m := fi.Mode()
		switch {
		case m.IsDir():
			// don't descend if this directory is not on the same file system.
			if d.singlefs(fi) {
				dirs = append(dirs, dirJob{fp, depth})
			}

		case (m & os.ModeSymlink) > 0:
			dirs = d.doSymlink(e, dirs)

		default:
			d.output(e)
		}
	}

	d.enq(dirs)
}

// Walk symlinks and don't process dirs/entries that we've already seen
// This function updates dirs if the resolved symlink is a dir we have
// to descend - and returns the possibly updated dirs list.
func (d *walkState) doSymlink(e *Entry, dirs []dirJob) []dirJob {
	if !d.FollowSymlinks {
		d.output(e)
		return dirs
	}

	nm := e.Name()
	newnm, err := filepath.EvalSymlinks(nm)
	if err != nil {
		d.error(&Error{"symlink", nm, err})
		return dirs
	}

	fi := new(Info)
	if err = Statm(newnm, fi); err != nil {
		d.error(&Error{"symlink-stat", newnm, err})
		return dirs
	}

	if !d.isEntrySeen(fi) {
		re := &Entry{Info: fi, Depth: e.Depth}
		switch {
		case fi.IsDir():
			if d.singlefs(fi) {
				dirs = append(dirs, dirJob{newnm, e.Depth})
			}
		default:
			d.output(re)
		}
	}

	return dirs
}

// track this inode to detect loops; return true if we've seen it before
// false otherwise.
func (d *walkState) isEntrySeen(st *Info) bool {
	if !d.IgnoreDuplicateInode {
		return false
	}

	key := fmt.Sprintf("%d:%d:%d", st.Dev, st.Rdev, st.Ino)
	x, loaded := d.ino.LoadOrStore(key, st)
	if !loaded {
		return false
	}

	if x.Dev != st.Dev || x.Rdev != st.Rdev || x.Ino != st.Ino {
		return false
	}
	return true
}

// track this file for future mount points
func (d *walkState) trackFS(fi *Info) {
	key := fmt.Sprintf("%d:%d", fi.Dev, fi.Rdev)
	d.fs.Store(key, fi)
}

// Return true if the inode is on the same file system as the command line args
func (d *walkState) isSingleFS(fi *Info) bool {
	key := fmt.Sprintf("%d:%d", fi.Dev, fi.Rdev)
	_, ok := d.fs.Load(key)
	return ok
}

// enq an error
func (d *walkState) error(e error) {
	d.errch <- e
}

// EOF
