// serial.go - single-threaded, stoppable tree traversal
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
	"path"
	"path/filepath"
	"sort"
)

// WalkSerialFunc traverses 'names' on the caller's own goroutine, in
// walker-iteration order, and calls 'visit' for every entry that
// survives Options.Excludes/Options.Filter/Options.Type. It is the
// serial counterpart to Walk in walk.go, built the same way
// (readDir + recursive descent) but without fanning out to worker
// goroutines -- this is what gives the serial search driver a
// deterministic order and lets it stop early without tearing down a
// pool of goroutines.
//
// visit returns false to stop the traversal immediately; any
// directories still queued are simply never visited. Errors not
// attached to a specific entry (eg: a directory that can't be read)
// are returned, joined, once the walk completes or is stopped.
func WalkSerialFunc(names []string, opt Options, visit func(*Entry) bool) error {
	s := &serialWalker{opt: opt}

	if s.opt.Filter == nil {
		s.opt.Filter = func(_ *Entry) (bool, error) { return false, nil }
	}

	t := s.opt.Type
	for k, v := range typMap {
		if (t & k) > 0 {
			s.typ |= v
		}
	}

	seen := make(map[string]bool)

	for _, nm := range names {
		if s.stopped {
			break
		}
		nm = path.Clean(nm)
		if s.excluded(nm) {
			continue
		}

		fi := new(Info)
		if err := Lstatm(nm, fi); err != nil {
			s.errs = append(s.errs, &Error{"lstat", nm, err})
			continue
		}

		e := &Entry{Info: fi, Depth: 0}
		skip, err := s.opt.Filter(e)
		if err != nil {
			s.errs = append(s.errs, &Error{"filter", nm, err})
			continue
		}
		if skip {
			continue
		}

		switch {
		case fi.IsDir():
			if !s.output(e, visit) {
				break
			}
			s.descend(nm, 1, seen, visit)
		case (fi.Mode() & os.ModeSymlink) > 0:
			s.symlink(e, visit, seen, 0)
		default:
			s.output(e, visit)
		}
	}

	return errors.Join(s.errs...)
}

type serialWalker struct {
	opt     Options
	typ     os.FileMode
	stopped bool
	errs    []error
}

func (s *serialWalker) excluded(nm string) bool {
	if len(s.opt.Excludes) == 0 {
		return false
	}
	bn := path.Base(nm)
	for _, pat := range s.opt.Excludes {
		if ok, _ := path.Match(pat, bn); ok {
			return true
		}
	}
	return false
}

// output applies the type mask and calls visit; it returns false iff
// visit asked us to stop.
func (s *serialWalker) output(e *Entry, visit func(*Entry) bool) bool {
	if s.stopped {
		return false
	}
	m := e.Mode()
	if (s.typ&m) > 0 || ((s.opt.Type&FILE) > 0 && m.IsRegular()) {
		if !visit(e) {
			s.stopped = true
			return false
		}
	}
	return true
}

func (s *serialWalker) descend(dir string, depth int, seen map[string]bool, visit func(*Entry) bool) {
	if s.stopped {
		return
	}

	fd, err := os.Open(dir)
	if err != nil {
		s.errs = append(s.errs, &Error{"readdir", dir, err})
		return
	}
	names, err := fd.Readdirnames(-1)
	fd.Close()
	if err != nil {
		s.errs = append(s.errs, &Error{"readdirnames", dir, err})
		return
	}
	sort.Strings(names)

	for _, nm := range names {
		if s.stopped {
			return
		}

		fp := fmt.Sprintf("%s/%s", dir, nm)
		if s.excluded(fp) {
			continue
		}

		fi := new(Info)
		if err := Lstatm(fp, fi); err != nil {
			s.errs = append(s.errs, &Error{"lstat", fp, err})
			continue
		}

		e := &Entry{Info: fi, Depth: depth}
		skip, err := s.opt.Filter(e)
		if err != nil {
			s.errs = append(s.errs, &Error{"filter", fp, err})
			continue
		}
		if skip {
			continue
		}

		switch {
		case fi.IsDir():
			if !s.output(e, visit) {
				return
			}
			s.descend(fp, depth+1, seen, visit)
		case (fi.Mode() & os.ModeSymlink) > 0:
			s.symlink(e, visit, seen, depth)
		default:
			if !s.output(e, visit) {
				return
			}
		}
	}
}

func (s *serialWalker) symlink(e *Entry, visit func(*Entry) bool, seen map[string]bool, depth int) {
	if !s.opt.FollowSymlinks {
		s.output(e, visit)
		return
	}

	nm := e.Name()
	newnm, err := filepath.EvalSymlinks(nm)
	if err != nil {
		s.errs = append(s.errs, &Error{"symlink", nm, err})
		return
	}
	if seen[newnm] {
		return
	}
	seen[newnm] = true

	fi := new(Info)
	if err := Statm(newnm, fi); err != nil {
		s.errs = append(s.errs, &Error{"symlink-stat", newnm, err})
		return
	}

	re := &Entry{Info: fi, Depth: depth}
	switch {
	case fi.IsDir():
		if s.output(re, visit) {
			s.descend(newnm, depth+1, seen, visit)
		}
	default:
		s.output(re, visit)
	}
}
