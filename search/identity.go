// identity.go - stdout redirection-loop detection
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

	"golang.org/x/sys/unix"

	"github.com/opencoff/rgx/walk"
)

// StdoutIdentity captures the (dev, ino) of the file descriptor the
// process is writing results to, so the DirEntry Filter can refuse
// to search a path that is really the same file (I4) -- the classic
// "rg pattern . > out.log" loop.
type StdoutIdentity struct {
	dev, ino uint64
	ok       bool
}

// NewStdoutIdentity fstat(2)s f once, up front. If f is nil or the
// fstat fails, the identity check is disabled. A pipe, a socket or a
// device still records its (dev, ino); since the filter only compares
// that against regular files, it never matches one.
func NewStdoutIdentity(f *os.File) *StdoutIdentity {
	id := &StdoutIdentity{}
	if f == nil {
		return id
	}

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return id
	}

	id.dev = uint64(st.Dev)
	id.ino = st.Ino
	id.ok = true
	return id
}

// Matches reports whether info identifies the same file as the
// stdout descriptor this identity was built from. The comparison is
// the "cheap pre-filter" the spec calls for: the walker has already
// paid for the lstat, so this is just two integer comparisons, no
// extra syscalls.
func (id *StdoutIdentity) Matches(info *walk.Info) bool {
	if id == nil || !id.ok || info == nil {
		return false
	}
	return info.Dev == id.dev && info.Ino == id.ino
}
