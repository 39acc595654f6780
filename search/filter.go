// filter.go - the DirEntry Filter (spec.md S4.1)
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

	"github.com/opencoff/go-logger"

	"github.com/opencoff/rgx/walk"
)

// DirEntryFilter validates one walker-produced entry before it is
// handed to a worker. It never opens or reads file content; it only
// looks at the stat information the walker already gathered.
type DirEntryFilter struct {
	NoMessages bool
	Stdout     *StdoutIdentity
	Log        logger.Logger
}

// Accept implements the sequence in spec.md S4.1:
//
//  1. a walker error never reaches Accept: callers pass it to
//     WalkerError, which logs it (unless suppressed)
//  2. an entry's own attached soft error is logged the same way
//  3. an entry with no file-type info (stdin) is always accepted
//  4. depth 0 and not a directory is always accepted -- this check
//     runs BEFORE the stdout-identity check, by design: it lets a
//     user explicitly search the very file they are redirecting
//     stdout to, if they name it on the command line (spec.md S9,
//     last Open Question -- preserved, not "fixed")
//  5. anything that isn't a regular file is skipped
//  6. an entry matching the stdout identity is skipped
func (f *DirEntryFilter) Accept(e *walk.Entry) bool {
	if e.SoftErr != nil {
		f.warn("%s: %s", e.Name(), e.SoftErr)
	}

	if e.Info == nil {
		return true
	}

	if e.Depth == 0 && !e.IsDir() {
		return true
	}

	if !e.IsRegular() {
		return false
	}

	if f.Stdout.Matches(e.Info) {
		return false
	}

	return true
}

// WalkerError logs an error the walker surfaced that wasn't tied to
// a specific entry (eg: a directory that couldn't be read).
func (f *DirEntryFilter) WalkerError(err error) {
	f.warn("%s", err)
}

func (f *DirEntryFilter) warn(format string, args ...any) {
	if f.NoMessages {
		return
	}
	if f.Log != nil {
		f.Log.Warn(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
