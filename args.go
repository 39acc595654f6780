// args.go -- shared, immutable run configuration
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

package rgx

import (
	"io"
	"os"
)

// Args is the resolved configuration for a single search run. It is
// built once at process start and then shared by reference across
// every walker and worker goroutine -- nothing in this package
// mutates an Args after NewArgs returns it, so callers never need to
// copy it.
type Args struct {
	// Pattern is the search pattern in its source form. cmd/rgx
	// compiles the Matcher it hands to search.Facade from it; the
	// drivers themselves never read it.
	Pattern string

	// IgnoreCase requests case-insensitive matching from the
	// search engine.
	IgnoreCase bool

	// Threads is the requested worker concurrency. A value <= 1
	// selects the serial driver.
	Threads int

	// Paths are the roots handed to the walker, in the order the
	// user named them.
	Paths []string

	// Files requests the file-listing driver (--files) instead of
	// content search.
	Files bool

	// TypeList requests the types driver (--type-list).
	TypeList bool

	// Quiet stops the search after the first match and suppresses
	// output beyond the first file.
	Quiet bool

	// NoMessages suppresses non-fatal stderr diagnostics.
	NoMessages bool

	// NoPrinter skips printer-sink construction entirely; used in
	// library mode when the caller only wants FileMatch records.
	// It also suppresses the "nothing searched" diagnostic.
	NoPrinter bool

	// FileSeparator, when non-nil, is injected between files by
	// the serial driver.
	FileSeparator []byte

	// NeverMatch short-circuits the driver: it returns 0 matches
	// immediately without touching the walker or any worker.
	NeverMatch bool

	// Excludes is a list of shell-glob patterns (matched against
	// the basename) that the walker should not descend into or
	// return. This is the out-of-scope stand-in for full
	// gitignore-file parsing.
	Excludes []string

	// TypeFilter, if non-empty, restricts the walk to paths whose
	// basename matches one of the globs registered under this
	// name in the type registry.
	TypeFilter string

	// MmapThreshold is the file size (in bytes) above which the
	// worker prefers a memory-mapped read over a buffered one.
	// Zero selects a driver-chosen default.
	MmapThreshold int64

	// Stats records that the --stats summary was requested. The
	// drivers do not read it: they fill the counters in every
	// DriverResult whether it is set or not.
	Stats bool

	// Stdout is the sink the CLI is writing formatted results to.
	// It is typically buffered (eg: a *bufio.Writer), so it is not
	// itself useful for the stdout-identity check (I4) -- see
	// StdoutFile for that. Library callers that never print may
	// leave this nil.
	Stdout io.Writer

	// StdoutFile is the underlying *os.File behind Stdout, when one
	// exists. It is the identity the DirEntry filter protects
	// against (I4): a file equal to this one is never searched. The
	// CLI sets this to the real os.Stdout even though Stdout itself
	// is a buffered wrapper around it. Library callers that never
	// print, or whose sink isn't backed by a real file, leave this
	// nil and simply disable the check.
	StdoutFile *os.File

	// Color requests ANSI-colorized path headers from the printer.
	// The core itself never probes the environment for this (S6);
	// the CLI decides it once, up front, typically via
	// term.IsTerminal, and passes the answer in here.
	Color bool
}

// NewArgs returns an Args with the non-zero defaults every driver
// assumes (a thread count of at least 1).
func NewArgs() *Args {
	return &Args{
		Threads: 1,
	}
}
