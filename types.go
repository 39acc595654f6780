// types.go -- core data types for the search orchestrator
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

// Package rgx implements the orchestration core of a parallel,
// recursive pattern-matching search tool: a buffered-write
// coordinator, quiet/early-exit signalling, the shared config
// ("Args") and the records returned by the library facade in
// package search.
package rgx

import "fmt"

// LineMatch is a single matched line within a file. LineNo is the
// 1-based line number; the Worker in package search always sets it,
// stdin included. Buf holds a copy of the line's bytes without its
// trailing newline: the newline is not part of Buf. The buffered read
// path also drops a trailing carriage return; the mmap path keeps it.
type LineMatch struct {
	LineNo *uint64
	Buf    []byte
}

func (m LineMatch) String() string {
	if m.LineNo != nil {
		return fmt.Sprintf("%d:%s", *m.LineNo, m.Buf)
	}
	return string(m.Buf)
}

// FileMatch pairs a searched path with the ordered sequence of
// matches found in it. The content-search drivers only emit a
// FileMatch for a file with at least one matching line, so Lines is
// never empty there; the file-listing driver emits FileMatch values
// with Lines left nil.
type FileMatch struct {
	Path  string
	Lines []LineMatch
}

// PredicateState is the three-way outcome a caller-supplied
// Predicate can return for each candidate entry. Collapsing this to
// a boolean loses the "search this one, then stop" case -- keep all
// three variants.
type PredicateState int

const (
	// Nothing means "no opinion, proceed normally".
	Nothing PredicateState = iota
	// Continue means "skip this entry, keep walking".
	Continue
	// Quit means "search this entry, then stop walking".
	Quit
)

func (p PredicateState) String() string {
	switch p {
	case Nothing:
		return "Nothing"
	case Continue:
		return "Continue"
	case Quit:
		return "Quit"
	default:
		return "PredicateState(?)"
	}
}

// Predicate is invoked once per candidate entry that survives the
// DirEntry filter, before any content is read. fileIndex is the
// caller-visible 1-based ordinal of this candidate. It is shared
// across worker goroutines in the parallel driver and must be safe
// to call concurrently.
type Predicate func(fileIndex uint64, path string) PredicateState

// ExitCode mirrors the process exit status described in the design
// doc: 0 when at least one match (or, for --files, at least one
// file) was produced, 1 otherwise.
type ExitCode int

const (
	ExitMatch   ExitCode = 0
	ExitNoMatch ExitCode = 1
)
