// stats.go -- the three counters a driver run maintains
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

import "sync/atomic"

// Stats holds the three atomic counters a driver maintains during a
// run: paths_searched, file_count and line_count (I6, S9 design
// note). They are deliberately three independent atomics -- the
// design note in spec.md flags a historical bug where file_count
// and line_count shared one counter; this implementation keeps them
// distinct.
type Stats struct {
	pathsSearched atomic.Uint64
	filesMatched  atomic.Uint64
	linesMatched  atomic.Uint64
}

// IncPathsSearched increments the "paths accepted by the filter and
// handed to a worker" counter (I6).
func (s *Stats) IncPathsSearched() { s.pathsSearched.Add(1) }

// AddFileMatch records that one file matched with n lines.
func (s *Stats) AddFileMatch(n int) {
	s.filesMatched.Add(1)
	s.linesMatched.Add(uint64(n))
}

// PathsSearched returns the current paths_searched value.
func (s *Stats) PathsSearched() uint64 { return s.pathsSearched.Load() }

// Snapshot is an immutable, point-in-time copy of Stats suitable for
// returning to a caller once a driver run has finished.
type Snapshot struct {
	PathsSearched uint64
	FilesMatched  uint64
	LinesMatched  uint64
}

// Snapshot captures the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		PathsSearched: s.pathsSearched.Load(),
		FilesMatched:  s.filesMatched.Load(),
		LinesMatched:  s.linesMatched.Load(),
	}
}
