// quiet.go -- process-wide quiet-mode early-exit flag
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

// QuietMatched is a process-wide flag recording whether any worker
// has observed a positive match while running in quiet mode. Walker
// workers poll HasMatch between entries and treat a true result as
// Quit (I3). Exactly one caller ever sees SetMatch transition
// false->true; that caller is the one responsible for telling the
// walker to stop.
type QuietMatched struct {
	matched atomic.Bool
}

// HasMatch reports whether a match has already been observed.
func (q *QuietMatched) HasMatch() bool {
	return q.matched.Load()
}

// SetMatch records that a match was (or wasn't) found by the
// caller's entry. It returns true only for the single caller whose
// update transitioned the flag from false to true -- every other
// concurrent caller, including repeat calls with v == true, gets
// false.
func (q *QuietMatched) SetMatch(v bool) bool {
	if !v {
		return false
	}
	return !q.matched.Swap(true)
}
