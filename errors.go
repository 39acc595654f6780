// errors.go - descriptive errors for the search orchestrator
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
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
	"errors"
	"fmt"
)

// ErrNeverMatch is returned (wrapped) by a driver when Args.NeverMatch
// is set; it short-circuits before touching the walker.
var ErrNeverMatch = errors.New("rgx: never-match requested")

// SearchError represents the errors returned by the search drivers
// and the library facade.
type SearchError struct {
	Op   string
	Path string
	Err  error
}

// Error returns a string representation of SearchError.
func (e *SearchError) Error() string {
	return fmt.Sprintf("rgx: %s '%s': %s", e.Op, e.Path, e.Err.Error())
}

// Unwrap returns the underlying wrapped error.
func (e *SearchError) Unwrap() error {
	return e.Err
}

var _ error = &SearchError{}
