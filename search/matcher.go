// matcher.go - the (out-of-scope) regex engine, stood in by regexp
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

import "regexp"

// Matcher is the pattern-matching engine a Worker delegates to. The
// engine's own implementation is explicitly out of scope (spec.md
// S1); this interface is the seam. RegexMatcher below is a minimal,
// real implementation built on the stdlib regexp package, following
// the precedent in the corpus's own sourcegraph searcher
// (cmd/searcher/search/matcher.go), which is likewise built directly
// on regexp rather than a bespoke engine.
type Matcher interface {
	// Match reports whether line contains a match. line does not
	// include its trailing newline.
	Match(line []byte) bool
}

// RegexMatcher is a Matcher backed by regexp.Regexp.
type RegexMatcher struct {
	re *regexp.Regexp
}

// NewRegexMatcher compiles pattern, optionally case-insensitively.
func NewRegexMatcher(pattern string, ignoreCase bool) (*RegexMatcher, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexMatcher{re: re}, nil
}

// Match implements Matcher.
func (m *RegexMatcher) Match(line []byte) bool {
	return m.re.Match(line)
}
