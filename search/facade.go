// facade.go - library entry points (spec.md S4.8)
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
	"github.com/opencoff/go-logger"

	"github.com/opencoff/rgx"
	"github.com/opencoff/rgx/types"
)

// Facade is the library entry point: one value wires together the
// caller's Args, predicate, pattern matcher and type registry, then
// picks among the Parallel/Serial/Files/Types drivers the way
// cmd/rgx does, so embedders get the exact same dispatch rules a CLI
// build relies on.
type Facade struct {
	Args      *rgx.Args
	Predicate rgx.Predicate
	Matcher   Matcher
	Registry  *types.Registry
	Log       logger.Logger
}

// GetMatches runs a full content search and returns every FileMatch
// produced, alongside the final Stats snapshot. Printing is governed
// entirely by Args.Stdout/Args.NoPrinter, same as the CLI: a library
// caller that leaves Stdout nil gets records with no side output.
//
// Selects the serial driver if Threads == 1 or there is exactly one
// path (spec.md S4.8); a single path gives the parallel walker
// nothing to split across threads, so it isn't worth the coordination.
func (f *Facade) GetMatches() (*DriverResult, error) {
	args := f.Args
	if args.TypeFilter != "" {
		f.Predicate = f.wrapTypeFilter(f.Predicate)
	}

	if args.Threads > 1 && len(args.Paths) != 1 {
		return (&ParallelDriver{Args: args, Predicate: f.Predicate, Matcher: f.Matcher, Collect: true, Log: f.Log}).Run()
	}
	return (&SerialDriver{Args: args, Predicate: f.Predicate, Matcher: f.Matcher, Collect: true, Log: f.Log}).Run()
}

// GetFiles runs the file-listing driver (the library counterpart of
// --files) and returns one FileMatch per accepted path, with no
// Lines populated. Always serial (spec.md S4.8): callers need a
// deterministic path order, which the parallel listing form cannot
// give since it only ever reports a count.
func (f *Facade) GetFiles() (*DriverResult, error) {
	args := f.Args
	if args.TypeFilter != "" {
		f.Predicate = f.wrapTypeFilter(f.Predicate)
	}

	return (&FilesDriver{Args: args, Predicate: f.Predicate, Collect: true, Log: f.Log}).runSerial()
}

// GetTypes lists the registered file-type definitions; it is the
// library counterpart of --type-list.
func (f *Facade) GetTypes() (*DriverResult, error) {
	return (&TypesDriver{Args: f.Args, Registry: f.registry()}).Run()
}

// Run dispatches on Args.TypeList/Args.Files the same way cmd/rgx
// does, so a library caller that has already populated Args exactly
// as a CLI invocation would doesn't need to know which driver its
// flags selected.
func (f *Facade) Run() (*DriverResult, error) {
	switch {
	case f.Args.TypeList:
		return f.GetTypes()
	case f.Args.Files:
		return f.GetFiles()
	default:
		return f.GetMatches()
	}
}

func (f *Facade) registry() *types.Registry {
	if f.Registry == nil {
		f.Registry = types.DefaultRegistry()
	}
	return f.Registry
}

// wrapTypeFilter adapts Args.TypeFilter into an ordinary Predicate
// check: a regular file whose basename doesn't match the named
// type's globs is skipped (Continue), without ever touching the
// walker's own descent into directories -- the registry only
// constrains what gets searched, not what gets traversed.
func (f *Facade) wrapTypeFilter(next rgx.Predicate) rgx.Predicate {
	reg := f.registry()
	name := f.Args.TypeFilter
	return func(idx uint64, path string) rgx.PredicateState {
		if !reg.Matches(name, path) {
			return rgx.Continue
		}
		if next != nil {
			return next(idx, path)
		}
		return rgx.Nothing
	}
}
