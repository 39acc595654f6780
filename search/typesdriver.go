// typesdriver.go - the Types Driver (spec.md S4.7)
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
	"github.com/opencoff/rgx"
	"github.com/opencoff/rgx/types"
)

// TypesDriver implements --type-list: it never touches the walker at
// all, it just prints every TypeDef in reg through the sink the
// caller's Args names.
type TypesDriver struct {
	Args     *rgx.Args
	Registry *types.Registry
}

// Run writes one line per registered type definition, returns the
// count of definitions iterated (spec.md S4.7) in Stats.PathsSearched
// -- the same counter the other drivers use for "items processed" --
// and always exits ExitNoMatch (spec.md S6: --type-list has nothing
// to "match").
func (d *TypesDriver) Run() (*DriverResult, error) {
	reg := d.Registry
	if reg == nil {
		reg = types.DefaultRegistry()
	}

	defs := reg.All()

	if d.Args.Stdout != nil && !d.Args.NoPrinter {
		sink := rgx.NewTextPrinter(d.Args.Stdout, d.Args.Color)
		for _, def := range defs {
			sink.TypeDef(def)
		}
	}

	snap := rgx.Snapshot{PathsSearched: uint64(len(defs))}
	return &DriverResult{Stats: snap, Exit: rgx.ExitNoMatch}, nil
}
