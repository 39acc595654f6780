// registry.go -- the file-type definition registry
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

// Package types holds the small, illustrative file-type registry
// used by --type/--type-list. A complete database of language
// globs is explicitly out of scope (spec.md S1); this package
// specifies the shape the Types Driver iterates, not a rival to
// ripgrep's own registry.
package types

import "path"

// TypeDef names a group of glob patterns matched against a
// basename, eg "go" -> ["*.go"].
type TypeDef struct {
	Name  string
	Globs []string
}

// Registry is an ordered list of TypeDef. Order is preserved so
// --type-list output is deterministic.
type Registry struct {
	defs []TypeDef
}

// DefaultRegistry returns a registry seeded with a handful of
// common, illustrative type definitions.
func DefaultRegistry() *Registry {
	r := &Registry{}
	r.Add(TypeDef{Name: "go", Globs: []string{"*.go"}})
	r.Add(TypeDef{Name: "py", Globs: []string{"*.py"}})
	r.Add(TypeDef{Name: "md", Globs: []string{"*.md", "*.markdown"}})
	r.Add(TypeDef{Name: "txt", Globs: []string{"*.txt"}})
	r.Add(TypeDef{Name: "json", Globs: []string{"*.json"}})
	return r
}

// Add registers a type definition, replacing any existing
// definition of the same name.
func (r *Registry) Add(def TypeDef) {
	for i := range r.defs {
		if r.defs[i].Name == def.Name {
			r.defs[i] = def
			return
		}
	}
	r.defs = append(r.defs, def)
}

// Lookup returns the globs registered under name, and whether name
// was found.
func (r *Registry) Lookup(name string) ([]string, bool) {
	for _, d := range r.defs {
		if d.Name == name {
			return d.Globs, true
		}
	}
	return nil, false
}

// All returns the registered definitions in registration order.
func (r *Registry) All() []TypeDef {
	out := make([]TypeDef, len(r.defs))
	copy(out, r.defs)
	return out
}

// Matches reports whether basename(nm) matches any glob registered
// under name.
func (r *Registry) Matches(name, nm string) bool {
	globs, ok := r.Lookup(name)
	if !ok {
		return false
	}
	bn := path.Base(nm)
	for _, g := range globs {
		if ok, _ := path.Match(g, bn); ok {
			return true
		}
	}
	return false
}
