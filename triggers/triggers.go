// Package triggers implements the "fixed registry of triggers" that
// WaitTrigger: header lines resolve against (spec §4.E). Triggers are
// just named identifiers to the parser — actually waiting on one and
// deciding when it fires belongs to the row scanner, entirely outside
// this module.
package triggers

import "github.com/watchflow/queryplan/entity"

// Registry is a static, config-loadable name -> entity.Trigger map.
type Registry struct {
	byName map[string]entity.Trigger
}

// NewRegistry builds a Registry from a list of trigger names, the shape
// that config.Config decodes a YAML trigger list into.
func NewRegistry(names []string) *Registry {
	r := &Registry{byName: make(map[string]entity.Trigger, len(names))}
	for _, name := range names {
		r.byName[name] = entity.Trigger{Name: name}
	}
	return r
}

// Find implements entity.TriggerRegistry.
func (r *Registry) Find(name string) (entity.Trigger, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// DefaultNames are the trigger names every table implicitly supports,
// mirroring the well-known trigger set Livestatus-style monitoring cores
// expose (state changes and the check/log cycle).
var DefaultNames = []string{
	"check", "state", "log", "downtime", "comment", "command", "program",
}

// Default returns a Registry pre-populated with DefaultNames.
func Default() *Registry {
	return NewRegistry(DefaultNames)
}
