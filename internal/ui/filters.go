package ui

import (
	"github.com/abelbrown/hyperlocal/internal/filter"
	"github.com/abelbrown/hyperlocal/internal/otel"
	"github.com/abelbrown/hyperlocal/internal/persist"
	"github.com/abelbrown/hyperlocal/internal/prefs"
)

// Filters owns the live filter spec. Every dispatch is persisted, minus
// the AI session fields which never leave memory.
type Filters struct {
	spec *persist.Sync[filter.Spec]
}

// NewFilters restores the persisted spec from p.
func NewFilters(p *prefs.Store, events *otel.Logger) *Filters {
	return &Filters{spec: persist.NewSync(p, prefs.KeyFilters, filter.Default(),
		persist.WithSyncDecoder(filter.DecodePersisted),
		persist.WithSyncEvents[filter.Spec](events),
	)}
}

// Spec returns a copy of the live spec.
func (f *Filters) Spec() filter.Spec {
	return f.spec.Value().Clone()
}

// Dispatch applies a to the live spec.
func (f *Filters) Dispatch(a filter.Action) {
	f.spec.Update(func(s filter.Spec) filter.Spec { return filter.Reduce(s, a) })
}
