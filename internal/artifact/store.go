// Package artifact defines the named-output sink the render core writes
// into, with in-memory, filesystem and sqlite backed implementations.
package artifact

// Store is the sink for rendered artifacts. The orchestrator claims each
// name before writing, so under normal operation Set is called at most
// once per name per build; behavior of a second Set for a name that is
// already present is implementation-defined (overwrite or drop).
type Store interface {
	// Has reports whether an artifact with this name is already present.
	Has(name string) bool
	// Set records content under name.
	Set(name string, content []byte) error
}

// FreshView returns a view of s that reports every name as absent while
// writes pass through. A render pass over a fresh view re-renders pages
// whose artifacts already exist; whether the new write replaces the
// stored content follows the backing store's Set semantics.
func FreshView(s Store) Store { return freshView{backing: s} }

type freshView struct{ backing Store }

func (v freshView) Has(string) bool { return false }

func (v freshView) Set(name string, content []byte) error {
	return v.backing.Set(name, content)
}
