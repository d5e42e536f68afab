package mutation

import "fmt"

// Context carries what one invocation needs to undo its optimistic write.
// It is discarded once the invocation settles.
type Context[V any] struct {
	ID        string
	Variables V

	// Previous is the target's data before the optimistic write.
	Previous    any
	HasPrevious bool

	// Applied reports whether the optimistic write reached the cache.
	Applied bool
}

// State is the lifecycle of the most recent invocation. The concrete types
// are Idle, Pending, Succeeded and Failed.
type State[V any] interface {
	isState()
}

type Idle[V any] struct{}

type Pending[V any] struct {
	Context Context[V]
}

type Succeeded[V any] struct {
	Context Context[V]
}

type Failed[V any] struct {
	Context Context[V]
	Err     error

	// RolledBack is true when the previous data was written back.
	RolledBack bool
}

func (Idle[V]) isState()      {}
func (Pending[V]) isState()   {}
func (Succeeded[V]) isState() {}
func (Failed[V]) isState()    {}

// StateName returns a short label for s.
func StateName[V any](s State[V]) string {
	switch s.(type) {
	case Idle[V]:
		return "idle"
	case Pending[V]:
		return "pending"
	case Succeeded[V]:
		return "success"
	case Failed[V]:
		return "error"
	default:
		panic(fmt.Sprintf("mutation: unknown state %T", s))
	}
}
