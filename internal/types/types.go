// Package types provides common type definitions shared by the rv-react
// runtime packages. This package contains the component-facing contract
// (render functions, slot cursor, child requests) to avoid circular
// dependencies between the hooks, fiber, render, and runtime packages.
package types

// Props carries the named inputs passed to a component's render function.
// Props are owned by the caller and must be treated as read-only by the
// component.
type Props map[string]interface{}

// SlotKind identifies the role of a state slot within an instance's slot
// sequence. The kind recorded when a slot is created is fixed for the
// lifetime of the owning instance.
type SlotKind int

const (
	// SlotValue holds plain mutable state; writes schedule a re-render of
	// the owning instance's subtree.
	SlotValue SlotKind = iota
	// SlotMemo caches the result of a computation keyed by dependencies.
	SlotMemo
	// SlotEffect defers a side-effecting callback until after commit.
	SlotEffect
	// SlotRef holds a mutable cell whose writes never schedule renders.
	SlotRef
)

// String returns the string representation of the slot kind.
func (k SlotKind) String() string {
	switch k {
	case SlotValue:
		return "value"
	case SlotMemo:
		return "memo"
	case SlotEffect:
		return "effect"
	case SlotRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Teardown is the optional cleanup returned by an effect callback. It runs
// before the effect re-runs with changed dependencies and when the owning
// instance is removed from the committed tree.
type Teardown func()

// EffectFunc is a deferred side-effect produced by an effect slot. It runs
// after the pass that scheduled it has committed, never during a render.
type EffectFunc func() Teardown

// Initializer produces the initial payload for a slot on the first render
// of the owning instance. It is ignored on every later render.
type Initializer func() interface{}

// Cursor is the slot access surface handed to a render function. All
// methods except Write are valid only while the owning instance's render
// invocation is active.
type Cursor interface {
	// Next advances to the next slot in declaration order, creating it via
	// init on the instance's first render. It returns the slot index and
	// the current payload. Calling Next outside an active render fails
	// with an out-of-context error; requesting a kind different from the
	// one recorded at that index fails with a slot-kind-mismatch error.
	Next(kind SlotKind, init Initializer) (index int, payload interface{}, err error)

	// Write replaces the payload at index. For value slots this schedules
	// the owning instance's subtree for re-render. Write is valid both
	// during a render and from outside one (event handlers, effects).
	Write(index int, payload interface{}) error

	// DepsChanged reports whether deps differ from the dependency keys
	// recorded for the slot at index. It does not record deps; recording
	// happens when the pass commits, so an abandoned pass leaves the
	// previous keys in place.
	DepsChanged(index int, deps []interface{}) (bool, error)

	// CommitDeps records deps as the slot's dependency keys. Memo slots
	// call this immediately after recomputing; effect slots have their
	// deps recorded by the committer when the effect runs.
	CommitDeps(index int, deps []interface{}) error

	// ScheduleEffect stages fn to run after commit if the current pass
	// commits. The staged effect is discarded with the pass on abort.
	ScheduleEffect(index int, fn EffectFunc, deps []interface{}) error
}

// RenderFunc computes a component's children from its props and state
// slots. It must be pure apart from slot access through cur: no mutation
// of sibling or ancestor state, no blocking I/O.
type RenderFunc func(props Props, cur Cursor) ([]ChildRequest, error)

// ChildRequest names one child a render function wants mounted, in sibling
// order. A request with a nil Render is a host leaf: the display sink
// renders it directly from Name (the tag) and Props.
type ChildRequest struct {
	// Name identifies the component (the registered render function) or,
	// for host leaves, the output tag. Matching during reconciliation uses
	// Name plus Key.
	Name string
	// Key is the developer-supplied explicit key, empty for positional
	// matching.
	Key string
	// Props are the inputs for this child on this pass.
	Props Props
	// Render is the child's render function, nil for host leaves.
	Render RenderFunc
}

// ComponentID identifies a mounted component instance for matching and
// error reporting.
type ComponentID struct {
	Name string
	Key  string
}

// String returns "Name" or "Name[Key]" for keyed instances.
func (id ComponentID) String() string {
	if id.Key == "" {
		return id.Name
	}
	return id.Name + "[" + id.Key + "]"
}

// ErrorSink receives render and commit failures. SlotIndex is -1 when the
// failure is not attributable to a specific slot. The core never decides
// how failures are displayed; that is the sink's concern.
type ErrorSink interface {
	ReportError(id ComponentID, slotIndex int, err error)
}

// ErrorSinkFunc adapts a function to the ErrorSink interface.
type ErrorSinkFunc func(id ComponentID, slotIndex int, err error)

// ReportError implements ErrorSink.
func (f ErrorSinkFunc) ReportError(id ComponentID, slotIndex int, err error) {
	f(id, slotIndex, err)
}
