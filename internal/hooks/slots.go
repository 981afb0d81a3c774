// Package hooks implements the persistent, ordered state-slot list attached
// to each mounted component instance.
//
// A SlotList is created on an instance's first render and carried verbatim
// across every later render of that instance; it is destroyed only when the
// instance is torn down. Within one instance the sequence of slot kinds
// produced by a render must be identical on every pass. The cursor enforces
// this positionally: requesting a kind different from the one recorded at an
// index fails with ERR_SLOT_KIND_MISMATCH, the formal guard against
// conditionally declared slots.
package hooks

import (
	"github.com/ignius299792458/rv-react/internal/errors"
	"github.com/ignius299792458/rv-react/internal/types"
)

// Slot is one persistent unit of state owned by exactly one instance. The
// index and kind are assigned on first render and fixed thereafter.
type Slot struct {
	Index   int
	Kind    types.SlotKind
	Payload interface{}
	// Deps holds the dependency keys recorded for memo/effect slots at
	// their last committed evaluation. Nil means never evaluated.
	Deps []interface{}
	// teardown is the cleanup returned by the last committed run of an
	// effect slot.
	teardown types.Teardown
}

// StagedEffect is an effect whose dependencies changed during the current
// pass. It is staged on the in-progress node and runs only if the pass
// commits; an abandoned pass discards it with no observable effect.
type StagedEffect struct {
	Index int
	Fn    types.EffectFunc
	Deps  []interface{}
}

// SlotList is the per-instance slot storage plus the cursor used during a
// render invocation. It implements types.Cursor.
//
// The list is shared between the committed node and its in-progress
// counterpart: a REUSE carries the same SlotList forward, which is what
// keeps setter closures captured in earlier renders valid for the lifetime
// of the instance.
type SlotList struct {
	slots  []*Slot
	cursor int
	active bool
	staged []StagedEffect
	// schedule marks the owning instance dirty; invoked on value writes.
	schedule func()
}

// NewSlotList creates an empty slot list. schedule is called whenever a
// value slot is written, and may be nil for detached lists in tests.
func NewSlotList(schedule func()) *SlotList {
	return &SlotList{
		slots:    make([]*Slot, 0, 4),
		schedule: schedule,
	}
}

// SetSchedule installs the dirty-marking callback. The runtime rebinds it
// when an instance is adopted into a new tree.
func (l *SlotList) SetSchedule(schedule func()) {
	l.schedule = schedule
}

// Begin starts a render invocation: the cursor resets to 0 and slot access
// through Next becomes valid. Begin panics if a render is already active,
// since two concurrent passes over one instance would corrupt the cursor.
func (l *SlotList) Begin() {
	if l.active {
		panic("hooks: render invocation already active for this instance")
	}
	l.active = true
	l.cursor = 0
	l.staged = nil
}

// End finishes the render invocation and returns the effects staged during
// it, in declaration order.
func (l *SlotList) End() []StagedEffect {
	l.active = false
	staged := l.staged
	l.staged = nil
	return staged
}

// Len returns the number of slots created so far.
func (l *SlotList) Len() int {
	return len(l.slots)
}

// Slot returns the slot at index for inspection.
func (l *SlotList) Slot(index int) (*Slot, error) {
	if index < 0 || index >= len(l.slots) {
		return nil, errors.ErrSlotOutOfRange(index, len(l.slots))
	}
	return l.slots[index], nil
}

// Next implements types.Cursor. It advances the cursor, creating the slot
// via init on the instance's first touch of this index and returning the
// stored slot unchanged on every later pass.
func (l *SlotList) Next(kind types.SlotKind, init types.Initializer) (int, interface{}, error) {
	if !l.active {
		return 0, nil, errors.ErrOutOfContext("Next")
	}

	index := l.cursor
	if index < len(l.slots) {
		slot := l.slots[index]
		if slot.Kind != kind {
			return 0, nil, errors.ErrSlotKindMismatch(index, slot.Kind.String(), kind.String())
		}
		l.cursor++
		return index, slot.Payload, nil
	}

	var payload interface{}
	if init != nil {
		payload = init()
	}
	slot := &Slot{
		Index:   index,
		Kind:    kind,
		Payload: payload,
	}
	l.slots = append(l.slots, slot)
	l.cursor++
	return index, payload, nil
}

// Write implements types.Cursor. It replaces the payload at index; for
// value slots it also schedules the owning instance for re-render. Write is
// valid outside a render invocation: that is how event handlers and effects
// feed state changes back into the tree.
func (l *SlotList) Write(index int, payload interface{}) error {
	if index < 0 || index >= len(l.slots) {
		return errors.ErrSlotOutOfRange(index, len(l.slots))
	}
	slot := l.slots[index]
	slot.Payload = payload
	if slot.Kind == types.SlotValue && l.schedule != nil {
		l.schedule()
	}
	return nil
}

// DepsChanged implements types.Cursor. It compares deps against the keys
// recorded at the slot's last committed evaluation without recording them,
// so an abandoned pass cannot make a later pass skip an effect.
func (l *SlotList) DepsChanged(index int, deps []interface{}) (bool, error) {
	if index < 0 || index >= len(l.slots) {
		return false, errors.ErrSlotOutOfRange(index, len(l.slots))
	}
	return depsChanged(l.slots[index].Deps, deps), nil
}

// CommitDeps implements types.Cursor.
func (l *SlotList) CommitDeps(index int, deps []interface{}) error {
	if index < 0 || index >= len(l.slots) {
		return errors.ErrSlotOutOfRange(index, len(l.slots))
	}
	l.slots[index].Deps = deps
	return nil
}

// ScheduleEffect implements types.Cursor. The effect is staged for the
// current pass only.
func (l *SlotList) ScheduleEffect(index int, fn types.EffectFunc, deps []interface{}) error {
	if !l.active {
		return errors.ErrOutOfContext("ScheduleEffect")
	}
	if index < 0 || index >= len(l.slots) {
		return errors.ErrSlotOutOfRange(index, len(l.slots))
	}
	l.staged = append(l.staged, StagedEffect{Index: index, Fn: fn, Deps: deps})
	return nil
}

// RunEffect executes a staged effect after commit: the previous teardown
// for the slot runs first, then the effect, and the returned teardown plus
// the dependency keys are recorded on the slot.
func (l *SlotList) RunEffect(e StagedEffect) error {
	slot, err := l.Slot(e.Index)
	if err != nil {
		return err
	}
	if slot.teardown != nil {
		slot.teardown()
		slot.teardown = nil
	}
	if e.Fn != nil {
		slot.teardown = e.Fn()
	}
	slot.Deps = e.Deps
	return nil
}

// Teardown runs the recorded teardowns of all effect slots in declaration
// order. The committer calls this when the owning instance is removed,
// before the node is discarded.
func (l *SlotList) Teardown() {
	for _, slot := range l.slots {
		if slot.teardown != nil {
			slot.teardown()
			slot.teardown = nil
		}
	}
}

// depsChanged reports whether two dependency key sequences differ under
// ordered shallow comparison. A nil recorded or requested sequence always
// counts as changed; an empty non-nil sequence never changes after the
// first evaluation.
func depsChanged(recorded, requested []interface{}) bool {
	if recorded == nil || requested == nil {
		return true
	}
	if len(recorded) != len(requested) {
		return true
	}
	for i := range recorded {
		if recorded[i] != requested[i] {
			return true
		}
	}
	return false
}
