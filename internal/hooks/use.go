package hooks

import (
	"github.com/ignius299792458/rv-react/internal/types"
)

// Ref is a mutable cell returned by UseRef. Writes to Current never
// schedule a render.
type Ref struct {
	Current interface{}
}

// UseState declares a value slot and returns its current payload plus a
// setter. The setter writes the new payload and schedules the owning
// instance's subtree for re-render; it stays valid for the lifetime of the
// instance because the slot list is carried verbatim across renders.
func UseState(cur types.Cursor, initial interface{}) (interface{}, func(interface{}), error) {
	index, payload, err := cur.Next(types.SlotValue, func() interface{} { return initial })
	if err != nil {
		return nil, nil, err
	}
	setter := func(v interface{}) {
		// Write on a live instance cannot fail: the index was handed out
		// by Next and slots are never removed before teardown.
		_ = cur.Write(index, v)
	}
	return payload, setter, nil
}

// UseMemo declares a memo slot and returns the cached result, recomputing
// it only when deps changed since the last committed evaluation.
func UseMemo(cur types.Cursor, compute func() interface{}, deps []interface{}) (interface{}, error) {
	index, payload, err := cur.Next(types.SlotMemo, nil)
	if err != nil {
		return nil, err
	}
	changed, err := cur.DepsChanged(index, deps)
	if err != nil {
		return nil, err
	}
	if !changed {
		return payload, nil
	}
	result := compute()
	if err := cur.Write(index, result); err != nil {
		return nil, err
	}
	// Memo results are caches of pure computations, so recording deps
	// in place is safe even if the pass is later abandoned.
	if err := cur.CommitDeps(index, deps); err != nil {
		return nil, err
	}
	return result, nil
}

// UseEffect declares an effect slot. When deps differ from the last
// committed run, fn is staged on the in-progress node and runs after the
// pass commits, never synchronously inside the render.
func UseEffect(cur types.Cursor, fn types.EffectFunc, deps []interface{}) error {
	index, _, err := cur.Next(types.SlotEffect, nil)
	if err != nil {
		return err
	}
	changed, err := cur.DepsChanged(index, deps)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return cur.ScheduleEffect(index, fn, deps)
}

// UseRef declares a ref slot holding a stable mutable cell.
func UseRef(cur types.Cursor, initial interface{}) (*Ref, error) {
	_, payload, err := cur.Next(types.SlotRef, func() interface{} {
		return &Ref{Current: initial}
	})
	if err != nil {
		return nil, err
	}
	return payload.(*Ref), nil
}
