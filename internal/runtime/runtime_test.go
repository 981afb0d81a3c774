package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rverrors "github.com/ignius299792458/rv-react/internal/errors"
	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/hooks"
	"github.com/ignius299792458/rv-react/internal/reconcile"
	"github.com/ignius299792458/rv-react/internal/types"
)

// recordingSink captures committed roots and patches.
type recordingSink struct {
	mu      sync.Mutex
	roots   []*fiber.Node
	patches [][]reconcile.PatchOp
}

func (s *recordingSink) Apply(root *fiber.Node, ops []reconcile.PatchOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots = append(s.roots, root)
	s.patches = append(s.patches, ops)
	return nil
}

func (s *recordingSink) lastPatch() []reconcile.PatchOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.patches) == 0 {
		return nil
	}
	return s.patches[len(s.patches)-1]
}

// recordingErrorSink captures reported failures.
type recordingErrorSink struct {
	mu      sync.Mutex
	reports []struct {
		id    types.ComponentID
		slot  int
		cause error
	}
}

func (s *recordingErrorSink) ReportError(id types.ComponentID, slotIndex int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, struct {
		id    types.ComponentID
		slot  int
		cause error
	}{id, slotIndex, err})
}

func kindCounts(ops []reconcile.PatchOp) map[reconcile.OpKind]int {
	counts := make(map[reconcile.OpKind]int)
	for _, op := range ops {
		counts[op.Kind]++
	}
	return counts
}

func TestRuntime_MountAndStateWrite(t *testing.T) {
	// End-to-end: instance X has slots [count=0]; writeSlot(0, 1) with an
	// identical child request list reuses X and commits payload 1.
	ctx := context.Background()
	sink := &recordingSink{}

	var setCount func(interface{})
	counter := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		count, set, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		setCount = set
		return []types.ChildRequest{
			{Name: "span", Props: types.Props{"text": count}},
		}, nil
	}

	rt := New("Counter", counter, nil, WithSink(sink))
	require.NoError(t, rt.Flush(ctx))

	root := rt.Root()
	require.NotNil(t, root)
	slot, err := root.Slots.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.Payload)

	setCount(1)
	require.NoError(t, rt.Flush(ctx))

	// The child group patch is a single reuse with updated props.
	patch := sink.lastPatch()
	require.Len(t, patch, 1)
	assert.Equal(t, reconcile.OpReuse, patch[0].Kind)
	assert.Equal(t, 1, patch[0].New.Props["text"])

	slot, err = rt.Root().Slots.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.Payload)

	// The instance survived: same slot list across commits.
	assert.Same(t, root.Slots, rt.Root().Slots)
}

func TestRuntime_SlotPayloadStableAcrossManyRenders(t *testing.T) {
	ctx := context.Background()

	var setValue func(interface{})
	component := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		_, set, err := hooks.UseState(cur, "v0")
		if err != nil {
			return nil, err
		}
		setValue = set
		return nil, nil
	}

	rt := New("Stable", component, nil)
	require.NoError(t, rt.Flush(ctx))

	for i := 0; i < 10; i++ {
		setValue(i)
		require.NoError(t, rt.Flush(ctx))
		slot, err := rt.Root().Slots.Slot(0)
		require.NoError(t, err)
		assert.Equal(t, i, slot.Payload, "render %d", i)
	}
}

func TestRuntime_KeyedReorderPreservesChildState(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}

	setters := map[string]func(interface{}){}
	item := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		value, set, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		setters[props["key"].(string)] = set
		return []types.ChildRequest{
			{Name: "li", Props: types.Props{"text": value}},
		}, nil
	}

	var setOrder func(interface{})
	list := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		order, set, err := hooks.UseState(cur, []string{"a", "b"})
		if err != nil {
			return nil, err
		}
		setOrder = set
		requests := make([]types.ChildRequest, 0, 2)
		for _, key := range order.([]string) {
			requests = append(requests, types.ChildRequest{
				Name:   "Item",
				Key:    key,
				Props:  types.Props{"key": key},
				Render: item,
			})
		}
		return requests, nil
	}

	rt := New("List", list, nil, WithSink(sink))
	require.NoError(t, rt.Flush(ctx))

	before := rt.Root().Children
	require.Len(t, before, 2)
	slotsA, slotsB := before[0].Slots, before[1].Slots

	setters["a"](100)
	require.NoError(t, rt.Flush(ctx))

	setOrder([]string{"b", "a"})
	require.NoError(t, rt.Flush(ctx))

	after := rt.Root().Children
	require.Len(t, after, 2)
	assert.Equal(t, "b", after[0].Key)
	assert.Equal(t, "a", after[1].Key)

	// Each instance's slot list carried over verbatim.
	assert.Same(t, slotsB, after[0].Slots)
	assert.Same(t, slotsA, after[1].Slots)

	slot, err := after[1].Slots.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, 100, slot.Payload)

	// The sibling-group patch for the reorder contains only reuses.
	counts := kindCounts(sink.lastPatch())
	assert.Zero(t, counts[reconcile.OpReplace])
	assert.Zero(t, counts[reconcile.OpInsert])
	assert.Zero(t, counts[reconcile.OpRemove])
}

func TestRuntime_IdentityChangeDiscardsState(t *testing.T) {
	// Two component identities occupying the same sibling position never
	// share a slot list: replacing Foo with Bar at position 0 always
	// discards Foo's slots.
	ctx := context.Background()
	sink := &recordingSink{}

	foo := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		_, _, err := hooks.UseState(cur, "foo-state")
		return nil, err
	}
	bar := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		_, _, err := hooks.UseState(cur, "bar-state")
		return nil, err
	}

	var setWhich func(interface{})
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		which, set, err := hooks.UseState(cur, "Foo")
		if err != nil {
			return nil, err
		}
		setWhich = set
		if which == "Foo" {
			return []types.ChildRequest{{Name: "Foo", Render: foo}}, nil
		}
		return []types.ChildRequest{{Name: "Bar", Render: bar}}, nil
	}

	rt := New("App", app, nil, WithSink(sink))
	require.NoError(t, rt.Flush(ctx))

	fooSlots := rt.Root().Children[0].Slots

	setWhich("Bar")
	require.NoError(t, rt.Flush(ctx))

	barNode := rt.Root().Children[0]
	assert.Equal(t, "Bar", barNode.Name)
	assert.NotSame(t, fooSlots, barNode.Slots)

	slot, err := barNode.Slots.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, "bar-state", slot.Payload)

	counts := kindCounts(sink.lastPatch())
	assert.Equal(t, 1, counts[reconcile.OpReplace])
}

func TestRuntime_CommittedRemoveStartsFreshState(t *testing.T) {
	// Once a remove is committed, a later insert with the same key starts
	// a fresh slot list at defaults; no resurrection of old state.
	ctx := context.Background()

	var setChildState func(interface{})
	child := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		_, set, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		setChildState = set
		return nil, nil
	}

	var setShow func(interface{})
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		show, set, err := hooks.UseState(cur, true)
		if err != nil {
			return nil, err
		}
		setShow = set
		if !show.(bool) {
			return nil, nil
		}
		return []types.ChildRequest{{Name: "Child", Key: "k", Render: child}}, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))

	setChildState(42)
	require.NoError(t, rt.Flush(ctx))
	slot, err := rt.Root().Children[0].Slots.Slot(0)
	require.NoError(t, err)
	require.Equal(t, 42, slot.Payload)

	setShow(false)
	require.NoError(t, rt.Flush(ctx))
	require.Empty(t, rt.Root().Children)

	setShow(true)
	require.NoError(t, rt.Flush(ctx))
	require.Len(t, rt.Root().Children, 1)
	slot, err = rt.Root().Children[0].Slots.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, 0, slot.Payload)
}

func TestRuntime_EffectsRunChildrenBeforeParents(t *testing.T) {
	ctx := context.Background()

	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}

	leaf := func(name string) types.RenderFunc {
		return func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
			err := hooks.UseEffect(cur, func() types.Teardown {
				record(name)
				return nil
			}, []interface{}{})
			return nil, err
		}
	}

	parent := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		if err := hooks.UseEffect(cur, func() types.Teardown {
			record("parent")
			return nil
		}, []interface{}{}); err != nil {
			return nil, err
		}
		return []types.ChildRequest{
			{Name: "First", Render: leaf("first")},
			{Name: "Second", Render: leaf("second")},
		}, nil
	}

	rt := New("Parent", parent, nil)
	require.NoError(t, rt.Flush(ctx))

	assert.Equal(t, []string{"first", "second", "parent"}, order)

	// Effects never run twice for the same committed pass; with empty
	// deps they never re-run at all.
	rt.RequestRender()
	require.NoError(t, rt.Flush(ctx))
	assert.Equal(t, []string{"first", "second", "parent"}, order)
}

func TestRuntime_RemoveRunsTeardownBeforeDiscard(t *testing.T) {
	ctx := context.Background()

	var events []string
	child := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		err := hooks.UseEffect(cur, func() types.Teardown {
			events = append(events, "effect")
			return func() { events = append(events, "teardown") }
		}, []interface{}{})
		return nil, err
	}

	var setShow func(interface{})
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		show, set, err := hooks.UseState(cur, true)
		if err != nil {
			return nil, err
		}
		setShow = set
		if !show.(bool) {
			return nil, nil
		}
		return []types.ChildRequest{{Name: "Child", Render: child}}, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))
	require.Equal(t, []string{"effect"}, events)

	setShow(false)
	require.NoError(t, rt.Flush(ctx))
	assert.Equal(t, []string{"effect", "teardown"}, events)
}

func TestRuntime_RenderFailureAbortsWithoutPartialCommit(t *testing.T) {
	ctx := context.Background()
	errSink := &recordingErrorSink{}
	cause := errors.New("data unavailable")

	broken := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		if fail, _ := props["fail"].(bool); fail {
			return nil, cause
		}
		return nil, nil
	}

	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		return []types.ChildRequest{
			{Name: "Broken", Props: types.Props{"fail": props["fail"]}, Render: broken},
		}, nil
	}

	rt := New("App", app, types.Props{"fail": false}, WithErrorSink(errSink))
	require.NoError(t, rt.Flush(ctx))
	committed := rt.Root()

	rt.SetRootProps(types.Props{"fail": true})
	err := rt.Flush(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, rverrors.NewCommitAborted(nil))
	assert.ErrorIs(t, err, cause)

	// No partial commit: the previously committed graph is authoritative.
	assert.Same(t, committed, rt.Root())

	require.Len(t, errSink.reports, 1)
	assert.Equal(t, "Broken", errSink.reports[0].id.Name)
}

func TestRuntime_SlotMisuseReportedWithSlotIndex(t *testing.T) {
	ctx := context.Background()
	errSink := &recordingErrorSink{}

	pass := 0
	shifty := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		pass++
		if pass == 1 {
			_, _, err := hooks.UseState(cur, 0)
			return nil, err
		}
		// Conditional slot: kind changes at index 0 on the second pass.
		return nil, hooks.UseEffect(cur, func() types.Teardown { return nil }, nil)
	}

	rt := New("Shifty", shifty, nil, WithErrorSink(errSink))
	require.NoError(t, rt.Flush(ctx))

	rt.RequestRender()
	err := rt.Flush(ctx)
	require.Error(t, err)

	require.Len(t, errSink.reports, 1)
	assert.Equal(t, 0, errSink.reports[0].slot)
	assert.True(t, rverrors.IsSlotError(errSink.reports[0].cause))
}

func TestRuntime_DirtySubtreeOnlyRerenders(t *testing.T) {
	ctx := context.Background()

	renders := map[string]int{}
	var setLeafState func(interface{})

	leaf := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		renders["leaf"]++
		_, set, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		setLeafState = set
		return nil, nil
	}
	sibling := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		renders["sibling"]++
		return nil, nil
	}
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		renders["app"]++
		return []types.ChildRequest{
			{Name: "Leaf", Render: leaf},
			{Name: "Sibling", Render: sibling},
		}, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))
	require.Equal(t, map[string]int{"app": 1, "leaf": 1, "sibling": 1}, renders)

	// A state write on the leaf re-renders only the leaf's subtree.
	setLeafState(1)
	require.NoError(t, rt.Flush(ctx))
	assert.Equal(t, map[string]int{"app": 1, "leaf": 2, "sibling": 1}, renders)
}

func TestRuntime_EffectTriggeredStateSettles(t *testing.T) {
	ctx := context.Background()

	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		value, setValue, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		// Runs once after mount and writes state, enqueuing another pass
		// within the same flush.
		if err := hooks.UseEffect(cur, func() types.Teardown {
			setValue(1)
			return nil
		}, []interface{}{}); err != nil {
			return nil, err
		}
		_ = value
		return nil, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))

	slot, err := rt.Root().Slots.Slot(0)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.Payload)
}

func TestRuntime_SharedSubtreeIsStructurallyReused(t *testing.T) {
	ctx := context.Background()

	var setLeft func(interface{})
	left := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		_, set, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		setLeft = set
		return nil, nil
	}
	right := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		return []types.ChildRequest{{Name: "span", Props: types.Props{"text": "static"}}}, nil
	}
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		return []types.ChildRequest{
			{Name: "Left", Render: left},
			{Name: "Right", Render: right},
		}, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))
	oldRight := rt.Root().Children[1]

	setLeft(1)
	require.NoError(t, rt.Flush(ctx))

	// The clean sibling subtree is shared node-for-node with the old
	// committed graph, not rebuilt.
	assert.Same(t, oldRight, rt.Root().Children[1])
}

func TestRuntime_SetterAfterUnmountIsInert(t *testing.T) {
	// A setter retained past unmount (here through a ref-like closure) must
	// not wedge the loop: the dead instance's dirty mark is purged and its
	// schedule unbound when the remove commits.
	ctx := context.Background()

	var setChildState func(interface{})
	child := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		_, set, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		setChildState = set
		return nil, nil
	}

	var setShow func(interface{})
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		show, set, err := hooks.UseState(cur, true)
		if err != nil {
			return nil, err
		}
		setShow = set
		if !show.(bool) {
			return nil, nil
		}
		return []types.ChildRequest{{Name: "Child", Render: child}}, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))

	setShow(false)
	require.NoError(t, rt.Flush(ctx))
	require.Empty(t, rt.Root().Children)
	committed := rt.Root()

	// The retained setter targets an unmounted instance.
	setChildState(99)
	require.NoError(t, rt.Flush(ctx))
	assert.False(t, rt.hasWork())
	assert.Same(t, committed, rt.Root())

	// The loop still serves live work afterwards.
	setShow(true)
	require.NoError(t, rt.Flush(ctx))
	require.Len(t, rt.Root().Children, 1)
}

func TestRuntime_DirtyChildRemovedInSamePassSettles(t *testing.T) {
	// A child marked dirty and unmounted by the same flush must not leave
	// an orphaned entry in the dirty set.
	ctx := context.Background()

	var setChildState func(interface{})
	child := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		_, set, err := hooks.UseState(cur, 0)
		if err != nil {
			return nil, err
		}
		setChildState = set
		return nil, nil
	}

	var setShow func(interface{})
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		show, set, err := hooks.UseState(cur, true)
		if err != nil {
			return nil, err
		}
		setShow = set
		if !show.(bool) {
			return nil, nil
		}
		return []types.ChildRequest{{Name: "Child", Render: child}}, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))

	// Both marks land before the flush: the child's write and the parent
	// state change that removes it.
	setChildState(1)
	setShow(false)

	require.NoError(t, rt.Flush(ctx))
	assert.Empty(t, rt.Root().Children)
	assert.False(t, rt.hasWork())
}

func TestRuntime_RootSwapIsAtomic(t *testing.T) {
	// A reader holding the old committed root keeps observing a
	// consistent snapshot across a commit.
	ctx := context.Background()

	var setText func(interface{})
	app := func(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
		text, set, err := hooks.UseState(cur, "before")
		if err != nil {
			return nil, err
		}
		setText = set
		return []types.ChildRequest{{Name: "p", Props: types.Props{"text": text}}}, nil
	}

	rt := New("App", app, nil)
	require.NoError(t, rt.Flush(ctx))

	held := rt.Root()
	require.Equal(t, "before", held.Children[0].Props["text"])

	setText("after")
	require.NoError(t, rt.Flush(ctx))

	assert.Equal(t, "before", held.Children[0].Props["text"])
	assert.Equal(t, "after", rt.Root().Children[0].Props["text"])
	assert.NotSame(t, held, rt.Root())
}
