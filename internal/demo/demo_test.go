package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignius299792458/rv-react/internal/fiber"
	"github.com/ignius299792458/rv-react/internal/hooks"
	"github.com/ignius299792458/rv-react/internal/registry"
	"github.com/ignius299792458/rv-react/internal/runtime"
	"github.com/ignius299792458/rv-react/internal/sink"
	"github.com/ignius299792458/rv-react/internal/types"
)

func findNode(root *fiber.Node, name, key string) *fiber.Node {
	var found *fiber.Node
	root.WalkPreOrder(func(n *fiber.Node) {
		if found == nil && n.Name == name && n.Key == key {
			found = n
		}
	})
	return found
}

// refPayload digs the ref cell out of a component's slot list by kind.
func refPayload(t *testing.T, node *fiber.Node) *hooks.Ref {
	t.Helper()
	require.NotNil(t, node)
	for i := 0; i < node.Slots.Len(); i++ {
		slot, err := node.Slots.Slot(i)
		require.NoError(t, err)
		if slot.Kind == types.SlotRef {
			return slot.Payload.(*hooks.Ref)
		}
	}
	t.Fatal("node has no ref slot")
	return nil
}

func TestRegister(t *testing.T) {
	reg := registry.New()
	Register(reg)

	assert.Equal(t, 4, reg.Count())
	for _, name := range []string{"App", "Counter", "TaskList", "TaskItem"} {
		def, ok := reg.Get(name)
		require.True(t, ok, name)
		assert.NotNil(t, def.Render)
	}
}

func TestApp_RendersDashboard(t *testing.T) {
	htmlSink := sink.NewHTMLSink()
	rt := runtime.New("App", App, types.Props{
		"title": "Board",
		"tasks": []string{"write", "review"},
	}, runtime.WithSink(htmlSink))

	require.NoError(t, rt.Flush(context.Background()))

	out := htmlSink.HTML()
	assert.Contains(t, out, "<h1>BOARD</h1>")
	assert.Contains(t, out, "Clicks: 0")
	assert.Contains(t, out, "Tasks (2)")
	assert.Contains(t, out, `<li class="task">write</li>`)
	assert.Contains(t, out, `<li class="task">review</li>`)
}

func TestApp_NoTasksOmitsList(t *testing.T) {
	htmlSink := sink.NewHTMLSink()
	rt := runtime.New("App", App, types.Props{"title": "Empty"}, runtime.WithSink(htmlSink))

	require.NoError(t, rt.Flush(context.Background()))
	assert.NotContains(t, htmlSink.HTML(), "Tasks (")
}

func TestCounter_ClickRerenders(t *testing.T) {
	htmlSink := sink.NewHTMLSink()
	rt := runtime.New("App", App, types.Props{"title": "Board"}, runtime.WithSink(htmlSink))
	ctx := context.Background()

	require.NoError(t, rt.Flush(ctx))

	counter := findNode(rt.Root(), "Counter", "")
	setCount := refPayload(t, counter).Current.(func(interface{}))
	setCount(3)

	require.NoError(t, rt.Flush(ctx))
	assert.Contains(t, htmlSink.HTML(), "Clicks: 3")
}

func TestTaskItem_DoneStateFollowsKeyAcrossReorder(t *testing.T) {
	htmlSink := sink.NewHTMLSink()
	rt := runtime.New("App", App, types.Props{
		"title": "Board",
		"tasks": []string{"alpha", "beta"},
	}, runtime.WithSink(htmlSink))
	ctx := context.Background()

	require.NoError(t, rt.Flush(ctx))

	alpha := findNode(rt.Root(), "TaskItem", "alpha")
	toggle := refPayload(t, alpha).Current.(func())
	toggle()
	require.NoError(t, rt.Flush(ctx))
	assert.Contains(t, htmlSink.HTML(), `<li class="task done">alpha</li>`)

	// Reorder the tasks; alpha keeps its done flag because identity is
	// keyed, not positional.
	rt.SetRootProps(types.Props{
		"title": "Board",
		"tasks": []string{"beta", "alpha"},
	})
	require.NoError(t, rt.Flush(ctx))

	out := htmlSink.HTML()
	assert.Contains(t, out, `<li class="task done">alpha</li>`)
	assert.Contains(t, out, `<li class="task">beta</li>`)
}

func TestTaskItem_RetainedToggleAfterRemovalIsInert(t *testing.T) {
	// A toggle published through a ref outlives its task; calling it after
	// the task left the list must not disturb later renders.
	htmlSink := sink.NewHTMLSink()
	rt := runtime.New("App", App, types.Props{
		"title": "Board",
		"tasks": []string{"alpha", "beta"},
	}, runtime.WithSink(htmlSink))
	ctx := context.Background()

	require.NoError(t, rt.Flush(ctx))

	alpha := findNode(rt.Root(), "TaskItem", "alpha")
	toggle := refPayload(t, alpha).Current.(func())

	rt.SetRootProps(types.Props{
		"title": "Board",
		"tasks": []string{"beta"},
	})
	require.NoError(t, rt.Flush(ctx))
	assert.NotContains(t, htmlSink.HTML(), "alpha")

	toggle()
	require.NoError(t, rt.Flush(ctx))
	assert.Contains(t, htmlSink.HTML(), `<li class="task">beta</li>`)
}

func TestApp_YAMLStyleTaskProps(t *testing.T) {
	htmlSink := sink.NewHTMLSink()
	rt := runtime.New("App", App, types.Props{
		"title": "Board",
		"tasks": []interface{}{"from", "yaml"},
	}, runtime.WithSink(htmlSink))

	require.NoError(t, rt.Flush(context.Background()))
	assert.Contains(t, htmlSink.HTML(), "from")
	assert.Contains(t, htmlSink.HTML(), "yaml")
}
