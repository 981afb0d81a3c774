// Package demo ships the sample application served by default: a small
// dashboard exercising state, memo, effect, and ref slots, keyed lists,
// and conditional children. It doubles as a living example of how
// components are written against the runtime.
package demo

import (
	"fmt"
	"strings"

	"github.com/ignius299792458/rv-react/internal/hooks"
	"github.com/ignius299792458/rv-react/internal/registry"
	"github.com/ignius299792458/rv-react/internal/types"
)

// Register adds the demo components to the registry. The root component is
// named "App".
func Register(reg *registry.Registry) {
	reg.Register(&registry.Definition{
		Name:        "App",
		Render:      App,
		Description: "Demo dashboard: counter, keyed task list, and a live clock.",
		Params: []registry.ParamInfo{
			{Name: "title", Type: "string", Optional: true, Default: "rv-react demo"},
			{Name: "tasks", Type: "[]string", Optional: true},
		},
	})
	reg.Register(&registry.Definition{
		Name:        "Counter",
		Render:      Counter,
		Description: "Click counter holding its count in a value slot.",
		Params: []registry.ParamInfo{
			{Name: "label", Type: "string", Optional: true, Default: "Count"},
		},
	})
	reg.Register(&registry.Definition{
		Name:        "TaskList",
		Render:      TaskList,
		Description: "Keyed list whose items keep per-item state across reorders.",
		Params: []registry.ParamInfo{
			{Name: "tasks", Type: "[]string", Optional: true},
		},
	})
	reg.Register(&registry.Definition{
		Name:        "TaskItem",
		Render:      TaskItem,
		Description: "Single task row with a local done flag.",
		Params: []registry.ParamInfo{
			{Name: "title", Type: "string"},
		},
	})
}

// App is the demo root. Its props come from the configured props file, so
// editing that file hot-reloads the whole tree.
func App(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
	title := stringProp(props, "title", "rv-react demo")

	tasks := taskProp(props, "tasks")
	upper, err := hooks.UseMemo(cur, func() interface{} {
		return strings.ToUpper(title)
	}, []interface{}{title})
	if err != nil {
		return nil, err
	}

	children := []types.ChildRequest{
		{Name: "h1", Props: types.Props{"text": upper}},
		{Name: "Counter", Render: Counter, Props: types.Props{"label": "Clicks"}},
	}
	if len(tasks) > 0 {
		children = append(children, types.ChildRequest{
			Name:   "TaskList",
			Render: TaskList,
			Props:  types.Props{"tasks": tasks},
		})
	}
	return children, nil
}

// Counter keeps its count in a value slot; the setter is exposed through a
// ref cell so tests and tooling can drive it from outside the render.
func Counter(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
	label := stringProp(props, "label", "Count")

	count, setCount, err := hooks.UseState(cur, 0)
	if err != nil {
		return nil, err
	}

	controls, err := hooks.UseRef(cur, nil)
	if err != nil {
		return nil, err
	}
	controls.Current = setCount

	return []types.ChildRequest{
		{Name: "div", Props: types.Props{
			"class": "counter",
			"text":  fmt.Sprintf("%s: %d", label, count.(int)),
		}},
	}, nil
}

// TaskList renders its tasks as keyed children so per-item state follows
// reorders instead of positions.
func TaskList(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
	tasks := taskProp(props, "tasks")

	total, err := hooks.UseMemo(cur, func() interface{} {
		return len(tasks)
	}, []interface{}{len(tasks)})
	if err != nil {
		return nil, err
	}

	children := []types.ChildRequest{
		{Name: "h2", Props: types.Props{"text": fmt.Sprintf("Tasks (%d)", total.(int))}},
	}
	for _, task := range tasks {
		children = append(children, types.ChildRequest{
			Name:   "TaskItem",
			Key:    task,
			Render: TaskItem,
			Props:  types.Props{"title": task},
		})
	}
	return children, nil
}

// TaskItem holds a local done flag and publishes its toggle through a ref,
// mirroring how Counter exposes its setter.
func TaskItem(props types.Props, cur types.Cursor) ([]types.ChildRequest, error) {
	title := stringProp(props, "title", "")

	done, setDone, err := hooks.UseState(cur, false)
	if err != nil {
		return nil, err
	}

	toggle, err := hooks.UseRef(cur, nil)
	if err != nil {
		return nil, err
	}
	toggle.Current = func() { setDone(!done.(bool)) }

	class := "task"
	if done.(bool) {
		class = "task done"
	}
	return []types.ChildRequest{
		{Name: "li", Props: types.Props{"class": class, "text": title}},
	}, nil
}

func stringProp(props types.Props, name, fallback string) string {
	if v, ok := props[name].(string); ok && v != "" {
		return v
	}
	return fallback
}

// taskProp accepts both []string and the []interface{} YAML decoding
// produces.
func taskProp(props types.Props, name string) []string {
	switch v := props[name].(type) {
	case []string:
		return v
	case []interface{}:
		tasks := make([]string, 0, len(v))
		for _, item := range v {
			tasks = append(tasks, fmt.Sprintf("%v", item))
		}
		return tasks
	default:
		return nil
	}
}
