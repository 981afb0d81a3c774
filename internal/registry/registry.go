// Package registry manages the components known to the runtime: each
// registered definition binds a component name to its render function and
// describes the props it accepts, so the development server can list
// components and generate preview props.
package registry

import (
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ignius299792458/rv-react/internal/types"
)

// Definition describes one registered component.
type Definition struct {
	// Name is the component identifier used in child requests.
	Name string
	// Render computes the component's children.
	Render types.RenderFunc
	// Params describes the props the component accepts.
	Params []ParamInfo
	// Description provides human-readable documentation.
	Description string
	// RegisteredAt records when the definition was added.
	RegisteredAt time.Time
}

// ParamInfo describes one prop a component accepts.
type ParamInfo struct {
	Name     string
	Type     string
	Optional bool
	Default  interface{}
}

// EventType represents the type of registry event.
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a change in the component registry.
type Event struct {
	Type       EventType
	Definition *Definition
	Timestamp  time.Time
}

// Registry holds all registered components. It is safe for concurrent use.
type Registry struct {
	definitions map[string]*Definition
	names       []string
	mutex       sync.RWMutex
	watchers    []chan Event
}

// New creates an empty component registry.
func New() *Registry {
	return &Registry{
		definitions: make(map[string]*Definition),
		watchers:    make([]chan Event, 0),
	}
}

// Register adds or updates a component definition.
func (r *Registry) Register(def *Definition) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.definitions[def.Name]; exists {
		eventType = EventTypeUpdated
	} else {
		r.names = append(r.names, def.Name)
	}

	if def.RegisteredAt.IsZero() {
		def.RegisteredAt = time.Now()
	}
	r.definitions[def.Name] = def

	r.notify(Event{
		Type:       eventType,
		Definition: def,
		Timestamp:  time.Now(),
	})
}

// Get retrieves a definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	def, exists := r.definitions[name]
	return def, exists
}

// All returns all registered definitions in registration order.
func (r *Registry) All() []*Definition {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*Definition, 0, len(r.names))
	for _, name := range r.names {
		result = append(result, r.definitions[name])
	}
	return result
}

// Remove removes a component definition.
func (r *Registry) Remove(name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	def, exists := r.definitions[name]
	if !exists {
		return
	}

	delete(r.definitions, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}

	r.notify(Event{
		Type:       EventTypeRemoved,
		Definition: def,
		Timestamp:  time.Now(),
	})
}

// Watch returns a channel that receives registry events.
func (r *Registry) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *Registry) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered components.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.definitions)
}

// notify sends an event to all watchers without blocking; callers must
// hold the write lock.
func (r *Registry) notify(event Event) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

var titleCaser = cases.Title(language.English)

// MockProps generates preview props for a definition from its parameter
// descriptions, used by the development server when no props file is
// configured.
func MockProps(def *Definition) types.Props {
	props := make(types.Props, len(def.Params))
	for _, param := range def.Params {
		if param.Default != nil {
			props[param.Name] = param.Default
			continue
		}
		switch param.Type {
		case "string":
			props[param.Name] = "Sample " + titleCaser.String(param.Name)
		case "int", "int64", "int32":
			props[param.Name] = 42
		case "bool":
			props[param.Name] = true
		case "[]string":
			props[param.Name] = []string{"Item 1", "Item 2", "Item 3"}
		default:
			props[param.Name] = "mock_" + param.Name
		}
	}
	return props
}
