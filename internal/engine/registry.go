package engine

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// ComponentFactory creates a Component from scene-file props.
type ComponentFactory func(props map[string]any) Component

// ComponentSerializer converts a Component back to props for saving.
// It returns nil for components it doesn't own.
type ComponentSerializer func(c Component) map[string]any

type componentEntry struct {
	factory    ComponentFactory
	serializer ComponentSerializer
}

var componentRegistry = map[string]componentEntry{}

// RegisterComponent registers a named component with a factory and optional serializer.
// The serializer is used when saving the scene back to a file.
func RegisterComponent(name string, factory ComponentFactory, serializer ComponentSerializer) {
	if _, exists := componentRegistry[name]; exists {
		panic(fmt.Sprintf("component %q already registered", name))
	}
	componentRegistry[name] = componentEntry{factory: factory, serializer: serializer}
}

// CreateComponent looks up a registered component by name and creates it with the given props.
func CreateComponent(name string, props map[string]any) Component {
	entry, ok := componentRegistry[name]
	if !ok {
		return nil
	}
	return entry.factory(props)
}

// SerializeComponent tries to serialize a component by checking all registered components.
// Returns (name, props, true) if found, ("", nil, false) otherwise.
func SerializeComponent(c Component) (string, map[string]any, bool) {
	for name, entry := range componentRegistry {
		if entry.serializer == nil {
			continue
		}
		props := entry.serializer(c)
		if props != nil {
			return name, props, true
		}
	}
	return "", nil, false
}

// RegisteredComponents returns a sorted list of all registered component names.
func RegisteredComponents() []string {
	names := make([]string, 0, len(componentRegistry))
	for name := range componentRegistry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
