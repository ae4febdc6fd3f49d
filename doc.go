/*
Package canopy is the core of a visual drag-and-drop page builder.

A page is a tree of elements (containers, sections, widgets). Every mutation goes
through a named command so it can be validated, authorized, observed and recorded.
Extensions hook into the builder through priority-ordered filters and actions, and
drag gestures are resolved to drop targets by geometric collision detection.

# Architecture

The Builder composes independent managers, each usable on its own:

  - pkg/domain: the element tree, serialization and documents.
  - pkg/registry: element types, their defaults and factories.
  - pkg/instances: the flat id index of live elements.
  - pkg/command: the command engine, middlewares and history.
  - pkg/hooks: filters and actions.
  - pkg/collision: drop target detection.
  - pkg/elements: the built-in element and editor commands.

Persistence is behind ports.DocumentStore, with memory, file, Redis and SQLite
adapters. HTTP and MCP adapters expose a Builder to remote clients.

# Usage

	ctx := context.Background()
	b := canopy.New(canopy.WithStore(memory.NewStore()))

	section, _ := b.CreateElement(ctx, "section", nil, "")
	_, _ = b.CreateElement(ctx, "text", map[string]any{"content": "Hi"}, section.ID())

	_, err := b.Run(ctx, "elements/update", command.Args{
		"id":    section.ID(),
		"props": map[string]any{"padding": "40px"},
	})
	if err != nil {
		log.Fatal(err)
	}
	_ = b.Save(ctx)

# Extending

Register hooks before New so they observe initialization:

	hm := hooks.NewManager()
	hm.AddFilter(hooks.FilterAvailableElements, hideExperimental)
	b := canopy.New(canopy.WithHooks(hm))
*/
package canopy
