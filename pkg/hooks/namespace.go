package hooks

import "context"

// Namespace scopes tags with a "ns:" prefix so plugins cannot collide.
type Namespace struct {
	m      *Manager
	prefix string
}

// Namespace returns a view of m whose tags are prefixed with ns.
func (m *Manager) Namespace(ns string) *Namespace {
	return &Namespace{m: m, prefix: ns + ":"}
}

// Tag returns the fully qualified tag.
func (n *Namespace) Tag(tag string) string { return n.prefix + tag }

// AddFilter registers a filter on the namespaced tag.
func (n *Namespace) AddFilter(tag string, fn FilterFunc, opts ...HookOption) Handle {
	return n.m.AddFilter(n.Tag(tag), fn, opts...)
}

// AddAction registers an action on the namespaced tag.
func (n *Namespace) AddAction(tag string, fn ActionFunc, opts ...HookOption) Handle {
	return n.m.AddAction(n.Tag(tag), fn, opts...)
}

// ApplyFilters runs the filters of the namespaced tag.
func (n *Namespace) ApplyFilters(ctx context.Context, tag string, value any, args ...any) any {
	return n.m.ApplyFilters(ctx, n.Tag(tag), value, args...)
}

// DoAction runs the actions of the namespaced tag.
func (n *Namespace) DoAction(ctx context.Context, tag string, args ...any) {
	n.m.DoAction(ctx, n.Tag(tag), args...)
}

// Remove unregisters a hook.
func (n *Namespace) Remove(h Handle) bool { return n.m.Remove(h) }
