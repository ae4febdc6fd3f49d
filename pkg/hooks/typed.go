package hooks

import (
	"context"
	"fmt"
)

// AddTypedFilter registers a filter whose value has a static type.
// A value of another type is passed through untouched.
func AddTypedFilter[T any](m *Manager, tag string, fn func(ctx context.Context, value T, args ...any) (T, error), opts ...HookOption) Handle {
	return m.AddFilter(tag, func(ctx context.Context, value any, args ...any) (any, error) {
		typed, ok := value.(T)
		if !ok {
			return value, fmt.Errorf("filter expects %T, got %T", *new(T), value)
		}
		return fn(ctx, typed, args...)
	}, opts...)
}

// Apply runs ApplyFilters and asserts the result back to T.
// If the chain produced another type, the input value is returned.
func Apply[T any](ctx context.Context, m *Manager, tag string, value T, args ...any) T {
	out := m.ApplyFilters(ctx, tag, value, args...)
	typed, ok := out.(T)
	if !ok {
		m.logger.Warn("filter chain changed value type", "tag", tag, "want", fmt.Sprintf("%T", value), "got", fmt.Sprintf("%T", out))
		return value
	}
	return typed
}
