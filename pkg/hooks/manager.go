package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/canopy/internal/logging"
)

// DefaultPriority is used when no Priority option is given. Lower runs first.
const DefaultPriority = 10

// FilterFunc transforms value. Returning an error keeps the value from before the call.
type FilterFunc func(ctx context.Context, value any, args ...any) (any, error)

// ActionFunc reacts to an event.
type ActionFunc func(ctx context.Context, args ...any) error

type kind string

const (
	kindFilter kind = "filter"
	kindAction kind = "action"
)

// Handle identifies one registration and is used to remove it.
type Handle struct {
	kind kind
	tag  string
	id   uint64
}

// Tag returns the tag the hook was registered on.
func (h Handle) Tag() string { return h.tag }

// IsZero reports whether h refers to no registration.
func (h Handle) IsZero() bool { return h.id == 0 }

type hook struct {
	id        uint64
	name      string
	priority  int
	remaining int // invocations left for temporary hooks; 0 means unlimited
	filter    FilterFunc
	action    ActionFunc
}

// HookOption configures a registration.
type HookOption func(*hook)

// Priority sets the ordering key. Hooks with equal priority run in registration order.
func Priority(p int) HookOption {
	return func(h *hook) { h.priority = p }
}

// Times makes the hook temporary: it is removed after n invocations.
func Times(n int) HookOption {
	return func(h *hook) {
		if n > 0 {
			h.remaining = n
		}
	}
}

// Once is Times(1).
func Once() HookOption { return Times(1) }

// Named attaches a label used in logs.
func Named(name string) HookOption {
	return func(h *hook) { h.name = name }
}

// Manager is a tagged, priority-ordered registry of filters and actions.
// Callback failures and panics are logged and isolated.
type Manager struct {
	mu      sync.RWMutex
	filters map[string][]*hook
	actions map[string][]*hook
	nextID  uint64
	fired   map[string]int

	cacheMu sync.Mutex
	cache   *filterCache

	observers []func(tag string)
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for callback failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithFilterCache enables a FIFO cache of filter results bounded to size entries.
func WithFilterCache(size int) Option {
	return func(m *Manager) {
		if size > 0 {
			m.cache = newFilterCache(size)
		}
	}
}

// WithActionObserver registers fn to be told about every action dispatch.
func WithActionObserver(fn func(tag string)) Option {
	return func(m *Manager) {
		m.observers = append(m.observers, fn)
	}
}

// Observe adds fn to the action observers. Safe to call while actions are dispatched.
func (m *Manager) Observe(fn func(tag string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

// NewManager creates an empty Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		filters: make(map[string][]*hook),
		actions: make(map[string][]*hook),
		fired:   make(map[string]int),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddFilter registers fn on tag.
func (m *Manager) AddFilter(tag string, fn FilterFunc, opts ...HookOption) Handle {
	return m.add(kindFilter, tag, &hook{filter: fn}, opts)
}

// AddAction registers fn on tag.
func (m *Manager) AddAction(tag string, fn ActionFunc, opts ...HookOption) Handle {
	return m.add(kindAction, tag, &hook{action: fn}, opts)
}

func (m *Manager) add(k kind, tag string, h *hook, opts []HookOption) Handle {
	h.priority = DefaultPriority
	for _, opt := range opts {
		opt(h)
	}

	m.mu.Lock()
	m.nextID++
	h.id = m.nextID
	table := m.table(k)
	list := table[tag]
	// Insert after every hook with priority <= h.priority to keep the sort stable.
	i := sort.Search(len(list), func(i int) bool { return list[i].priority > h.priority })
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = h
	table[tag] = list
	m.mu.Unlock()

	if k == kindFilter {
		m.invalidate(tag)
	}
	return Handle{kind: k, tag: tag, id: h.id}
}

func (m *Manager) table(k kind) map[string][]*hook {
	if k == kindFilter {
		return m.filters
	}
	return m.actions
}

// Remove unregisters the hook behind h and reports whether it was registered.
func (m *Manager) Remove(h Handle) bool {
	if h.IsZero() {
		return false
	}
	m.mu.Lock()
	removed := m.removeLocked(h.kind, h.tag, h.id)
	m.mu.Unlock()

	if removed && h.kind == kindFilter {
		m.invalidate(h.tag)
	}
	return removed
}

func (m *Manager) removeLocked(k kind, tag string, id uint64) bool {
	table := m.table(k)
	list := table[tag]
	for i, h := range list {
		if h.id != id {
			continue
		}
		next := make([]*hook, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(table, tag)
		} else {
			table[tag] = next
		}
		return true
	}
	return false
}

// RemoveAll drops every filter and action on tag.
func (m *Manager) RemoveAll(tag string) {
	m.mu.Lock()
	delete(m.filters, tag)
	delete(m.actions, tag)
	m.mu.Unlock()
	m.invalidate(tag)
}

// HasFilter reports whether tag has at least one filter.
func (m *Manager) HasFilter(tag string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.filters[tag]) > 0
}

// HasAction reports whether tag has at least one action.
func (m *Manager) HasAction(tag string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.actions[tag]) > 0
}

// Fired returns how many times DoAction ran for tag.
func (m *Manager) Fired(tag string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fired[tag]
}

// snapshot copies the hook list so callbacks can register or remove hooks safely.
func (m *Manager) snapshot(k kind, tag string) ([]*hook, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.table(k)[tag]
	temporary := false
	for _, h := range list {
		if h.remaining > 0 {
			temporary = true
		}
	}
	out := make([]*hook, len(list))
	copy(out, list)
	return out, temporary
}

// consume decrements temporary hooks that ran and removes the exhausted ones.
// It runs after the dispatch so removals never disturb the chain in flight.
func (m *Manager) consume(k kind, tag string, ran []*hook) {
	m.mu.Lock()
	var expired []uint64
	for _, h := range ran {
		if h.remaining == 0 {
			continue
		}
		h.remaining--
		if h.remaining == 0 {
			expired = append(expired, h.id)
		}
	}
	for _, id := range expired {
		m.removeLocked(k, tag, id)
	}
	m.mu.Unlock()

	if len(expired) > 0 && k == kindFilter {
		m.invalidate(tag)
	}
}

// ApplyFilters folds value through the filters on tag in ascending priority order.
func (m *Manager) ApplyFilters(ctx context.Context, tag string, value any, args ...any) any {
	list, temporary := m.snapshot(kindFilter, tag)
	if len(list) == 0 {
		return value
	}

	key, cacheable := m.cacheKey(tag, value, args)
	cacheable = cacheable && !temporary
	if cacheable {
		if v, ok := m.cached(key); ok {
			return v
		}
	}

	current := value
	failed := false
	for _, h := range list {
		next, err := m.callFilter(ctx, h, current, args)
		if err != nil {
			failed = true
			m.logger.Warn("filter failed", "tag", tag, "hook", h.label(), "err", err)
			continue
		}
		current = next
	}
	m.consume(kindFilter, tag, list)

	if cacheable && !failed {
		m.store(key, current)
	}
	return current
}

func (m *Manager) callFilter(ctx context.Context, h *hook, value any, args []any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.filter(ctx, value, args...)
}

// DoAction runs every action on tag for its side effects.
func (m *Manager) DoAction(ctx context.Context, tag string, args ...any) {
	m.mu.Lock()
	m.fired[tag]++
	observers := m.observers
	m.mu.Unlock()

	for _, obs := range observers {
		obs(tag)
	}

	list, _ := m.snapshot(kindAction, tag)
	for _, h := range list {
		if err := m.callAction(ctx, h, args); err != nil {
			m.logger.Warn("action failed", "tag", tag, "hook", h.label(), "err", err)
		}
	}
	m.consume(kindAction, tag, list)
}

func (m *Manager) callAction(ctx context.Context, h *hook, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.action(ctx, args...)
}

func (h *hook) label() string {
	if h.name != "" {
		return h.name
	}
	return fmt.Sprintf("#%d", h.id)
}

func (m *Manager) cacheKey(tag string, value any, args []any) (cacheKey, bool) {
	if m.cache == nil {
		return cacheKey{}, false
	}
	return fingerprint(tag, value, args)
}

func (m *Manager) cached(k cacheKey) (any, bool) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	return m.cache.get(k)
}

func (m *Manager) store(k cacheKey, v any) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	m.cache.put(k, v)
}

func (m *Manager) invalidate(tag string) {
	if m.cache == nil {
		return
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	m.cache.invalidate(tag)
}

// CacheLen returns the number of cached filter results.
func (m *Manager) CacheLen() int {
	if m.cache == nil {
		return 0
	}
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	return m.cache.len()
}
