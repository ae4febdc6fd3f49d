// Package instances keeps a flat id index of live elements, independent of where
// they sit in the tree.
package instances

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrIDCollision is returned when a different node is tracked under an existing id.
var ErrIDCollision = errors.New("element id already tracked")

type entry struct {
	node    *domain.Container
	release func()
}

// Tracker is an insertion-ordered id -> node index.
// Tracked nodes are untracked automatically when destroyed.
type Tracker struct {
	mu      sync.RWMutex
	entries *orderedmap.OrderedMap[string, entry]
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: orderedmap.New[string, entry]()}
}

// Track indexes one node. Tracking the same node twice is a no-op.
func (t *Tracker) Track(node *domain.Container) error {
	if node == nil {
		return domain.ErrNilChild
	}
	if node.IsDestroyed() {
		return domain.ErrDestroyed
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries.Get(node.ID()); ok {
		if existing.node == node {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrIDCollision, node.ID())
	}

	id := node.ID()
	release := node.OnDestroy(func(c *domain.Container) {
		t.untrackNode(id, c)
	})
	t.entries.Set(id, entry{node: node, release: release})
	return nil
}

// TrackTree indexes node and all its descendants. Nothing is tracked when any id collides.
func (t *Tracker) TrackTree(node *domain.Container) error {
	if node == nil {
		return domain.ErrNilChild
	}
	nodes := append([]*domain.Container{node}, node.AllChildren()...)

	t.mu.RLock()
	for _, n := range nodes {
		if existing, ok := t.entries.Get(n.ID()); ok && existing.node != n {
			t.mu.RUnlock()
			return fmt.Errorf("%w: %s", ErrIDCollision, n.ID())
		}
	}
	t.mu.RUnlock()

	for _, n := range nodes {
		if err := t.Track(n); err != nil {
			return err
		}
	}
	return nil
}

// Untrack removes id from the index and reports whether it was present.
// Descendants stay tracked; use UntrackTree to drop a subtree.
func (t *Tracker) Untrack(id string) bool {
	t.mu.Lock()
	e, ok := t.entries.Delete(id)
	t.mu.Unlock()
	if ok && e.release != nil {
		e.release()
	}
	return ok
}

// UntrackTree removes node and all its descendants from the index.
func (t *Tracker) UntrackTree(node *domain.Container) {
	node.Walk(func(n *domain.Container) bool {
		t.untrackNode(n.ID(), n)
		return true
	})
}

func (t *Tracker) untrackNode(id string, node *domain.Container) {
	t.mu.Lock()
	e, ok := t.entries.Get(id)
	if ok && e.node == node {
		t.entries.Delete(id)
	}
	t.mu.Unlock()
	if ok && e.node == node && e.release != nil {
		e.release()
	}
}

// Get returns the node for id, or nil.
func (t *Tracker) Get(id string) *domain.Container {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries.Get(id)
	if !ok {
		return nil
	}
	return e.node
}

// Has reports whether id is tracked.
func (t *Tracker) Has(id string) bool {
	return t.Get(id) != nil
}

// Len returns the number of tracked nodes.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries.Len()
}

// All returns every tracked node in tracking order.
func (t *Tracker) All() []*domain.Container {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*domain.Container, 0, t.entries.Len())
	for pair := t.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.node)
	}
	return out
}

// Roots returns the tracked nodes without a parent, in tracking order.
func (t *Tracker) Roots() []*domain.Container {
	var out []*domain.Container
	for _, n := range t.All() {
		if n.IsRoot() {
			out = append(out, n)
		}
	}
	return out
}

// Serialize exports the subtrees of all root instances.
func (t *Tracker) Serialize() []domain.ElementData {
	roots := t.Roots()
	out := make([]domain.ElementData, 0, len(roots))
	for _, r := range roots {
		out = append(out, r.ToJSON())
	}
	return out
}

// Clear drops every entry without destroying the nodes.
func (t *Tracker) Clear() {
	t.mu.Lock()
	old := t.entries
	t.entries = orderedmap.New[string, entry]()
	t.mu.Unlock()

	for pair := old.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.release != nil {
			pair.Value.release()
		}
	}
}
