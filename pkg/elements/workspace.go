package elements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/hooks"
	"github.com/aretw0/canopy/pkg/instances"
	"github.com/aretw0/canopy/pkg/registry"
)

var (
	// ErrElementNotFound is returned when an id is not tracked.
	ErrElementNotFound = errors.New("element not found")
	// ErrLocked is returned when a locked element is edited.
	ErrLocked = errors.New("element is locked")
	// ErrCreationRejected is returned when a validate-element-creation filter vetoes a create.
	ErrCreationRejected = errors.New("element creation rejected")
	// ErrClipboardEmpty is returned by paste before anything was copied.
	ErrClipboardEmpty = errors.New("clipboard is empty")
)

// Workspace is the live document the element commands operate on.
// Its mutex serializes every tree access made by the commands; hook actions are
// fired after the mutex is released so observers may run further commands.
type Workspace struct {
	mu        sync.Mutex
	registry  *registry.Registry
	tracker   *instances.Tracker
	hooks     *hooks.Manager
	selected  string
	clipboard *domain.ElementData
	logger    *slog.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// NewWorkspace creates an empty workspace over the given collaborators.
// Nil collaborators are replaced by defaults.
func NewWorkspace(reg *registry.Registry, tracker *instances.Tracker, hm *hooks.Manager, opts ...Option) *Workspace {
	if reg == nil {
		reg = registry.NewDefault()
	}
	if tracker == nil {
		tracker = instances.NewTracker()
	}
	if hm == nil {
		hm = hooks.NewManager()
	}
	w := &Workspace{
		registry: reg,
		tracker:  tracker,
		hooks:    hm,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Registry returns the type registry.
func (w *Workspace) Registry() *registry.Registry { return w.registry }

// Tracker returns the instance tracker.
func (w *Workspace) Tracker() *instances.Tracker { return w.tracker }

// Hooks returns the hook manager.
func (w *Workspace) Hooks() *hooks.Manager { return w.hooks }

// View runs fn with exclusive access to the tree. fn must not run commands.
func (w *Workspace) View(fn func(t *instances.Tracker)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.tracker)
}

// Element returns the tracked node with id, or nil.
func (w *Workspace) Element(id string) *domain.Container {
	return w.tracker.Get(id)
}

// Selected returns the selected element id, or "".
func (w *Workspace) Selected() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// Clipboard returns a copy of the clipboard contents.
func (w *Workspace) Clipboard() (domain.ElementData, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.clipboard == nil {
		return domain.ElementData{}, false
	}
	return *w.clipboard, true
}

// Snapshot serializes every root element in tracking order.
func (w *Workspace) Snapshot() []domain.ElementData {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tracker.Serialize()
}

// IsDescendant reports whether id sits strictly inside the subtree of ancestorID.
func (w *Workspace) IsDescendant(id, ancestorID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	node, anc := w.tracker.Get(id), w.tracker.Get(ancestorID)
	if node == nil || anc == nil {
		return false
	}
	return anc.IsAncestorOf(node)
}

// Replace destroys the current contents and loads elements in their place.
// Ids are kept unless freshIDs is set. Nothing changes when the payload is invalid.
func (w *Workspace) Replace(elements []domain.ElementData, freshIDs bool) ([]*domain.Container, error) {
	roots, err := w.build(elements, freshIDs)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, old := range w.tracker.Roots() {
		old.Destroy()
	}
	w.tracker.Clear()
	w.selected = ""
	for _, r := range roots {
		if err := w.tracker.TrackTree(r); err != nil {
			return nil, err
		}
	}
	return roots, nil
}

// Import adds elements as new roots. Ids are always regenerated.
func (w *Workspace) Import(elements []domain.ElementData) ([]*domain.Container, error) {
	roots, err := w.build(elements, true)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range roots {
		if err := w.tracker.TrackTree(r); err != nil {
			return nil, err
		}
	}
	return roots, nil
}

func (w *Workspace) build(elements []domain.ElementData, freshIDs bool) ([]*domain.Container, error) {
	opts := []domain.ImportOption{domain.WithImportFactory(w.registry)}
	if freshIDs {
		opts = append(opts, domain.WithFreshIDs())
	}
	seen := make(map[string]bool)
	roots := make([]*domain.Container, 0, len(elements))
	for i, data := range elements {
		root, err := domain.FromJSON(data, opts...)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		var dup string
		root.Walk(func(n *domain.Container) bool {
			if seen[n.ID()] {
				dup = n.ID()
				return false
			}
			seen[n.ID()] = true
			return true
		})
		if dup != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, dup)
		}
		roots = append(roots, root)
	}
	return roots, nil
}

// lookup returns a live tracked node. Callers hold w.mu.
func (w *Workspace) lookup(id string) (*domain.Container, error) {
	node := w.tracker.Get(id)
	if node == nil || node.IsDestroyed() {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}
	return node, nil
}

// lookupParent resolves an optional parent id. An empty id means "no parent".
func (w *Workspace) lookupParent(id string) (*domain.Container, error) {
	if id == "" {
		return nil, nil
	}
	parent, err := w.lookup(id)
	if err != nil {
		return nil, err
	}
	if !parent.AcceptsChildren() {
		return nil, fmt.Errorf("%w: %s", domain.ErrLeafContainer, parent.Type())
	}
	return parent, nil
}

func (w *Workspace) emit(ctx context.Context, tag string, args ...any) {
	w.hooks.DoAction(ctx, tag, args...)
}
