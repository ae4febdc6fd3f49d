package domain

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Well-known element types.
const (
	TypeContainer = "container"
	TypeText      = "text"
	TypeImage     = "image"
	TypeButton    = "button"
)

// ElTypeElement is the role tag used for layout elements; widgets carry their category instead.
const ElTypeElement = "element"

// LeafTypes lists the types that never accept children when no Factory says otherwise.
var LeafTypes = map[string]bool{
	TypeText:   true,
	TypeImage:  true,
	TypeButton: true,
}

// Factory turns raw element data into a detached node.
// Implementations decide defaults and whether the node accepts children.
type Factory interface {
	Instantiate(data ElementData) (*Container, error)
}

// Container is one node of the document tree.
// Its children slice is the owning relation; parent is a back-reference.
type Container struct {
	id       string
	typ      string
	elType   string
	label    string
	props    Props
	settings Props

	parent   *Container
	children []*Container

	leaf      bool
	selected  bool
	locked    bool
	visible   bool
	destroyed bool

	createdAt time.Time
	updatedAt time.Time

	factory Factory

	listenersMu sync.Mutex
	listeners   map[int]func(*Container)
	nextListen  int
}

// Option configures a Container at construction time.
type Option func(*Container)

// WithID sets an explicit id instead of generating one.
func WithID(id string) Option {
	return func(c *Container) {
		if id != "" {
			c.id = id
		}
	}
}

// WithProps sets the initial properties.
func WithProps(p Props) Option {
	return func(c *Container) {
		c.props = p
	}
}

// WithSettings sets the initial settings.
func WithSettings(s Props) Option {
	return func(c *Container) {
		c.settings = s
	}
}

// WithLabel sets the human label.
func WithLabel(label string) Option {
	return func(c *Container) {
		c.label = label
	}
}

// WithElType sets the coarse role tag.
func WithElType(elType string) Option {
	return func(c *Container) {
		c.elType = elType
	}
}

// WithLeaf overrides whether the node refuses children.
func WithLeaf(leaf bool) Option {
	return func(c *Container) {
		c.leaf = leaf
	}
}

// WithFactory sets the Factory used by AppendData and inherited by instantiated children.
func WithFactory(f Factory) Option {
	return func(c *Container) {
		c.factory = f
	}
}

// WithTimestamps restores persisted timestamps. Zero values are ignored.
func WithTimestamps(createdAt, updatedAt time.Time) Option {
	return func(c *Container) {
		if !createdAt.IsZero() {
			c.createdAt = createdAt
		}
		if !updatedAt.IsZero() {
			c.updatedAt = updatedAt
		}
	}
}

// New creates a detached node of the given type.
func New(typ string, opts ...Option) *Container {
	ts := now()
	c := &Container{
		id:        NewID(),
		typ:       typ,
		elType:    ElTypeElement,
		leaf:      LeafTypes[typ],
		visible:   true,
		createdAt: ts,
		updatedAt: ts,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.updatedAt.Before(c.createdAt) {
		c.updatedAt = c.createdAt
	}
	return c
}

// ID returns the element id.
func (c *Container) ID() string { return c.id }

// Type returns the registry type key.
func (c *Container) Type() string { return c.typ }

// ElType returns the coarse role tag.
func (c *Container) ElType() string { return c.elType }

// Label returns the human label.
func (c *Container) Label() string { return c.label }

// SetLabel renames the element.
func (c *Container) SetLabel(label string) {
	c.label = label
	c.touch()
}

// Props returns the live property map. Mutations through it must be followed by Touch.
func (c *Container) Props() *Props { return &c.props }

// Settings returns the live settings map.
func (c *Container) Settings() *Props { return &c.settings }

// Prop returns a single property value.
func (c *Container) Prop(key string) (any, bool) { return c.props.Get(key) }

// SetProp sets a single property and refreshes updatedAt.
func (c *Container) SetProp(key string, value any) {
	c.props.Set(key, value)
	c.touch()
}

// UpdateProps merges values into the properties and refreshes updatedAt.
func (c *Container) UpdateProps(values map[string]any) {
	c.props.MergeMap(values)
	c.touch()
}

// UpdateSettings merges values into the settings and refreshes updatedAt.
func (c *Container) UpdateSettings(values map[string]any) {
	c.settings.MergeMap(values)
	c.touch()
}

// Parent returns the owning node, or nil for roots and detached nodes.
func (c *Container) Parent() *Container { return c.parent }

// Children returns a copy of the child list in render order.
func (c *Container) Children() []*Container {
	out := make([]*Container, len(c.children))
	copy(out, c.children)
	return out
}

// ChildCount returns the number of direct children.
func (c *Container) ChildCount() int { return len(c.children) }

// ChildAt returns the direct child at index, or nil.
func (c *Container) ChildAt(index int) *Container {
	if index < 0 || index >= len(c.children) {
		return nil
	}
	return c.children[index]
}

// IndexOf returns the position of a direct child, or -1.
func (c *Container) IndexOf(id string) int {
	for i, child := range c.children {
		if child.id == id {
			return i
		}
	}
	return -1
}

// AcceptsChildren reports whether the node can own children.
func (c *Container) AcceptsChildren() bool { return !c.leaf }

// IsSelected reports the UI selection flag.
func (c *Container) IsSelected() bool { return c.selected }

// SetSelected sets the UI selection flag. Selection is not a document mutation.
func (c *Container) SetSelected(selected bool) { c.selected = selected }

// IsLocked reports whether the element is locked against edits.
func (c *Container) IsLocked() bool { return c.locked }

// SetLocked sets the lock flag.
func (c *Container) SetLocked(locked bool) {
	c.locked = locked
	c.touch()
}

// IsVisible reports the visibility flag.
func (c *Container) IsVisible() bool { return c.visible }

// SetVisible sets the visibility flag.
func (c *Container) SetVisible(visible bool) {
	c.visible = visible
	c.touch()
}

// IsDestroyed reports whether Destroy has run on this node.
func (c *Container) IsDestroyed() bool { return c.destroyed }

// CreatedAt returns the creation timestamp.
func (c *Container) CreatedAt() time.Time { return c.createdAt }

// UpdatedAt returns the last mutation timestamp.
func (c *Container) UpdatedAt() time.Time { return c.updatedAt }

// Touch refreshes updatedAt after an in-place mutation.
func (c *Container) Touch() { c.touch() }

func (c *Container) touch() {
	t := now()
	if t.After(c.updatedAt) {
		c.updatedAt = t
	}
}

// Factory returns the Factory attached to this node, if any.
func (c *Container) Factory() Factory { return c.factory }

// HasChildren reports whether the node owns at least one child.
func (c *Container) HasChildren() bool { return len(c.children) > 0 }

// HasParent reports whether the node is attached.
func (c *Container) HasParent() bool { return c.parent != nil }

// IsRoot reports whether the node has no parent.
func (c *Container) IsRoot() bool { return c.parent == nil }

// Depth is the number of ancestors.
func (c *Container) Depth() int {
	depth := 0
	for p := c.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Path joins ids from the root down to this node with "/".
func (c *Container) Path() string {
	ancestors := c.Ancestors()
	ids := make([]string, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		ids = append(ids, ancestors[i].id)
	}
	ids = append(ids, c.id)
	return strings.Join(ids, "/")
}

// OnDestroy registers fn to run once when the node is destroyed.
// The returned function unregisters it.
func (c *Container) OnDestroy(fn func(*Container)) func() {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	if c.listeners == nil {
		c.listeners = make(map[int]func(*Container))
	}
	key := c.nextListen
	c.nextListen++
	c.listeners[key] = fn
	return func() {
		c.listenersMu.Lock()
		defer c.listenersMu.Unlock()
		delete(c.listeners, key)
	}
}

func (c *Container) notifyDestroyed() {
	c.listenersMu.Lock()
	keys := make([]int, 0, len(c.listeners))
	for k := range c.listeners {
		keys = append(keys, k)
	}
	fns := make([]func(*Container), 0, len(keys))
	sort.Ints(keys)
	for _, k := range keys {
		fns = append(fns, c.listeners[k])
	}
	c.listeners = nil
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}

