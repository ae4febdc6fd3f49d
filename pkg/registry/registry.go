package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/go-playground/validator/v10"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrInvalidDescriptor is returned by Register when a descriptor misses a required field.
	ErrInvalidDescriptor = errors.New("invalid element descriptor")
	// ErrUnknownType is returned when no descriptor is registered for a type.
	ErrUnknownType = errors.New("unknown element type")
)

// FactoryFunc builds a node for a descriptor. data.Props already holds the merged props.
type FactoryFunc func(desc Descriptor, data domain.ElementData) (*domain.Container, error)

// Descriptor is the template for one element type.
type Descriptor struct {
	Type         string        `json:"type" validate:"required"`
	Icon         string        `json:"icon" validate:"required"`
	Title        string        `json:"title,omitempty"`
	Category     string        `json:"category,omitempty"`
	ElType       string        `json:"elType,omitempty"`
	Leaf         bool          `json:"leaf,omitempty"`
	DefaultProps *domain.Props `json:"defaultProps" validate:"required"`
	Factory      FactoryFunc   `json:"-"`
}

// Registry manages the available element types, in registration order.
// It implements domain.Factory.
type Registry struct {
	mu       sync.RWMutex
	types    *orderedmap.OrderedMap[string, Descriptor]
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for overwrite warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		types:    orderedmap.New[string, Descriptor](),
		validate: validator.New(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a descriptor. It fails fast when type, icon or defaultProps is missing.
// If a descriptor with the same type exists, it is overwritten.
func (r *Registry) Register(desc Descriptor) error {
	if err := r.validate.Struct(desc); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidDescriptor, desc.Type, err)
	}
	if desc.ElType == "" {
		desc.ElType = domain.ElTypeElement
	}
	// Built-in leaf types stay leaves even when re-registered.
	desc.Leaf = desc.Leaf || domain.LeafTypes[desc.Type]
	defaults := desc.DefaultProps.Clone()
	desc.DefaultProps = &defaults

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types.Get(desc.Type); exists {
		r.logger.Warn("element type overwritten", "type", desc.Type)
	}
	r.types.Set(desc.Type, desc)
	return nil
}

// Unregister removes a type and reports whether it existed.
func (r *Registry) Unregister(typ string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.types.Delete(typ)
	return ok
}

// Get returns the descriptor for typ.
func (r *Registry) Get(typ string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types.Get(typ)
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool {
	_, ok := r.Get(typ)
	return ok
}

// List returns every descriptor in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, r.types.Len())
	for pair := r.types.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Categories returns the distinct categories in first-seen order.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range r.List() {
		if d.Category == "" || seen[d.Category] {
			continue
		}
		seen[d.Category] = true
		out = append(out, d.Category)
	}
	return out
}

// ByCategory returns the descriptors of one category in registration order.
func (r *Registry) ByCategory(category string) []Descriptor {
	var out []Descriptor
	for _, d := range r.List() {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// CreateElement builds a detached node of typ. Default props come first and overrides win;
// keys new to the defaults are appended after them.
func (r *Registry) CreateElement(typ string, overrides map[string]any) (*domain.Container, error) {
	props := domain.NewProps(overrides)
	return r.Instantiate(domain.ElementData{Type: typ, Props: props, IsVisible: true})
}

// Instantiate implements domain.Factory. Props in data are merged over the type defaults.
func (r *Registry) Instantiate(data domain.ElementData) (*domain.Container, error) {
	desc, ok := r.Get(data.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, data.Type)
	}

	props := desc.DefaultProps.Clone()
	props.Merge(data.Props)
	data.Props = props
	if data.ElType == "" {
		data.ElType = desc.ElType
	}

	if desc.Factory != nil {
		c, err := desc.Factory(desc, data)
		if err != nil {
			return nil, fmt.Errorf("factory %s: %w", desc.Type, err)
		}
		return c, nil
	}

	return domain.FromData(data, domain.WithLeaf(desc.Leaf || domain.LeafTypes[desc.Type]), domain.WithFactory(r)), nil
}

var _ domain.Factory = (*Registry)(nil)
