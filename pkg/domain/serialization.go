package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ElementData is the serialized form of a Container and its subtree.
type ElementData struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	ElType    string        `json:"elType,omitempty"`
	Props     Props         `json:"props"`
	Settings  Props         `json:"settings"`
	Label     string        `json:"label,omitempty"`
	IsLocked  bool          `json:"isLocked"`
	IsVisible bool          `json:"isVisible"`
	Children  []ElementData `json:"children"`
	CreatedAt time.Time     `json:"createdAt,omitzero"`
	UpdatedAt time.Time     `json:"updatedAt,omitzero"`
}

// UnmarshalJSON decodes element data; a missing isVisible means visible.
func (d *ElementData) UnmarshalJSON(data []byte) error {
	type plain ElementData
	aux := plain{IsVisible: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = ElementData(aux)
	return nil
}

// ToJSON serializes c and its subtree.
func (c *Container) ToJSON() ElementData {
	type frame struct {
		node *Container
		out  *ElementData
	}
	root := c.shallowData()
	stack := []frame{{node: c, out: &root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(top.node.children) == 0 {
			continue
		}
		top.out.Children = make([]ElementData, len(top.node.children))
		for i, child := range top.node.children {
			top.out.Children[i] = child.shallowData()
			stack = append(stack, frame{node: child, out: &top.out.Children[i]})
		}
	}
	return root
}

func (c *Container) shallowData() ElementData {
	return ElementData{
		ID:        c.id,
		Type:      c.typ,
		ElType:    c.elType,
		Props:     c.props.Clone(),
		Settings:  c.settings.Clone(),
		Label:     c.label,
		IsLocked:  c.locked,
		IsVisible: c.visible,
		Children:  []ElementData{},
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
	}
}

// ImportOption configures FromJSON.
type ImportOption func(*importConfig)

type importConfig struct {
	freshIDs bool
	factory  Factory
}

// WithFreshIDs regenerates every id in the imported subtree.
func WithFreshIDs() ImportOption {
	return func(c *importConfig) { c.freshIDs = true }
}

// WithImportFactory instantiates each node through f instead of the plain constructor.
func WithImportFactory(f Factory) ImportOption {
	return func(c *importConfig) { c.factory = f }
}

// FromJSON rebuilds a detached subtree from data. Ids are kept unless WithFreshIDs is given.
// Duplicate ids inside data and children under a leaf are rejected.
func FromJSON(data ElementData, opts ...ImportOption) (*Container, error) {
	cfg := &importConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	seen := make(map[string]bool)
	type frame struct {
		data   *ElementData
		parent *Container
	}

	var root *Container
	stack := []frame{{data: &data}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		d := *top.data
		if d.Type == "" {
			return nil, fmt.Errorf("%w: missing type", ErrInvalidElement)
		}
		if cfg.freshIDs || d.ID == "" {
			d.ID = NewID()
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		seen[d.ID] = true

		node, err := cfg.instantiate(d)
		if err != nil {
			return nil, err
		}
		if top.parent == nil {
			root = node
		} else {
			top.parent.adopt(node)
		}

		if len(d.Children) > 0 && !node.AcceptsChildren() {
			return nil, fmt.Errorf("%w: %s has children", ErrLeafContainer, d.Type)
		}
		// Push in reverse so siblings are appended in order.
		for i := len(d.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{data: &top.data.Children[i], parent: node})
		}
	}
	return root, nil
}

func (cfg *importConfig) instantiate(d ElementData) (*Container, error) {
	shallow := d
	shallow.Children = nil
	if cfg.factory != nil {
		node, err := cfg.factory.Instantiate(shallow)
		if err != nil {
			return nil, err
		}
		if node.factory == nil {
			node.factory = cfg.factory
		}
		return node, nil
	}
	return FromData(shallow), nil
}

// FromData builds a single detached node from data, ignoring children.
func FromData(d ElementData, opts ...Option) *Container {
	elType := d.ElType
	if elType == "" {
		elType = ElTypeElement
	}
	base := []Option{
		WithID(d.ID),
		WithElType(elType),
		WithLabel(d.Label),
		WithProps(d.Props.Clone()),
		WithSettings(d.Settings.Clone()),
		WithTimestamps(d.CreatedAt, d.UpdatedAt),
	}
	c := New(d.Type, append(base, opts...)...)
	c.locked = d.IsLocked
	c.visible = d.IsVisible
	return c
}

// MarshalJSON encodes the node as its ElementData.
func (c *Container) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToJSON())
}
