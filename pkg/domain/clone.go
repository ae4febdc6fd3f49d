package domain

// CopySuffix is appended to the label of a cloned root.
const CopySuffix = " (Copy)"

// CloneOption configures Clone.
type CloneOption func(*cloneConfig)

type cloneConfig struct {
	props    map[string]any
	keepName bool
}

// WithPropsOverride merges values into the clone root's props.
func WithPropsOverride(values map[string]any) CloneOption {
	return func(c *cloneConfig) { c.props = values }
}

// WithoutCopySuffix keeps the clone root's label unchanged.
func WithoutCopySuffix() CloneOption {
	return func(c *cloneConfig) { c.keepName = true }
}

// Clone deep-copies c and its subtree. Every node gets a fresh id and fresh timestamps.
// The result is detached and keeps the source's Factory.
func (c *Container) Clone(opts ...CloneOption) *Container {
	cfg := &cloneConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	root := c.shallowClone()
	if !cfg.keepName {
		base := c.label
		if base == "" {
			base = c.typ
		}
		root.label = base + CopySuffix
	}
	if cfg.props != nil {
		root.props.MergeMap(cfg.props)
	}

	type frame struct{ src, dst *Container }
	stack := []frame{{src: c, dst: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range top.src.children {
			dup := child.shallowClone()
			top.dst.adopt(dup)
			stack = append(stack, frame{src: child, dst: dup})
		}
	}
	return root
}

func (c *Container) shallowClone() *Container {
	dup := New(c.typ,
		WithElType(c.elType),
		WithLabel(c.label),
		WithProps(c.props.Clone()),
		WithSettings(c.settings.Clone()),
		WithLeaf(c.leaf),
		WithFactory(c.factory),
	)
	dup.locked = c.locked
	dup.visible = c.visible
	return dup
}
