package domain

import "fmt"

// AppendChild attaches child as the last child of c.
func (c *Container) AppendChild(child *Container) error {
	return c.InsertChild(child, -1)
}

// InsertChild attaches child at index. A negative index appends; larger indexes are clamped.
// If child already belongs to another parent it is detached there first.
func (c *Container) InsertChild(child *Container, index int) error {
	if child == nil {
		return ErrNilChild
	}
	if c.destroyed || child.destroyed {
		return ErrDestroyed
	}
	if c.leaf {
		return fmt.Errorf("%w: %s", ErrLeafContainer, c.typ)
	}
	if child == c || child.IsAncestorOf(c) {
		return fmt.Errorf("%w: %s into %s", ErrCycle, child.id, c.id)
	}

	if child.parent != nil {
		child.parent.detach(child)
	}

	if index < 0 || index > len(c.children) {
		index = len(c.children)
	}
	c.children = append(c.children, nil)
	copy(c.children[index+1:], c.children[index:])
	c.children[index] = child
	child.parent = c
	if child.factory == nil {
		child.factory = c.factory
	}

	c.touch()
	return nil
}

// AppendData instantiates data through the node's Factory and inserts the result at index.
// Nested children in data are instantiated too.
func (c *Container) AppendData(data ElementData, index int) (*Container, error) {
	if c.leaf {
		return nil, fmt.Errorf("%w: %s", ErrLeafContainer, c.typ)
	}
	opts := []ImportOption{}
	if c.factory != nil {
		opts = append(opts, WithImportFactory(c.factory))
	}
	child, err := FromJSON(data, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.InsertChild(child, index); err != nil {
		return nil, err
	}
	return child, nil
}

// RemoveChild detaches the direct child with the given id.
// It returns nil when no direct child matches.
func (c *Container) RemoveChild(id string) *Container {
	i := c.IndexOf(id)
	if i < 0 {
		return nil
	}
	child := c.children[i]
	c.removeAt(i)
	return child
}

// MoveChild repositions a direct child within c.
// It returns false for an unknown id or an index outside the child list.
func (c *Container) MoveChild(id string, newIndex int) bool {
	from := c.IndexOf(id)
	if from < 0 || newIndex < 0 || newIndex >= len(c.children) {
		return false
	}
	if from == newIndex {
		return true
	}
	child := c.children[from]
	if from < newIndex {
		copy(c.children[from:newIndex], c.children[from+1:newIndex+1])
	} else {
		copy(c.children[newIndex+1:from+1], c.children[newIndex:from])
	}
	c.children[newIndex] = child
	c.touch()
	return true
}

// adopt appends child without validation or touching timestamps. Used while rebuilding
// persisted trees, whose updatedAt values must survive the round trip.
func (c *Container) adopt(child *Container) {
	c.children = append(c.children, child)
	child.parent = c
	if child.factory == nil {
		child.factory = c.factory
	}
}

// Detach removes c from its parent, if any.
func (c *Container) Detach() {
	if c.parent != nil {
		c.parent.detach(c)
	}
}

func (c *Container) detach(child *Container) {
	for i, existing := range c.children {
		if existing == child {
			c.removeAt(i)
			return
		}
	}
}

func (c *Container) removeAt(i int) {
	child := c.children[i]
	copy(c.children[i:], c.children[i+1:])
	c.children[len(c.children)-1] = nil
	c.children = c.children[:len(c.children)-1]
	child.parent = nil
	c.touch()
}

// Destroy tears down c and its whole subtree, children first, then detaches c.
// OnDestroy listeners run once per node. Calling Destroy twice is a no-op.
func (c *Container) Destroy() {
	if c.destroyed {
		return
	}

	// Collect post-order without recursion.
	type frame struct {
		node    *Container
		visited bool
	}
	var order []*Container
	stack := []frame{{node: c}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.visited {
			order = append(order, top.node)
			continue
		}
		stack = append(stack, frame{node: top.node, visited: true})
		for i := len(top.node.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: top.node.children[i]})
		}
	}

	c.Detach()
	for _, node := range order {
		node.destroyed = true
		node.children = nil
		node.parent = nil
		node.selected = false
		node.notifyDestroyed()
	}
}
