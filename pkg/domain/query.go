package domain

// Walk visits c and its descendants in pre-order. Returning false from fn stops the walk.
func (c *Container) Walk(fn func(*Container) bool) {
	stack := []*Container{c}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			return
		}
		for i := len(node.children) - 1; i >= 0; i-- {
			stack = append(stack, node.children[i])
		}
	}
}

// FindByID returns the first node with the given id in c's subtree, c included.
func (c *Container) FindByID(id string) *Container {
	var found *Container
	c.Walk(func(n *Container) bool {
		if n.id == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindByType returns every node of the given type in c's subtree, c included, in pre-order.
func (c *Container) FindByType(typ string) []*Container {
	var out []*Container
	c.Walk(func(n *Container) bool {
		if n.typ == typ {
			out = append(out, n)
		}
		return true
	})
	return out
}

// AllChildren returns every descendant of c (not c itself) in pre-order.
func (c *Container) AllChildren() []*Container {
	var out []*Container
	c.Walk(func(n *Container) bool {
		if n != c {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Ancestors returns the parent chain, nearest first.
func (c *Container) Ancestors() []*Container {
	var out []*Container
	for p := c.parent; p != nil; p = p.parent {
		out = append(out, p)
	}
	return out
}

// Root returns the top of c's parent chain (c itself when detached).
func (c *Container) Root() *Container {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// IsAncestorOf reports whether c appears in other's parent chain.
func (c *Container) IsAncestorOf(other *Container) bool {
	if other == nil {
		return false
	}
	for p := other.parent; p != nil; p = p.parent {
		if p == c {
			return true
		}
	}
	return false
}

// IsDescendantOf reports whether other appears in c's parent chain.
func (c *Container) IsDescendantOf(other *Container) bool {
	if other == nil {
		return false
	}
	return other.IsAncestorOf(c)
}
