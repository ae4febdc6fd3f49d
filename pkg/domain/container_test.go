package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	c := New(TypeContainer)

	assert.NotEmpty(t, c.ID())
	assert.Equal(t, TypeContainer, c.Type())
	assert.Equal(t, ElTypeElement, c.ElType())
	assert.True(t, c.IsVisible())
	assert.True(t, c.AcceptsChildren())
	assert.False(t, c.HasChildren())
	assert.True(t, c.IsRoot())
	assert.False(t, c.CreatedAt().After(c.UpdatedAt()))

	assert.False(t, New(TypeText).AcceptsChildren(), "text is a leaf type")
	assert.True(t, New(TypeText, WithLeaf(false)).AcceptsChildren())
}

func TestContainer_AppendChild(t *testing.T) {
	t.Run("Create And Append", func(t *testing.T) {
		c1 := New(TypeContainer)
		assert.False(t, c1.HasChildren())

		t1 := New(TypeText)
		require.NoError(t, c1.AppendChild(t1))

		assert.True(t, c1.HasChildren())
		assert.Same(t, c1, t1.Parent())
		assert.Equal(t, 1, t1.Depth())
		assert.Equal(t, c1.ID()+"/"+t1.ID(), t1.Path())
	})

	t.Run("Leaf Rejects Children", func(t *testing.T) {
		text := New(TypeText)
		err := text.AppendChild(New(TypeImage))
		assert.ErrorIs(t, err, ErrLeafContainer)
	})

	t.Run("Nil Child", func(t *testing.T) {
		assert.ErrorIs(t, New(TypeContainer).AppendChild(nil), ErrNilChild)
	})

	t.Run("Cycle", func(t *testing.T) {
		a := New(TypeContainer)
		b := New(TypeContainer)
		c := New(TypeContainer)
		require.NoError(t, a.AppendChild(b))
		require.NoError(t, b.AppendChild(c))

		assert.ErrorIs(t, c.AppendChild(a), ErrCycle)
		assert.ErrorIs(t, a.AppendChild(a), ErrCycle)
		assert.Same(t, a, b.Parent(), "failed insert must not re-parent")
	})

	t.Run("Re-parent Detaches From Old Owner", func(t *testing.T) {
		a := New(TypeContainer)
		b := New(TypeContainer)
		child := New(TypeText)
		require.NoError(t, a.AppendChild(child))
		require.NoError(t, b.AppendChild(child))

		assert.Equal(t, 0, a.ChildCount())
		assert.Equal(t, 1, b.ChildCount())
		assert.Same(t, b, child.Parent())
	})

	t.Run("Index Clamping", func(t *testing.T) {
		p := New(TypeContainer)
		first := New(TypeText)
		last := New(TypeText)
		front := New(TypeText)
		require.NoError(t, p.InsertChild(first, 99))
		require.NoError(t, p.InsertChild(last, -1))
		require.NoError(t, p.InsertChild(front, 0))

		assert.Equal(t, []string{front.ID(), first.ID(), last.ID()}, ids(p.Children()))
	})

	t.Run("Touches UpdatedAt", func(t *testing.T) {
		p := New(TypeContainer)
		before := p.UpdatedAt()
		require.NoError(t, p.AppendChild(New(TypeText)))
		assert.True(t, p.UpdatedAt().After(before))
	})
}

func TestContainer_RemoveChild(t *testing.T) {
	p := New(TypeContainer)
	a, b, c := New(TypeText), New(TypeText), New(TypeText)
	for _, n := range []*Container{a, b, c} {
		require.NoError(t, p.AppendChild(n))
	}

	removed := p.RemoveChild(b.ID())
	assert.Same(t, b, removed)
	assert.Nil(t, b.Parent())
	assert.Equal(t, []string{a.ID(), c.ID()}, ids(p.Children()))

	assert.Nil(t, p.RemoveChild("missing"))
}

func TestContainer_MoveChild(t *testing.T) {
	p := New(TypeContainer)
	a, b, c := New(TypeText), New(TypeText), New(TypeText)
	for _, n := range []*Container{a, b, c} {
		require.NoError(t, p.AppendChild(n))
	}

	assert.True(t, p.MoveChild(a.ID(), 2))
	assert.Equal(t, []string{b.ID(), c.ID(), a.ID()}, ids(p.Children()))

	assert.True(t, p.MoveChild(a.ID(), 2), "same index is a no-op")
	assert.Equal(t, []string{b.ID(), c.ID(), a.ID()}, ids(p.Children()))

	assert.True(t, p.MoveChild(a.ID(), 0))
	assert.Equal(t, []string{a.ID(), b.ID(), c.ID()}, ids(p.Children()))

	assert.False(t, p.MoveChild(a.ID(), 3))
	assert.False(t, p.MoveChild(a.ID(), -1))
	assert.False(t, p.MoveChild("missing", 0))
}

func TestContainer_Queries(t *testing.T) {
	root := New(TypeContainer)
	section := New(TypeContainer)
	text := New(TypeText)
	image := New(TypeImage)
	require.NoError(t, root.AppendChild(section))
	require.NoError(t, section.AppendChild(text))
	require.NoError(t, root.AppendChild(image))

	assert.Same(t, root, root.FindByID(root.ID()))
	assert.Same(t, text, root.FindByID(text.ID()))
	assert.Nil(t, section.FindByID(image.ID()))

	assert.Equal(t, []string{root.ID(), section.ID()}, ids(root.FindByType(TypeContainer)))
	assert.Equal(t, []string{section.ID(), text.ID(), image.ID()}, ids(root.AllChildren()))
	assert.Equal(t, []string{section.ID(), root.ID()}, ids(text.Ancestors()))
	assert.Same(t, root, text.Root())

	assert.True(t, root.IsAncestorOf(text))
	assert.False(t, text.IsAncestorOf(root))
	assert.True(t, text.IsDescendantOf(section))
	assert.False(t, image.IsDescendantOf(section))
}

func TestContainer_Destroy(t *testing.T) {
	root := New(TypeContainer)
	section := New(TypeContainer)
	text := New(TypeText)
	require.NoError(t, root.AppendChild(section))
	require.NoError(t, section.AppendChild(text))

	var order []string
	section.OnDestroy(func(c *Container) { order = append(order, "section") })
	text.OnDestroy(func(c *Container) { order = append(order, "text") })
	cancel := text.OnDestroy(func(c *Container) { order = append(order, "cancelled") })
	cancel()

	section.Destroy()
	section.Destroy()

	assert.Equal(t, []string{"text", "section"}, order, "children first, listeners once")
	assert.True(t, section.IsDestroyed())
	assert.True(t, text.IsDestroyed())
	assert.Equal(t, 0, root.ChildCount())
	assert.ErrorIs(t, root.AppendChild(section), ErrDestroyed)
}

func TestContainer_Clone(t *testing.T) {
	src := New(TypeContainer, WithLabel("Hero"), WithProps(NewProps(map[string]any{
		"tags": []any{"a", "b"},
	})))
	child := New(TypeText, WithLabel("Title"))
	require.NoError(t, src.AppendChild(child))

	dup := src.Clone(WithPropsOverride(map[string]any{"color": "red"}))

	assert.NotEqual(t, src.ID(), dup.ID())
	assert.Equal(t, "Hero (Copy)", dup.Label())
	assert.Nil(t, dup.Parent())
	require.Equal(t, 1, dup.ChildCount())
	assert.NotEqual(t, child.ID(), dup.ChildAt(0).ID())
	assert.Equal(t, "Title", dup.ChildAt(0).Label(), "only the root gets the suffix")

	color, _ := dup.Prop("color")
	assert.Equal(t, "red", color)
	_, ok := src.Prop("color")
	assert.False(t, ok)

	tags, _ := dup.Prop("tags")
	tags.([]any)[0] = "changed"
	orig, _ := src.Prop("tags")
	assert.Equal(t, "a", orig.([]any)[0], "nested values are not shared")

	assert.Equal(t, "text (Copy)", New(TypeText).Clone().Label())
}

func ids(nodes []*Container) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}
