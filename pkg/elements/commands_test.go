package elements

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/hooks"
	"github.com/aretw0/canopy/pkg/instances"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine *command.Engine
	ws     *Workspace
	hooks  *hooks.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hm := hooks.NewManager()
	ws := NewWorkspace(registry.NewDefault(), instances.NewTracker(), hm)
	engine := command.NewEngine()
	RegisterAll(engine, ws)
	return &fixture{engine: engine, ws: ws, hooks: hm}
}

func (f *fixture) run(t *testing.T, name string, args command.Args) any {
	t.Helper()
	res, err := f.engine.Run(context.Background(), name, args)
	require.NoError(t, err)
	return res
}

func (f *fixture) create(t *testing.T, typ, parentID string) *domain.Container {
	t.Helper()
	args := command.Args{"type": typ}
	if parentID != "" {
		args["parentId"] = parentID
	}
	return f.run(t, CommandCreate, args).(*domain.Container)
}

func (f *fixture) record(tag string) *[]any {
	var got []any
	f.hooks.AddAction(tag, func(ctx context.Context, args ...any) error {
		got = append(got, args...)
		return nil
	})
	return &got
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	created := f.record(hooks.ActionElementCreated)

	c1 := f.create(t, domain.TypeContainer, "")
	assert.False(t, c1.HasChildren())

	t1 := f.create(t, domain.TypeText, "")
	require.NoError(t, c1.AppendChild(t1))
	assert.True(t, c1.HasChildren())
	assert.Same(t, c1, t1.Parent())

	nested := f.run(t, CommandCreate, command.Args{
		"type": domain.TypeButton, "parentId": c1.ID(), "index": 0,
		"props": map[string]any{"text": "Buy"}, "label": "CTA",
	}).(*domain.Container)
	assert.Same(t, nested, c1.ChildAt(0))
	assert.Equal(t, "CTA", nested.Label())
	text, _ := nested.Prop("text")
	assert.Equal(t, "Buy", text)

	assert.Len(t, *created, 3)
	assert.Equal(t, 3, f.ws.Tracker().Len())

	t.Run("Rejections", func(t *testing.T) {
		_, err := f.engine.Run(context.Background(), CommandCreate, command.Args{"type": "nope"})
		assert.ErrorIs(t, err, command.ErrValidation)

		_, err = f.engine.Run(context.Background(), CommandCreate, command.Args{"type": "text", "parentId": t1.ID()})
		assert.ErrorIs(t, err, command.ErrPrecondition, "text is a leaf")
	})

	t.Run("Creation Filter Veto", func(t *testing.T) {
		h := f.hooks.AddFilter(hooks.FilterValidateElementCreation, func(ctx context.Context, v any, args ...any) (any, error) {
			return args[0] != domain.TypeImage, nil
		})
		defer f.hooks.Remove(h)

		_, err := f.engine.Run(context.Background(), CommandCreate, command.Args{"type": domain.TypeImage})
		assert.ErrorIs(t, err, ErrCreationRejected)
		assert.ErrorIs(t, err, command.ErrExecution)

		f.create(t, domain.TypeText, "")
	})
}

func TestMove(t *testing.T) {
	f := newFixture(t)
	moved := f.record(hooks.ActionElementMoved)

	root := f.create(t, domain.TypeContainer, "")
	a := f.create(t, domain.TypeContainer, root.ID())
	b := f.create(t, domain.TypeContainer, root.ID())
	text := f.create(t, domain.TypeText, a.ID())

	f.run(t, CommandMove, command.Args{"id": text.ID(), "parentId": b.ID()})
	assert.Same(t, b, text.Parent())
	assert.Equal(t, 0, a.ChildCount(), "single ownership")
	require.Len(t, *moved, 1)
	ev := (*moved)[0].(MoveEvent)
	assert.Equal(t, a.ID(), ev.FromParentID)
	assert.Equal(t, b.ID(), ev.ToParentID)

	t.Run("Reorder Within Parent", func(t *testing.T) {
		f.run(t, CommandMove, command.Args{"id": a.ID(), "parentId": root.ID(), "index": 1})
		assert.Equal(t, []*domain.Container{b, a}, root.Children())

		f.run(t, CommandMove, command.Args{"id": a.ID(), "parentId": root.ID(), "index": 99})
		assert.Equal(t, []*domain.Container{b, a}, root.Children(), "clamped to the last slot")
	})

	t.Run("Cycle Prevention", func(t *testing.T) {
		_, err := f.engine.Run(context.Background(), CommandMove, command.Args{"id": root.ID(), "parentId": b.ID()})
		assert.ErrorIs(t, err, command.ErrPrecondition)
		_, err = f.engine.Run(context.Background(), CommandMove, command.Args{"id": b.ID(), "parentId": b.ID()})
		assert.ErrorIs(t, err, command.ErrPrecondition)

		for _, n := range root.AllChildren() {
			assert.NotContains(t, n.AllChildren(), n)
		}
		assert.True(t, root.IsRoot())
	})

	t.Run("Into Leaf Or Missing", func(t *testing.T) {
		_, err := f.engine.Run(context.Background(), CommandMove, command.Args{"id": a.ID(), "parentId": text.ID()})
		assert.ErrorIs(t, err, command.ErrPrecondition)
		_, err = f.engine.Run(context.Background(), CommandMove, command.Args{"id": "ghost", "parentId": root.ID()})
		assert.ErrorIs(t, err, command.ErrPrecondition)
		_, err = f.engine.Run(context.Background(), CommandMove, command.Args{"id": a.ID()})
		assert.ErrorIs(t, err, command.ErrValidation)
	})
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	updated := f.record(hooks.ActionElementUpdated)
	text := f.create(t, domain.TypeText, "")

	f.run(t, CommandUpdate, command.Args{
		"id": text.ID(), "props": map[string]any{"content": "Hello"}, "unset": []string{"align"}, "label": "Greeting",
	})
	content, _ := text.Prop("content")
	assert.Equal(t, "Hello", content)
	_, hasAlign := text.Prop("align")
	assert.False(t, hasAlign)
	assert.Equal(t, "Greeting", text.Label())

	require.Len(t, *updated, 2)
	diff := (*updated)[1].(*domain.ElementDiff)
	assert.Equal(t, map[string]any{"content": "Hello", "align": nil}, diff.Props)

	t.Run("Locked", func(t *testing.T) {
		f.run(t, CommandUpdate, command.Args{"id": text.ID(), "locked": true})
		_, err := f.engine.Run(context.Background(), CommandUpdate, command.Args{"id": text.ID(), "label": "x"})
		assert.ErrorIs(t, err, command.ErrPrecondition)
		_, err = f.engine.Run(context.Background(), CommandDestroy, command.Args{"id": text.ID()})
		assert.ErrorIs(t, err, command.ErrPrecondition)

		f.run(t, CommandUpdate, command.Args{"id": text.ID(), "locked": false})
		assert.False(t, text.IsLocked())
	})

	t.Run("No Change No Event", func(t *testing.T) {
		n := len(*updated)
		f.run(t, CommandUpdate, command.Args{"id": text.ID()})
		assert.Len(t, *updated, n)
	})
}

func TestClone(t *testing.T) {
	f := newFixture(t)
	root := f.create(t, domain.TypeContainer, "")
	section := f.create(t, "section", root.ID())
	f.create(t, domain.TypeText, section.ID())
	tail := f.create(t, domain.TypeButton, root.ID())

	dup := f.run(t, CommandClone, command.Args{"id": section.ID(), "props": map[string]any{"padding": "5px"}}).(*domain.Container)

	assert.Equal(t, []*domain.Container{section, dup, tail}, root.Children(), "placed right after the source")
	assert.Equal(t, "section (Copy)", dup.Label())
	assert.True(t, f.ws.Tracker().Has(dup.ChildAt(0).ID()), "clone subtree is tracked")
	padding, _ := dup.Prop("padding")
	assert.Equal(t, "5px", padding)

	rootCopy := f.run(t, CommandClone, command.Args{"id": root.ID()}).(*domain.Container)
	assert.True(t, rootCopy.IsRoot())
	assert.Len(t, f.ws.Tracker().Roots(), 2)
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	destroyed := f.record(hooks.ActionElementDestroyed)
	deselected := f.record(hooks.ActionElementDeselected)

	root := f.create(t, domain.TypeContainer, "")
	section := f.create(t, domain.TypeContainer, root.ID())
	text := f.create(t, domain.TypeText, section.ID())
	f.run(t, CommandSelect, command.Args{"id": text.ID()})

	res := f.run(t, CommandDestroy, command.Args{"id": section.ID()}).(map[string]any)
	assert.Equal(t, 2, res["destroyed"])
	assert.False(t, root.HasChildren())
	assert.False(t, f.ws.Tracker().Has(text.ID()))
	assert.Equal(t, 1, f.ws.Tracker().Len())
	assert.Equal(t, "", f.ws.Selected())
	assert.Equal(t, []any{section.ID(), root.ID()}, *destroyed)
	assert.Equal(t, []any{text.ID()}, *deselected)

	_, err := f.engine.Run(context.Background(), CommandDestroy, command.Args{"id": section.ID()})
	assert.ErrorIs(t, err, command.ErrPrecondition)
}

func TestSelect(t *testing.T) {
	f := newFixture(t)
	selected := f.record(hooks.ActionElementSelected)
	deselected := f.record(hooks.ActionElementDeselected)
	a := f.create(t, domain.TypeText, "")
	b := f.create(t, domain.TypeText, "")

	f.run(t, CommandSelect, command.Args{"id": a.ID()})
	f.run(t, CommandSelect, command.Args{"id": b.ID()})
	assert.False(t, a.IsSelected())
	assert.True(t, b.IsSelected())
	assert.Equal(t, b.ID(), f.ws.Selected())

	f.run(t, CommandSelect, command.Args{})
	assert.False(t, b.IsSelected())
	assert.Len(t, *selected, 2)
	assert.Equal(t, []any{a.ID(), b.ID()}, *deselected)

	_, err := f.engine.Run(context.Background(), CommandSelect, command.Args{"id": "ghost"})
	assert.ErrorIs(t, err, command.ErrPrecondition)
}

func TestCopyPaste(t *testing.T) {
	f := newFixture(t)
	pasted := f.record(hooks.ActionElementPasted)

	_, err := f.engine.Run(context.Background(), CommandPaste, command.Args{})
	assert.ErrorIs(t, err, command.ErrPrecondition, "empty clipboard")

	root := f.create(t, domain.TypeContainer, "")
	section := f.create(t, domain.TypeContainer, root.ID())
	f.create(t, domain.TypeText, section.ID())

	f.run(t, CommandCopy, command.Args{"id": section.ID()})
	first := f.run(t, CommandPaste, command.Args{"parentId": root.ID()}).(*domain.Container)
	second := f.run(t, CommandPaste, command.Args{}).(*domain.Container)

	assert.NotEqual(t, section.ID(), first.ID(), "paste always regenerates ids")
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Same(t, root, first.Parent())
	assert.True(t, second.IsRoot())
	assert.Equal(t, 1, first.ChildCount())
	assert.Equal(t, 7, f.ws.Tracker().Len())
	assert.Len(t, *pasted, 2)
}

func TestPaste_TrackFailureDetaches(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ws.Registry().Register(registry.Descriptor{
		Type:         "stamp",
		Icon:         "stamp",
		Leaf:         true,
		DefaultProps: &domain.Props{},
		Factory: func(desc registry.Descriptor, data domain.ElementData) (*domain.Container, error) {
			data.ID = "stamp-1"
			return domain.FromData(data, domain.WithLeaf(true)), nil
		},
	}))

	root := f.create(t, domain.TypeContainer, "")
	stamp := f.create(t, "stamp", root.ID())
	require.Equal(t, "stamp-1", stamp.ID())
	f.run(t, CommandCopy, command.Args{"id": stamp.ID()})
	tracked := f.ws.Tracker().Len()

	_, err := f.engine.Run(context.Background(), CommandPaste, command.Args{"parentId": root.ID()})
	assert.ErrorIs(t, err, instances.ErrIDCollision)
	assert.Equal(t, 1, root.ChildCount())
	assert.Equal(t, tracked, f.ws.Tracker().Len())
	assert.Same(t, stamp, f.ws.Tracker().Get("stamp-1"))
}

func TestWorkspace_ReplaceAndImport(t *testing.T) {
	f := newFixture(t)
	old := f.create(t, domain.TypeContainer, "")

	data := []domain.ElementData{{ID: "page", Type: "section", Children: []domain.ElementData{{ID: "title", Type: "heading"}}}}
	roots, err := f.ws.Replace(data, false)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	assert.True(t, old.IsDestroyed())
	assert.Equal(t, "page", f.ws.Element("page").ID())
	assert.True(t, f.ws.IsDescendant("title", "page"))
	level, _ := f.ws.Element("title").Prop("level")
	assert.Equal(t, 2, level, "registry defaults apply on load")

	imported, err := f.ws.Import(data)
	require.NoError(t, err)
	assert.NotEqual(t, "page", imported[0].ID())
	assert.Len(t, f.ws.Snapshot(), 2)

	_, err = f.ws.Replace([]domain.ElementData{{ID: "x", Type: "section"}, {ID: "x", Type: "section"}}, false)
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	assert.Len(t, f.ws.Snapshot(), 2, "failed loads change nothing")
}
