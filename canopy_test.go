package canopy_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/collision"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/hooks"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_CreateAndAppend(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()

	root, err := b.CreateElement(ctx, domain.TypeContainer, nil, "")
	require.NoError(t, err)
	child, err := b.CreateElement(ctx, domain.TypeText, map[string]any{"content": "Hi"}, root.ID())
	require.NoError(t, err)

	assert.Equal(t, 1, root.ChildCount())
	assert.Same(t, root, child.Parent())
	content, _ := child.Prop("content")
	assert.Equal(t, "Hi", content)
	align, _ := child.Prop("align")
	assert.Equal(t, "left", align, "type defaults fill in missing props")

	assert.Same(t, child, b.Element(child.ID()))
	assert.Equal(t, 2, b.Tracker().Len())
}

func TestBuilder_CreateUnderLeafFails(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()

	text, err := b.CreateElement(ctx, domain.TypeText, nil, "")
	require.NoError(t, err)

	_, err = b.CreateElement(ctx, domain.TypeText, nil, text.ID())
	assert.ErrorIs(t, err, command.ErrPrecondition)
}

func TestBuilder_Ping(t *testing.T) {
	b := canopy.New()

	res, err := b.Run(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"pong": true, "args": command.Args{}}, res)

	history := b.History(command.HistoryFilter{})
	require.Len(t, history, 1)
	assert.True(t, history[0].Success)
	assert.Equal(t, "ping", history[0].Command)
}

func TestBuilder_MoveElementRefusesCycles(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()

	outer, err := b.CreateElement(ctx, domain.TypeContainer, nil, "")
	require.NoError(t, err)
	inner, err := b.CreateElement(ctx, domain.TypeContainer, nil, outer.ID())
	require.NoError(t, err)

	err = b.MoveElement(ctx, outer.ID(), inner.ID(), -1)
	assert.ErrorIs(t, err, command.ErrPrecondition)
	assert.Same(t, outer, inner.Parent(), "tree unchanged after refused move")
}

func TestBuilder_AvailableElementsFilter(t *testing.T) {
	hm := hooks.NewManager()
	hm.AddFilter(hooks.FilterAvailableElements, func(ctx context.Context, value any, args ...any) (any, error) {
		var out []registry.Descriptor
		for _, d := range value.([]registry.Descriptor) {
			if d.Type != domain.TypeImage {
				out = append(out, d)
			}
		}
		return out, nil
	})

	b := canopy.New(canopy.WithHooks(hm))
	available := b.AvailableElements(context.Background())

	assert.Len(t, available, len(registry.Builtins())-1)
	for _, d := range available {
		assert.NotEqual(t, domain.TypeImage, d.Type)
	}
}

func TestBuilder_InitializedAction(t *testing.T) {
	hm := hooks.NewManager()
	var got *canopy.Builder
	hm.AddAction(hooks.ActionInitialized, func(ctx context.Context, args ...any) error {
		got = args[0].(*canopy.Builder)
		return nil
	})

	b := canopy.New(canopy.WithHooks(hm))
	assert.Same(t, b, got)
}

func buildPage(t *testing.T, b *canopy.Builder) (root, text *domain.Container) {
	t.Helper()
	ctx := context.Background()
	root, err := b.CreateElement(ctx, domain.TypeContainer, map[string]any{"padding": "8px"}, "")
	require.NoError(t, err)
	text, err = b.CreateElement(ctx, domain.TypeText, map[string]any{"content": "Hello"}, root.ID())
	require.NoError(t, err)
	_, err = b.CreateElement(ctx, domain.TypeButton, nil, root.ID())
	require.NoError(t, err)
	return root, text
}

func TestBuilder_SerializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := canopy.New()
	buildPage(t, src)
	src.UpdateSettings(map[string]any{"title": "Home"})
	doc := src.Serialize()

	dst := canopy.New()
	loaded := 0
	dst.Hooks().AddAction(hooks.ActionDocumentLoaded, func(ctx context.Context, args ...any) error {
		loaded++
		return nil
	})
	require.NoError(t, dst.Deserialize(ctx, doc))

	assert.Equal(t, 1, loaded)
	assert.Equal(t, src.DocumentID(), dst.DocumentID())

	want, err := json.Marshal(doc)
	require.NoError(t, err)
	got, err := json.Marshal(dst.Serialize())
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestBuilder_DeserializeInvalidKeepsDocument(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()
	root, _ := buildPage(t, b)

	bad := &domain.Document{Elements: []domain.ElementData{{ID: "x"}}}
	err := b.Deserialize(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidElement)
	assert.NotNil(t, b.Element(root.ID()))
}

func TestBuilder_ImportElementsRegeneratesIDs(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()
	root, _ := buildPage(t, b)

	roots, err := b.ImportElements(ctx, []domain.ElementData{root.ToJSON()})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.NotEqual(t, root.ID(), roots[0].ID())
	assert.Equal(t, 6, b.Tracker().Len())
}

func TestBuilder_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	src := canopy.New(canopy.WithStore(store), canopy.WithDocumentID("landing"))
	_, text := buildPage(t, src)

	saved := 0
	src.Hooks().AddAction(hooks.ActionDocumentSaved, func(ctx context.Context, args ...any) error {
		saved++
		return nil
	})
	require.NoError(t, src.Save(ctx))
	assert.Equal(t, 1, saved)

	dst := canopy.New(canopy.WithStore(store))
	require.NoError(t, dst.Load(ctx, "landing"))
	assert.Equal(t, "landing", dst.DocumentID())
	require.NotNil(t, dst.Element(text.ID()))
	content, _ := dst.Element(text.ID()).Prop("content")
	assert.Equal(t, "Hello", content)

	assert.ErrorIs(t, dst.Load(ctx, "missing"), domain.ErrDocumentNotFound)
}

func TestBuilder_SaveWithoutStore(t *testing.T) {
	b := canopy.New()
	assert.ErrorIs(t, b.Save(context.Background()), canopy.ErrNoStore)
	assert.True(t, errors.Is(b.Load(context.Background(), "x"), canopy.ErrNoStore))
}

func TestBuilder_DropIntoContainer(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()
	root, text := buildPage(t, b)
	target, err := b.CreateElement(ctx, domain.TypeContainer, nil, "")
	require.NoError(t, err)

	active := collision.Rect{X: 0, Y: 0, Width: 100, Height: 100}
	candidates := []collision.Candidate{
		{ID: root.ID(), Rect: collision.Rect{X: 500, Y: 500, Width: 100, Height: 100}, Alive: true, IsContainer: true},
		{ID: target.ID(), Rect: active, Alive: true, IsContainer: true},
	}

	res, err := b.Drop(ctx, text.ID(), active, candidates)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, collision.AlgorithmIntersection, res.Algorithm)
	assert.Same(t, target, text.Parent())

	history := b.History(command.HistoryFilter{Command: "elements/move"})
	require.Len(t, history, 1)
	assert.Equal(t, "drop", history[0].Options.Source)
}

func TestBuilder_DropAfterLeaf(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()
	root, text := buildPage(t, b)
	button := root.ChildAt(1)

	// Drag the text onto the button: it lands right after it.
	active := collision.Rect{X: 0, Y: 0, Width: 50, Height: 50}
	candidates := []collision.Candidate{
		{ID: button.ID(), Rect: active, Alive: true, ParentID: root.ID()},
	}
	_, err := b.Drop(ctx, text.ID(), active, candidates)
	require.NoError(t, err)

	assert.Equal(t, []string{button.ID(), text.ID()}, []string{root.ChildAt(0).ID(), root.ChildAt(1).ID()})
}

func TestBuilder_DropNeverTargetsOwnSubtree(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()
	outer, err := b.CreateElement(ctx, domain.TypeContainer, nil, "")
	require.NoError(t, err)
	inner, err := b.CreateElement(ctx, domain.TypeContainer, nil, outer.ID())
	require.NoError(t, err)

	active := collision.Rect{Width: 10, Height: 10}
	candidates := []collision.Candidate{
		{ID: outer.ID(), Rect: active, Alive: true, IsContainer: true},
		{ID: inner.ID(), Rect: active, Alive: true, IsContainer: true},
	}

	res, err := b.Drop(ctx, outer.ID(), active, candidates)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, b.History(command.HistoryFilter{Command: "elements/move"}), "no command without a target")
}

func TestBuilder_DropFromProvider(t *testing.T) {
	ctx := context.Background()
	b := canopy.New()
	_, text := buildPage(t, b)
	target, err := b.CreateElement(ctx, domain.TypeContainer, nil, "")
	require.NoError(t, err)

	active := collision.Rect{Width: 10, Height: 10}
	provider := collision.Static{{ID: target.ID(), Rect: active, Alive: true, IsContainer: true}}
	_, err = b.DropFrom(ctx, provider, text.ID(), active)
	require.NoError(t, err)
	assert.Same(t, target, text.Parent())

	failing := collision.ProviderFunc(func(ctx context.Context) ([]collision.Candidate, error) {
		return nil, errors.New("layout unavailable")
	})
	_, err = b.DropFrom(ctx, failing, text.ID(), active)
	assert.Error(t, err)
}

func TestBuilder_Metrics(t *testing.T) {
	m := observability.NewMetrics()
	b := canopy.New(canopy.WithMetrics(m))

	_, err := b.Run(context.Background(), "ping", nil)
	require.NoError(t, err)
	b.ResolveDrop("x", collision.Rect{Width: 1, Height: 1}, nil)

	assert.Equal(t, 1, seriesCount(t, m, "canopy_commands_total"))
	assert.Equal(t, 1, seriesCount(t, m, "canopy_drop_resolutions_total"))
	assert.GreaterOrEqual(t, seriesCount(t, m, "canopy_hook_actions_total"), 1,
		"the initialized action is observed")
}

func seriesCount(t *testing.T, m *observability.Metrics, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(m.Registry(), name)
	require.NoError(t, err)
	return n
}
