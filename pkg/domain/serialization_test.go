package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Container {
	t.Helper()
	root := New(TypeContainer, WithLabel("Page"))
	root.SetProp("padding", "10px")
	root.SetProp("align", "center")
	section := New(TypeContainer)
	text := New(TypeText, WithProps(NewProps(map[string]any{"content": "Hello"})))
	require.NoError(t, root.AppendChild(section))
	require.NoError(t, section.AppendChild(text))
	require.NoError(t, root.AppendChild(New(TypeButton)))
	return root
}

func TestSerialization_RoundTrip(t *testing.T) {
	root := sampleTree(t)
	root.SetVisible(false)

	raw, err := json.Marshal(root.ToJSON())
	require.NoError(t, err)

	var data ElementData
	require.NoError(t, json.Unmarshal(raw, &data))

	restored, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, root.ID(), restored.ID(), "ids are kept by default")
	assert.Equal(t, root.Type(), restored.Type())
	assert.Equal(t, []string{"padding", "align"}, restored.Props().Keys(), "key order survives")
	assert.False(t, restored.IsVisible())
	assert.True(t, restored.UpdatedAt().Equal(root.UpdatedAt()))
	assert.Equal(t, ids(root.AllChildren()), ids(restored.AllChildren()))

	text := restored.FindByType(TypeText)[0]
	content, _ := text.Prop("content")
	assert.Equal(t, "Hello", content)
}

func TestSerialization_FreshIDs(t *testing.T) {
	root := sampleTree(t)

	restored, err := FromJSON(root.ToJSON(), WithFreshIDs())
	require.NoError(t, err)

	assert.NotEqual(t, root.ID(), restored.ID())
	for _, n := range restored.AllChildren() {
		assert.Nil(t, root.FindByID(n.ID()))
	}
	assert.Equal(t, len(root.AllChildren()), len(restored.AllChildren()))
}

func TestSerialization_Rejects(t *testing.T) {
	t.Run("Duplicate IDs", func(t *testing.T) {
		data := ElementData{ID: "a", Type: TypeContainer, Children: []ElementData{
			{ID: "b", Type: TypeText},
			{ID: "b", Type: TypeText},
		}}
		_, err := FromJSON(data)
		assert.ErrorIs(t, err, ErrDuplicateID)

		_, err = FromJSON(data, WithFreshIDs())
		assert.NoError(t, err, "fresh ids resolve collisions")
	})

	t.Run("Leaf With Children", func(t *testing.T) {
		data := ElementData{ID: "a", Type: TypeText, Children: []ElementData{{Type: TypeText}}}
		_, err := FromJSON(data)
		assert.ErrorIs(t, err, ErrLeafContainer)
	})

	t.Run("Missing Type", func(t *testing.T) {
		_, err := FromJSON(ElementData{ID: "a"})
		assert.ErrorIs(t, err, ErrInvalidElement)
	})
}

func TestElementData_VisibleByDefault(t *testing.T) {
	var data ElementData
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"text"}`), &data))
	assert.True(t, data.IsVisible)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","type":"text","isVisible":false}`), &data))
	assert.False(t, data.IsVisible)
}

func TestContainer_AppendData(t *testing.T) {
	root := New(TypeContainer)
	child, err := root.AppendData(ElementData{Type: TypeContainer, Children: []ElementData{{Type: TypeText}}}, 0)
	require.NoError(t, err)

	assert.Same(t, root, child.Parent())
	assert.NotEmpty(t, child.ID())
	assert.Equal(t, 2, len(root.AllChildren()))

	_, err = New(TypeImage).AppendData(ElementData{Type: TypeText}, 0)
	assert.ErrorIs(t, err, ErrLeafContainer)
}

func TestDocument_Count(t *testing.T) {
	doc := NewDocument("test")
	doc.Elements = append(doc.Elements, sampleTree(t).ToJSON(), New(TypeText).ToJSON())

	assert.Equal(t, DocumentVersion, doc.Version)
	assert.Equal(t, 5, doc.Count())
}
