package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDocument(id string) *domain.Document {
	doc := domain.NewDocument("contract")
	doc.ID = id
	doc.Settings.Set("title", "Landing")

	root := domain.New(domain.TypeContainer, domain.WithID(id+"-root"))
	root.SetProp("padding", "10px")
	root.SetProp("align", "center")
	_ = root.AppendChild(domain.New(domain.TypeText, domain.WithID(id+"-text")))
	doc.Elements = append(doc.Elements, root.ToJSON())
	return doc
}

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument(docID)

		err := store.Save(ctx, docID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, docID, loaded.ID)
		assert.Equal(t, doc.Version, loaded.Version)
		title, _ := loaded.Settings.Get("title")
		assert.Equal(t, "Landing", title)

		require.Len(t, loaded.Elements, 1)
		root := loaded.Elements[0]
		assert.Equal(t, docID+"-root", root.ID)
		assert.Equal(t, []string{"padding", "align"}, root.Props.Keys(), "prop order survives persistence")
		require.Len(t, root.Children, 1)
		assert.Equal(t, docID+"-text", root.Children[0].ID)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		doc := contractDocument(docID)
		doc.Elements = nil
		require.NoError(t, store.Save(ctx, docID, doc))

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Elements)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, docID, contractDocument(docID))
		require.NoError(t, err)

		err = store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, docID), "deleting twice is fine")
	})

	t.Run("List", func(t *testing.T) {
		id1 := docID + "-1"
		id2 := docID + "-2"
		_ = store.Save(ctx, id1, contractDocument(id1))
		_ = store.Save(ctx, id2, contractDocument(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		docs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, docs, id1)
		assert.Contains(t, docs, id2)
	})
}
