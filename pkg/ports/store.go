package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// DocumentStore defines the interface for persisting documents.
// The builder core never depends on a concrete backend.
type DocumentStore interface {
	// Save persists the document under the given ID, replacing any previous version.
	Save(ctx context.Context, id string, doc *domain.Document) error

	// Load retrieves the document for a given ID.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored documents.
	List(ctx context.Context) ([]string, error)
}
