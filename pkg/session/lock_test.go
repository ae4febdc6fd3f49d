package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, id string, doc *domain.Document) error { return nil }
func (nopStore) Load(ctx context.Context, id string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}
func (nopStore) Delete(ctx context.Context, id string) error  { return nil }
func (nopStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("doc-%d", i)
		_ = mgr.Save(ctx, id, &domain.Document{})
		_ = mgr.Delete(ctx, id)
	}

	assert.Empty(t, mgr.locks, "locks must be released once no caller holds them")
}
