package canopy

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/collision"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/elements"
	"github.com/aretw0/canopy/pkg/instances"
)

// ResolveDrop picks the drop target for draggedID at active, or nil.
// The dragged element, its descendants and dead candidates are never chosen.
func (b *Builder) ResolveDrop(draggedID string, active collision.Rect, candidates []collision.Candidate) *collision.Result {
	eligible := collision.Filter(candidates, draggedID, func(id string) bool {
		return b.workspace.IsDescendant(id, draggedID)
	})
	res := b.detector.Detect(active, eligible)
	if b.metrics != nil {
		algorithm := ""
		if res != nil {
			algorithm = res.Algorithm
		}
		b.metrics.ObserveDrop(algorithm)
	}
	return res
}

// DebugDrop runs every algorithm over the eligible candidates.
func (b *Builder) DebugDrop(draggedID string, active collision.Rect, candidates []collision.Candidate) collision.DebugInfo {
	eligible := collision.Filter(candidates, draggedID, func(id string) bool {
		return b.workspace.IsDescendant(id, draggedID)
	})
	return b.detector.Debug(active, eligible)
}

// Drop resolves the target and moves draggedID there.
// A container target receives the element as its last child; a leaf target with a
// parent gets the element right after it. Without a target nothing runs and the
// result is nil.
func (b *Builder) Drop(ctx context.Context, draggedID string, active collision.Rect, candidates []collision.Candidate) (*collision.Result, error) {
	res := b.ResolveDrop(draggedID, active, candidates)
	if res == nil {
		return nil, nil
	}

	args, ok := b.dropArgs(draggedID, res.Candidate)
	if !ok {
		return res, nil
	}
	if _, err := b.Run(ctx, elements.CommandMove, args, command.Source("drop")); err != nil {
		return res, err
	}
	return res, nil
}

// DropFrom pulls candidates from provider and calls Drop.
func (b *Builder) DropFrom(ctx context.Context, provider collision.Provider, draggedID string, active collision.Rect) (*collision.Result, error) {
	candidates, err := provider.Candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect drop candidates: %w", err)
	}
	return b.Drop(ctx, draggedID, active, candidates)
}

func (b *Builder) dropArgs(draggedID string, target collision.Candidate) (command.Args, bool) {
	if target.IsContainer {
		return command.Args{"id": draggedID, "parentId": target.ID}, true
	}
	if target.ParentID == "" {
		return nil, false
	}

	var args command.Args
	b.workspace.View(func(t *instances.Tracker) {
		parent, dragged := t.Get(target.ParentID), t.Get(draggedID)
		if parent == nil || dragged == nil {
			return
		}
		at := parent.IndexOf(target.ID)
		if at < 0 {
			return
		}
		index := at + 1
		// Within the same parent, removing the dragged node first shifts the target left.
		if from := parent.IndexOf(draggedID); from >= 0 && from < at {
			index = at
		}
		args = command.Args{"id": draggedID, "parentId": target.ParentID, "index": index}
	})
	return args, args != nil
}
