package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/collision"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/registry"
)

// Builder is the surface that driving adapters (HTTP, MCP, CLI) need from the facade.
type Builder interface {
	// Run executes a named command.
	Run(ctx context.Context, name string, args command.Args, opts ...command.RunOption) (any, error)

	// Serialize exports the current document.
	Serialize() *domain.Document

	// Deserialize replaces the current document, keeping element ids.
	Deserialize(ctx context.Context, doc *domain.Document) error

	// ElementData serializes a live element and its subtree.
	ElementData(id string) (domain.ElementData, bool)

	// AvailableElements lists the element types offered to the user, after filters.
	AvailableElements(ctx context.Context) []registry.Descriptor

	// History returns recorded command executions.
	History(filter command.HistoryFilter) []command.Execution

	// Stats summarizes the command history.
	Stats() command.Stats

	// DebugDrop runs every collision algorithm for a drag gesture.
	DebugDrop(draggedID string, active collision.Rect, candidates []collision.Candidate) collision.DebugInfo

	// ResolveDrop picks the drop target for a drag gesture, or nil.
	ResolveDrop(draggedID string, active collision.Rect, candidates []collision.Candidate) *collision.Result
}
