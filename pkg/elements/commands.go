package elements

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/command"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/hooks"
)

// Command names.
const (
	CommandCreate  = "elements/create"
	CommandUpdate  = "elements/update"
	CommandMove    = "elements/move"
	CommandClone   = "elements/clone"
	CommandDestroy = "elements/destroy"
	CommandSelect  = "editor/select"
	CommandCopy    = "editor/copy"
	CommandPaste   = "editor/paste"
)

// MoveEvent is the payload of the element-moved action.
type MoveEvent struct {
	Element      *domain.Container
	FromParentID string
	ToParentID   string
	Index        int
}

// RegisterAll registers every element and editor command on engine.
func RegisterAll(engine *command.Engine, ws *Workspace) {
	engine.Register(CommandCreate, &createCommand{ws})
	engine.Register(CommandUpdate, &updateCommand{ws})
	engine.Register(CommandMove, &moveCommand{ws})
	engine.Register(CommandClone, &cloneCommand{ws})
	engine.Register(CommandDestroy, &destroyCommand{ws})
	engine.Register(CommandSelect, &selectCommand{ws})
	engine.Register(CommandCopy, &copyCommand{ws})
	engine.Register(CommandPaste, &pasteCommand{ws})
}

// exists reports whether id is tracked and alive.
func (w *Workspace) exists(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.lookup(id)
	return err == nil
}

func (w *Workspace) acceptsChildren(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.lookupParent(id)
	return err == nil
}

// --- elements/create ---

type createCommand struct{ ws *Workspace }

func (c *createCommand) Description() string { return "Create an element from its type template" }

func (c *createCommand) ValidateArgs(args command.Args) error {
	a, err := command.Decode[CreateArgs](args)
	if err != nil {
		return err
	}
	if !c.ws.registry.Has(a.Type) {
		return fmt.Errorf("unknown element type %q", a.Type)
	}
	return nil
}

func (c *createCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[CreateArgs](args)
	return a.ParentID == "" || c.ws.acceptsChildren(a.ParentID)
}

func (c *createCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[CreateArgs](args)
	if err != nil {
		return nil, err
	}

	allowed := c.ws.hooks.ApplyFilters(ctx, hooks.FilterValidateElementCreation, true, a.Type, a.Props, a.ParentID)
	if ok, isBool := allowed.(bool); isBool && !ok {
		return nil, fmt.Errorf("%w: %s", ErrCreationRejected, a.Type)
	}

	node, err := c.ws.registry.CreateElement(a.Type, a.Props)
	if err != nil {
		return nil, err
	}
	if a.Label != "" {
		node.SetLabel(a.Label)
	}
	if a.Settings != nil {
		node.UpdateSettings(a.Settings)
	}

	c.ws.mu.Lock()
	err = func() error {
		parent, err := c.ws.lookupParent(a.ParentID)
		if err != nil {
			return err
		}
		if err := c.ws.tracker.Track(node); err != nil {
			return err
		}
		if parent != nil {
			if err := parent.InsertChild(node, indexOr(a.Index, -1)); err != nil {
				c.ws.tracker.Untrack(node.ID())
				return err
			}
		}
		return nil
	}()
	c.ws.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.ws.emit(ctx, hooks.ActionElementCreated, node)
	return node, nil
}

// --- elements/update ---

type updateCommand struct{ ws *Workspace }

func (c *updateCommand) Description() string { return "Update element props, settings, label or flags" }

func (c *updateCommand) ValidateArgs(args command.Args) error {
	return command.Validator[UpdateArgs]()(args)
}

// CanExecute refuses locked elements unless the update unlocks them.
func (c *updateCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[UpdateArgs](args)
	c.ws.mu.Lock()
	defer c.ws.mu.Unlock()
	node, err := c.ws.lookup(a.ID)
	if err != nil {
		return false
	}
	return !node.IsLocked() || (a.Locked != nil && !*a.Locked)
}

func (c *updateCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[UpdateArgs](args)
	if err != nil {
		return nil, err
	}

	c.ws.mu.Lock()
	node, err := c.ws.lookup(a.ID)
	if err != nil {
		c.ws.mu.Unlock()
		return nil, err
	}
	before := node.ToJSON()
	if a.Locked != nil {
		node.SetLocked(*a.Locked)
	}
	if a.Props != nil {
		node.UpdateProps(a.Props)
	}
	if len(a.Unset) > 0 {
		for _, key := range a.Unset {
			node.Props().Delete(key)
		}
		node.Touch()
	}
	if a.Settings != nil {
		node.UpdateSettings(a.Settings)
	}
	if a.Label != nil {
		node.SetLabel(*a.Label)
	}
	if a.Visible != nil {
		node.SetVisible(*a.Visible)
	}
	after := node.ToJSON()
	c.ws.mu.Unlock()

	if diff := domain.Diff(&before, &after); diff != nil {
		c.ws.emit(ctx, hooks.ActionElementUpdated, node, diff)
	}
	return node, nil
}

// --- elements/move ---

type moveCommand struct{ ws *Workspace }

func (c *moveCommand) Description() string { return "Move an element into a container at an index" }

func (c *moveCommand) ValidateArgs(args command.Args) error {
	return command.Validator[MoveArgs]()(args)
}

// CanExecute is the single place where moves into the element itself or its
// subtree are refused.
func (c *moveCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[MoveArgs](args)
	c.ws.mu.Lock()
	defer c.ws.mu.Unlock()
	node, err := c.ws.lookup(a.ID)
	if err != nil || node.IsLocked() {
		return false
	}
	target, err := c.ws.lookupParent(a.ParentID)
	if err != nil || target == nil {
		return false
	}
	return target != node && !node.IsAncestorOf(target)
}

func (c *moveCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[MoveArgs](args)
	if err != nil {
		return nil, err
	}

	c.ws.mu.Lock()
	ev, err := c.move(a)
	c.ws.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.ws.emit(ctx, hooks.ActionElementMoved, ev)
	return ev.Element, nil
}

func (c *moveCommand) move(a MoveArgs) (MoveEvent, error) {
	node, err := c.ws.lookup(a.ID)
	if err != nil {
		return MoveEvent{}, err
	}
	target, err := c.ws.lookupParent(a.ParentID)
	if err != nil {
		return MoveEvent{}, err
	}

	ev := MoveEvent{Element: node, ToParentID: target.ID()}
	if p := node.Parent(); p != nil {
		ev.FromParentID = p.ID()
	}

	if node.Parent() == target {
		last := target.ChildCount() - 1
		index := indexOr(a.Index, last)
		if index < 0 || index > last {
			index = last
		}
		target.MoveChild(node.ID(), index)
		ev.Index = index
		return ev, nil
	}

	if err := target.InsertChild(node, indexOr(a.Index, -1)); err != nil {
		return MoveEvent{}, err
	}
	ev.Index = target.IndexOf(node.ID())
	return ev, nil
}

// --- elements/clone ---

type cloneCommand struct{ ws *Workspace }

func (c *cloneCommand) Description() string { return "Duplicate an element and its subtree" }

func (c *cloneCommand) ValidateArgs(args command.Args) error {
	return command.Validator[CloneArgs]()(args)
}

func (c *cloneCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[CloneArgs](args)
	if !c.ws.exists(a.ID) {
		return false
	}
	return a.ParentID == "" || c.ws.acceptsChildren(a.ParentID)
}

func (c *cloneCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[CloneArgs](args)
	if err != nil {
		return nil, err
	}

	c.ws.mu.Lock()
	source, dup, err := func() (*domain.Container, *domain.Container, error) {
		source, err := c.ws.lookup(a.ID)
		if err != nil {
			return nil, nil, err
		}
		dup := source.Clone(domain.WithPropsOverride(a.Props))

		parent := source.Parent()
		index := -1
		if parent != nil {
			index = parent.IndexOf(source.ID()) + 1
		}
		if a.ParentID != "" {
			if parent, err = c.ws.lookupParent(a.ParentID); err != nil {
				return nil, nil, err
			}
			index = indexOr(a.Index, -1)
		}
		if parent != nil {
			if err := parent.InsertChild(dup, index); err != nil {
				return nil, nil, err
			}
		}
		if err := c.ws.tracker.TrackTree(dup); err != nil {
			dup.Destroy()
			return nil, nil, err
		}
		return source, dup, nil
	}()
	c.ws.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.ws.emit(ctx, hooks.ActionElementCloned, dup, source)
	return dup, nil
}

// --- elements/destroy ---

type destroyCommand struct{ ws *Workspace }

func (c *destroyCommand) Description() string { return "Destroy an element and its subtree" }

func (c *destroyCommand) ValidateArgs(args command.Args) error {
	return command.Validator[IDArgs]()(args)
}

func (c *destroyCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[IDArgs](args)
	c.ws.mu.Lock()
	defer c.ws.mu.Unlock()
	node, err := c.ws.lookup(a.ID)
	return err == nil && !node.IsLocked()
}

func (c *destroyCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[IDArgs](args)
	if err != nil {
		return nil, err
	}

	c.ws.mu.Lock()
	node, err := c.ws.lookup(a.ID)
	if err != nil {
		c.ws.mu.Unlock()
		return nil, err
	}
	count := len(node.AllChildren()) + 1
	deselected := ""
	if c.ws.selected != "" {
		if sel := c.ws.tracker.Get(c.ws.selected); sel == node || (sel != nil && node.IsAncestorOf(sel)) {
			deselected = c.ws.selected
			c.ws.selected = ""
		}
	}
	parentID := ""
	if p := node.Parent(); p != nil {
		parentID = p.ID()
	}
	node.Destroy()
	c.ws.mu.Unlock()

	if deselected != "" {
		c.ws.emit(ctx, hooks.ActionElementDeselected, deselected)
	}
	c.ws.emit(ctx, hooks.ActionElementDestroyed, a.ID, parentID)
	return map[string]any{"id": a.ID, "destroyed": count}, nil
}

// --- editor/select ---

type selectCommand struct{ ws *Workspace }

func (c *selectCommand) Description() string { return "Select an element, or clear the selection" }

func (c *selectCommand) ValidateArgs(args command.Args) error {
	return command.Validator[SelectArgs]()(args)
}

func (c *selectCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[SelectArgs](args)
	return a.ID == "" || c.ws.exists(a.ID)
}

func (c *selectCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[SelectArgs](args)
	if err != nil {
		return nil, err
	}

	c.ws.mu.Lock()
	previous := c.ws.selected
	var node *domain.Container
	if a.ID != "" {
		if node, err = c.ws.lookup(a.ID); err != nil {
			c.ws.mu.Unlock()
			return nil, err
		}
	}
	if previous == a.ID {
		c.ws.mu.Unlock()
		return node, nil
	}
	if prev := c.ws.tracker.Get(previous); prev != nil {
		prev.SetSelected(false)
	}
	if node != nil {
		node.SetSelected(true)
	}
	c.ws.selected = a.ID
	c.ws.mu.Unlock()

	if previous != "" {
		c.ws.emit(ctx, hooks.ActionElementDeselected, previous)
	}
	if node != nil {
		c.ws.emit(ctx, hooks.ActionElementSelected, node)
	}
	return node, nil
}

// --- editor/copy ---

type copyCommand struct{ ws *Workspace }

func (c *copyCommand) Description() string { return "Copy an element subtree to the clipboard" }

func (c *copyCommand) ValidateArgs(args command.Args) error {
	return command.Validator[IDArgs]()(args)
}

func (c *copyCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[IDArgs](args)
	return c.ws.exists(a.ID)
}

func (c *copyCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[IDArgs](args)
	if err != nil {
		return nil, err
	}

	c.ws.mu.Lock()
	node, err := c.ws.lookup(a.ID)
	if err != nil {
		c.ws.mu.Unlock()
		return nil, err
	}
	data := node.ToJSON()
	c.ws.clipboard = &data
	c.ws.mu.Unlock()

	c.ws.emit(ctx, hooks.ActionElementCopied, data)
	return data, nil
}

// --- editor/paste ---

type pasteCommand struct{ ws *Workspace }

func (c *pasteCommand) Description() string { return "Paste the clipboard with fresh ids" }

func (c *pasteCommand) ValidateArgs(args command.Args) error {
	return command.Validator[PasteArgs]()(args)
}

func (c *pasteCommand) CanExecute(ctx context.Context, args command.Args) bool {
	a, _ := command.Decode[PasteArgs](args)
	if _, ok := c.ws.Clipboard(); !ok {
		return false
	}
	return a.ParentID == "" || c.ws.acceptsChildren(a.ParentID)
}

func (c *pasteCommand) Execute(ctx context.Context, args command.Args) (any, error) {
	a, err := command.Decode[PasteArgs](args)
	if err != nil {
		return nil, err
	}
	data, ok := c.ws.Clipboard()
	if !ok {
		return nil, ErrClipboardEmpty
	}

	node, err := domain.FromJSON(data, domain.WithFreshIDs(), domain.WithImportFactory(c.ws.registry))
	if err != nil {
		return nil, err
	}

	c.ws.mu.Lock()
	err = func() error {
		parent, err := c.ws.lookupParent(a.ParentID)
		if err != nil {
			return err
		}
		if parent != nil {
			if err := parent.InsertChild(node, indexOr(a.Index, -1)); err != nil {
				return err
			}
		}
		if err := c.ws.tracker.TrackTree(node); err != nil {
			node.Destroy()
			return err
		}
		return nil
	}()
	c.ws.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.ws.emit(ctx, hooks.ActionElementPasted, node)
	return node, nil
}
