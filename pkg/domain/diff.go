package domain

import (
	"reflect"
)

// ElementDiff describes what changed on one element between two snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type ElementDiff struct {
	// ID is always present to identify the target.
	ID string `json:"id"`

	Label     *string `json:"label,omitempty"`
	IsLocked  *bool   `json:"isLocked,omitempty"`
	IsVisible *bool   `json:"isVisible,omitempty"`

	// Props contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Props map[string]any `json:"props,omitempty"`

	// Settings follows the same rules as Props.
	Settings map[string]any `json:"settings,omitempty"`

	// Children is the new child id order, present only when it changed.
	Children []string `json:"children,omitempty"`
}

// Diff calculates the difference between two snapshots of the same element.
// If before is nil, the diff carries the whole of after (initial load).
// It returns nil when nothing changed.
func Diff(before, after *ElementData) *ElementDiff {
	if after == nil {
		return nil
	}

	diff := &ElementDiff{ID: after.ID}

	if before == nil || before.Label != after.Label {
		diff.Label = &after.Label
	}
	if before == nil || before.IsLocked != after.IsLocked {
		diff.IsLocked = &after.IsLocked
	}
	if before == nil || before.IsVisible != after.IsVisible {
		diff.IsVisible = &after.IsVisible
	}

	var oldProps, oldSettings map[string]any
	if before != nil {
		oldProps = before.Props.Map()
		oldSettings = before.Settings.Map()
	}
	diff.Props = diffMap(oldProps, after.Props.Map(), before == nil)
	diff.Settings = diffMap(oldSettings, after.Settings.Map(), before == nil)
	diff.Children = diffChildren(before, after)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffMap(old, new map[string]any, initial bool) map[string]any {
	delta := make(map[string]any)

	if initial {
		for k, v := range new {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	// Added or modified
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Deleted
	for k := range old {
		if _, exists := new[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffChildren(before, after *ElementData) []string {
	ids := childIDs(after)
	if before == nil {
		if len(ids) == 0 {
			return nil
		}
		return ids
	}
	if reflect.DeepEqual(childIDs(before), ids) {
		return nil
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

func childIDs(d *ElementData) []string {
	if len(d.Children) == 0 {
		return nil
	}
	ids := make([]string, len(d.Children))
	for i, c := range d.Children {
		ids[i] = c.ID
	}
	return ids
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *ElementDiff) IsEmpty() bool {
	return d.Label == nil &&
		d.IsLocked == nil &&
		d.IsVisible == nil &&
		len(d.Props) == 0 &&
		len(d.Settings) == 0 &&
		d.Children == nil
}
