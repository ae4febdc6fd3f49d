package elements

// CreateArgs are the arguments of elements/create.
type CreateArgs struct {
	Type     string         `mapstructure:"type" validate:"required"`
	Props    map[string]any `mapstructure:"props"`
	Settings map[string]any `mapstructure:"settings"`
	Label    string         `mapstructure:"label"`
	ParentID string         `mapstructure:"parentId"`
	Index    *int           `mapstructure:"index"`
}

// UpdateArgs are the arguments of elements/update. Nil fields are left alone.
type UpdateArgs struct {
	ID       string         `mapstructure:"id" validate:"required"`
	Props    map[string]any `mapstructure:"props"`
	Unset    []string       `mapstructure:"unset"`
	Settings map[string]any `mapstructure:"settings"`
	Label    *string        `mapstructure:"label"`
	Locked   *bool          `mapstructure:"locked"`
	Visible  *bool          `mapstructure:"visible"`
}

// MoveArgs are the arguments of elements/move.
type MoveArgs struct {
	ID       string `mapstructure:"id" validate:"required"`
	ParentID string `mapstructure:"parentId" validate:"required"`
	Index    *int   `mapstructure:"index"`
}

// CloneArgs are the arguments of elements/clone.
// Without ParentID the clone is placed right after its source.
type CloneArgs struct {
	ID       string         `mapstructure:"id" validate:"required"`
	ParentID string         `mapstructure:"parentId"`
	Index    *int           `mapstructure:"index"`
	Props    map[string]any `mapstructure:"props"`
}

// IDArgs carry a single element id.
type IDArgs struct {
	ID string `mapstructure:"id" validate:"required"`
}

// SelectArgs are the arguments of editor/select. An empty id clears the selection.
type SelectArgs struct {
	ID string `mapstructure:"id"`
}

// PasteArgs are the arguments of editor/paste. Without ParentID the paste becomes a root.
type PasteArgs struct {
	ParentID string `mapstructure:"parentId"`
	Index    *int   `mapstructure:"index"`
}

func indexOr(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}
