package registry

import "github.com/aretw0/canopy/pkg/domain"

// Built-in categories.
const (
	CategoryLayout = "layout"
	CategoryBasic  = "basic"
	CategoryMedia  = "media"
)

func props(kv ...any) *domain.Props {
	p := &domain.Props{}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i].(string), kv[i+1])
	}
	return p
}

// Builtins returns the default element catalog.
func Builtins() []Descriptor {
	return []Descriptor{
		{Type: domain.TypeContainer, Icon: "square", Title: "Container", Category: CategoryLayout,
			DefaultProps: props("padding", "0px", "direction", "column")},
		{Type: "section", Icon: "rows", Title: "Section", Category: CategoryLayout,
			DefaultProps: props("padding", "20px", "fullWidth", false)},
		{Type: "column", Icon: "columns", Title: "Column", Category: CategoryLayout,
			DefaultProps: props("width", "100%")},
		{Type: domain.TypeText, Icon: "type", Title: "Text", Category: CategoryBasic, ElType: "widget", Leaf: true,
			DefaultProps: props("content", "Text", "align", "left")},
		{Type: "heading", Icon: "heading", Title: "Heading", Category: CategoryBasic, ElType: "widget", Leaf: true,
			DefaultProps: props("content", "Heading", "level", 2)},
		{Type: domain.TypeImage, Icon: "image", Title: "Image", Category: CategoryMedia, ElType: "widget", Leaf: true,
			DefaultProps: props("src", "", "alt", "")},
		{Type: domain.TypeButton, Icon: "pointer", Title: "Button", Category: CategoryBasic, ElType: "widget", Leaf: true,
			DefaultProps: props("text", "Click me", "href", "#")},
	}
}

// NewDefault returns a registry preloaded with Builtins.
func NewDefault(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	for _, d := range Builtins() {
		_ = r.Register(d)
	}
	return r
}
