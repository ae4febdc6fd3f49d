package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/registry"
)

// CatalogMarkdown lists element types as a markdown table.
func CatalogMarkdown(descs []registry.Descriptor) string {
	var sb strings.Builder
	sb.WriteString("# Element types\n\n")
	if len(descs) == 0 {
		sb.WriteString("_No element types available._\n")
		return sb.String()
	}

	sb.WriteString("| Type | Title | Category | Children | Default props |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, d := range descs {
		children := "yes"
		if d.Leaf {
			children = "no"
		}
		props := "-"
		if d.DefaultProps != nil && d.DefaultProps.Len() > 0 {
			props = "`" + strings.Join(d.DefaultProps.Keys(), "`, `") + "`"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s | %s |\n", d.Type, d.Title, d.Category, children, props)
	}
	return sb.String()
}
