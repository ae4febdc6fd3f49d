package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Overlay marks elements to highlight on the diagram.
type Overlay struct {
	Selected    string
	Highlighted []string
}

// GenerateMermaid produces a Mermaid flowchart of the element tree in doc.
// It applies semantic styling:
// - Document root: ((Circle))
// - Element that accepts children: [[Subroutine]]
// - Leaf: [Rectangle]
// Hidden elements get a dashed style and locked ones a lock marker.
func GenerateMermaid(doc *domain.Document, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	rootID := "doc_" + sanitizeMermaidID(doc.ID)
	fmt.Fprintf(&sb, "    %s((\"%s\"))\n", rootID, escapeLabel(doc.ID))

	var hidden []string
	type frame struct {
		parent string
		data   *domain.ElementData
	}
	stack := make([]frame, 0, len(doc.Elements))
	for i := len(doc.Elements) - 1; i >= 0; i-- {
		stack = append(stack, frame{parent: rootID, data: &doc.Elements[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		el := top.data
		safeID := sanitizeMermaidID(el.ID)

		opener, closer := "[", "]"
		if len(el.Children) > 0 || !domain.LeafTypes[el.Type] {
			opener, closer = "[[", "]]"
		}
		label := el.Type
		if el.Label != "" {
			label = el.Label + " <br/> " + el.Type
		}
		if el.IsLocked {
			label += " 🔒"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer)
		fmt.Fprintf(&sb, "    %s --> %s\n", top.parent, safeID)
		if !el.IsVisible {
			hidden = append(hidden, safeID)
		}

		for i := len(el.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{parent: safeID, data: &el.Children[i]})
		}
	}

	if len(hidden) > 0 {
		sb.WriteString("\n    classDef hidden stroke-dasharray: 5 5,color:#888;\n")
		for _, id := range hidden {
			fmt.Fprintf(&sb, "    class %s hidden;\n", id)
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme.
		sb.WriteString("    classDef highlighted fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Highlighted {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s highlighted;\n", safeID)
			}
		}

		if overlay.Selected != "" {
			fmt.Fprintf(&sb, "    class %s selected;\n", sanitizeMermaidID(overlay.Selected))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
