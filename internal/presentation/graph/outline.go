package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/canopy/pkg/domain"
)

// Outline renders the element tree as an indented text listing.
func Outline(elements []domain.ElementData) string {
	var sb strings.Builder
	for i := range elements {
		writeOutline(&sb, &elements[i], "", i == len(elements)-1)
	}
	return sb.String()
}

func writeOutline(sb *strings.Builder, el *domain.ElementData, prefix string, last bool) {
	branch, indent := "├── ", "│   "
	if last {
		branch, indent = "└── ", "    "
	}

	fmt.Fprintf(sb, "%s%s%s", prefix, branch, el.Type)
	if el.Label != "" {
		fmt.Fprintf(sb, " %q", el.Label)
	}
	fmt.Fprintf(sb, " (%s)", el.ID)
	if el.IsLocked {
		sb.WriteString(" [locked]")
	}
	if !el.IsVisible {
		sb.WriteString(" [hidden]")
	}
	sb.WriteString("\n")

	for i := range el.Children {
		writeOutline(sb, &el.Children[i], prefix+indent, i == len(el.Children)-1)
	}
}
