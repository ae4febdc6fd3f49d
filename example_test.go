package canopy_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
)

// ExampleNew builds a small page, moves an element and persists the document.
func ExampleNew() {
	ctx := context.Background()
	b := canopy.New(canopy.WithStore(memory.NewStore()), canopy.WithDocumentID("home"))

	section, err := b.CreateElement(ctx, domain.TypeContainer, nil, "")
	if err != nil {
		log.Fatal(err)
	}
	title, err := b.CreateElement(ctx, "heading", map[string]any{"content": "Welcome"}, section.ID())
	if err != nil {
		log.Fatal(err)
	}
	if _, err := b.CreateElement(ctx, domain.TypeButton, nil, section.ID()); err != nil {
		log.Fatal(err)
	}

	// Put the heading after the button.
	if err := b.MoveElement(ctx, title.ID(), section.ID(), 1); err != nil {
		log.Fatal(err)
	}
	for _, child := range section.Children() {
		fmt.Println(child.Type())
	}

	if err := b.Save(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println(b.Serialize().Count(), "elements saved")

	// Output:
	// button
	// heading
	// 3 elements saved
}
