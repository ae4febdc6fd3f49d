package domain

import "time"

// DocumentVersion is the current serialized document format.
const DocumentVersion = "1.0"

// Metadata describes where a document came from.
type Metadata struct {
	CreatedAt      time.Time `json:"createdAt"`
	BuilderVersion string    `json:"builderVersion"`
}

// Document is the persisted form of a page: its root elements plus page-level settings.
type Document struct {
	ID       string        `json:"id"`
	Version  string        `json:"version"`
	Settings Props         `json:"settings"`
	Metadata Metadata      `json:"metadata"`
	Elements []ElementData `json:"elements"`
}

// NewDocument returns an empty document with a fresh id.
func NewDocument(builderVersion string) *Document {
	return &Document{
		ID:      NewID(),
		Version: DocumentVersion,
		Metadata: Metadata{
			CreatedAt:      now(),
			BuilderVersion: builderVersion,
		},
		Elements: []ElementData{},
	}
}

// Count returns the number of elements in the document, nested ones included.
func (d *Document) Count() int {
	n := 0
	stack := make([]ElementData, 0, len(d.Elements))
	stack = append(stack, d.Elements...)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, top.Children...)
	}
	return n
}
