package registry

import (
	"fmt"
	"io"
	"os"

	"github.com/aretw0/canopy/pkg/domain"
	"gopkg.in/yaml.v3"
)

// catalogFile is the YAML shape of an element catalog.
type catalogFile struct {
	Elements []catalogEntry `yaml:"elements"`
}

type catalogEntry struct {
	Type         string    `yaml:"type"`
	Icon         string    `yaml:"icon"`
	Title        string    `yaml:"title"`
	Category     string    `yaml:"category"`
	ElType       string    `yaml:"elType"`
	Leaf         bool      `yaml:"leaf"`
	DefaultProps yaml.Node `yaml:"defaultProps"`
}

// LoadCatalog registers every element declared in a YAML catalog.
// It stops at the first invalid entry.
func (r *Registry) LoadCatalog(reader io.Reader) (int, error) {
	var file catalogFile
	if err := yaml.NewDecoder(reader).Decode(&file); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for i, entry := range file.Elements {
		desc := Descriptor{
			Type:     entry.Type,
			Icon:     entry.Icon,
			Title:    entry.Title,
			Category: entry.Category,
			ElType:   entry.ElType,
			Leaf:     entry.Leaf,
		}
		props, err := orderedProps(&entry.DefaultProps)
		if err != nil {
			return i, fmt.Errorf("element %q: %w", entry.Type, err)
		}
		desc.DefaultProps = props
		if err := r.Register(desc); err != nil {
			return i, err
		}
	}
	return len(file.Elements), nil
}

// LoadCatalogFile is LoadCatalog for a file on disk.
func (r *Registry) LoadCatalogFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return r.LoadCatalog(f)
}

// orderedProps decodes a YAML mapping keeping key order. An absent node yields nil.
func orderedProps(node *yaml.Node) (*domain.Props, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("defaultProps must be a mapping")
	}
	props := &domain.Props{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("defaultProps.%s: %w", node.Content[i].Value, err)
		}
		props.Set(node.Content[i].Value, value)
	}
	return props, nil
}
