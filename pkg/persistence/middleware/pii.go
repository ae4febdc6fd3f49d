package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.DocumentStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks prop and setting values whose keys
// match any of the patterns, at any depth. Masking happens on a copy; the caller's
// document is untouched.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, id string, doc *domain.Document) error {
	cloned, err := cloneDocument(doc)
	if err != nil {
		return err
	}

	m.maskProps(&cloned.Settings)
	stack := make([]*domain.ElementData, 0, len(cloned.Elements))
	for i := range cloned.Elements {
		stack = append(stack, &cloned.Elements[i])
	}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		m.maskProps(&el.Props)
		m.maskProps(&el.Settings)
		for i := range el.Children {
			stack = append(stack, &el.Children[i])
		}
	}

	return m.next.Save(ctx, id, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (*domain.Document, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) maskProps(p *domain.Props) {
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		if m.matches(k) {
			p.Set(k, Mask)
			continue
		}
		m.maskValue(v)
	}
}

func (m *piiMiddleware) maskValue(v any) {
	switch val := v.(type) {
	case map[string]any:
		for k, sub := range val {
			if m.matches(k) {
				val[k] = Mask
				continue
			}
			m.maskValue(sub)
		}
	case []any:
		for _, item := range val {
			m.maskValue(item)
		}
	}
}
